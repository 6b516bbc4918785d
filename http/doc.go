// Package http exposes a depot service over HTTP.
//
// # Routes
//
//	POST /upload/{store}               multipart upload, form field "file"
//	GET  /download/{store}/{filename}  stream a stored file as an attachment
//	GET  /storages                     status of every warehouse, in registry order
//	GET  /info/{fileName}              global lookup by file name
//	GET  /healthz                      liveness check
//
// Errors are returned as short plain-text bodies ("Storage is not found",
// "File is very big", ...) with the status chosen by HandleError from the
// wrapped depot sentinel. Successful JSON responses use WriteJSON.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{MaxUploadSize: 128 << 20}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":3000", handler.Router())
//
// The router mounts chi's RequestID, RealIP and Recoverer middleware, plus
// LoggingMiddleware for one slog line per request. CORS is enabled through
// HandlerConfig.CORS.
//
// Downloads are streamed with a fixed 1 MiB buffer. A client disconnect
// stops the copy and releases the backing object.
package http
