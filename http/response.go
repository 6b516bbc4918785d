package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/depot"
)

// Plain-text bodies returned to clients. Existing clients match on them
// byte for byte, misspelling included, so they must not be reworded.
const (
	MsgUploaded         = "File uploaded suscecfully"
	MsgUnknownWarehouse = "Storage is not found"
	MsgUploadError      = "File upload error"
	MsgCapacityExceeded = "Maximum number of files reached"
	MsgFileTooLarge     = "File is very big"
	MsgTypeNotAllowed   = "This type of files cannot be uploaded"
	MsgInvalidFileName  = "Invalid file name"
	MsgDuplicateName    = "File already exists"
	MsgFileNotFound     = "File is not found"
	MsgInfoNotFound     = "File not found"
	MsgReadError        = "File read error"
	MsgInternalError    = "Internal server error"
)

// WriteText writes a plain-text response
func WriteText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, message); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// HandleError writes the status and message matching err.
// ErrReadFailure is checked before ErrNotFound because a vanished backing
// object wraps both.
func HandleError(w http.ResponseWriter, err error) {
	code, message := classify(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", code, "error", err)
	}
	WriteText(w, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, depot.ErrUnknownWarehouse):
		return http.StatusNotFound, MsgUnknownWarehouse
	case errors.Is(err, depot.ErrUploadDecode), errors.Is(err, ErrMissingFile):
		return http.StatusInternalServerError, MsgUploadError
	case errors.Is(err, depot.ErrCapacityExceeded):
		return http.StatusBadRequest, MsgCapacityExceeded
	case errors.Is(err, depot.ErrFileTooLarge):
		return http.StatusBadRequest, MsgFileTooLarge
	case errors.Is(err, depot.ErrTypeNotAllowed):
		return http.StatusBadRequest, MsgTypeNotAllowed
	case errors.Is(err, depot.ErrDuplicateName):
		return http.StatusConflict, MsgDuplicateName
	case errors.Is(err, depot.ErrReadFailure):
		return http.StatusInternalServerError, MsgReadError
	case errors.Is(err, depot.ErrNotFound):
		return http.StatusNotFound, MsgFileNotFound
	case errors.Is(err, depot.ErrInvalidInput):
		return http.StatusBadRequest, MsgInvalidFileName
	default:
		return http.StatusInternalServerError, MsgInternalError
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
