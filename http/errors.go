package http

import "errors"

// ErrMissingFile is returned when a multipart upload carries no "file" part.
var ErrMissingFile = errors.New("missing file part")
