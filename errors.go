package depot

import "errors"

var (
	// ErrUnknownWarehouse is returned when a request names a warehouse that is not configured
	ErrUnknownWarehouse = errors.New("unknown warehouse")
	// ErrUploadDecode is returned when the upload stream cannot be received or decoded
	ErrUploadDecode = errors.New("upload decode failure")
	// ErrCapacityExceeded is returned when a warehouse already holds its maximum number of files
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrFileTooLarge is returned when a file exceeds the warehouse size limit
	ErrFileTooLarge = errors.New("file too large")
	// ErrTypeNotAllowed is returned when a file's MIME type is not whitelisted by the warehouse
	ErrTypeNotAllowed = errors.New("type not allowed")
	// ErrDuplicateName is returned when a warehouse already holds a file with the same name
	ErrDuplicateName = errors.New("duplicate file name")
	// ErrNotFound is returned when a file is not found
	ErrNotFound = errors.New("not found")
	// ErrReadFailure is returned when stored bytes cannot be read back
	ErrReadFailure = errors.New("read failure")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
