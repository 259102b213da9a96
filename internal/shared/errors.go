package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Validation errors (local, no network)
	ErrUnsupportedFileType = fmt.Errorf("only PDF files are allowed")
	ErrFileTooLarge        = fmt.Errorf("file exceeds the upload size limit")
	ErrPasswordMismatch    = fmt.Errorf("passwords do not match")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrMissingArgument     = fmt.Errorf("missing required argument")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")

	// Authentication & authorization errors
	ErrAuthFailed           = fmt.Errorf("authentication failed")
	ErrNotAuthenticated     = fmt.Errorf("not authenticated")
	ErrAlreadyAuthenticated = fmt.Errorf("already logged in")

	// Workflow latches
	ErrInFlight        = fmt.Errorf("request already in progress")
	ErrNotReady        = fmt.Errorf("upload is not ready")
	ErrTooManyAttempts = fmt.Errorf("too many attempts, slow down")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Storage errors
	ErrKeyNotFound = fmt.Errorf("key not found")
	ErrKeyChanged  = fmt.Errorf("guard key changed")
	ErrNotFound    = fmt.Errorf("record not found")
)
