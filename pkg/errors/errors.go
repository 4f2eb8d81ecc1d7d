package errors

import "net/http"

// AppError is an error that carries the HTTP status the endpoint answers with
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Common errors
var (
	ErrInvalidID      = NewAppError(http.StatusBadRequest, "Invalid ID")
	ErrInvalidAction  = NewAppError(http.StatusBadRequest, "Invalid action")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, "Unauthorized")
	ErrNotFound       = NewAppError(http.StatusNotFound, "Link not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, "Rate limit exceeded")
)

func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, msg)
}

func Internal(msg string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg)
}
