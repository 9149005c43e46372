package errors

import (
	"context"
	"errors"
	"net/http"
)

// Response error response
type Response struct {
	Error       error
	ErrorCode   string
	Description string
	StatusCode  int
}

// NewResponse maps err onto the error taxonomy. Anything outside of it is
// reported as a server_error without leaking the underlying message.
func NewResponse(err error) *Response {
	for known, code := range Codes {
		if errors.Is(err, known) {
			return &Response{
				Error:       err,
				ErrorCode:   code,
				Description: Descriptions[known],
				StatusCode:  StatusCodes[known],
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Response{Error: err, ErrorCode: "temporarily_unavailable", Description: "upstream timeout", StatusCode: http.StatusServiceUnavailable}
	}
	return &Response{Error: err, ErrorCode: "server_error", Description: "internal server error", StatusCode: http.StatusInternalServerError}
}

// Codes error code mapping
var Codes = map[error]string{
	ErrUnknownApplication:    "unknown_application",
	ErrAuthenticationFailure: "invalid_grant",
	ErrInvalidOrExpiredToken: "invalid_token",
	ErrAppKeyMismatch:        "app_key_mismatch",
	ErrInvalidRequest:        "invalid_request",
	ErrApplicationExists:     "conflict",
	ErrNotFound:              "not_found",
}

// Descriptions error description mapping
var Descriptions = map[error]string{
	ErrUnknownApplication:    "Unknown application key",
	ErrAuthenticationFailure: "Invalid username or password",
	ErrInvalidOrExpiredToken: "The token is missing, malformed or expired; sign in again",
	ErrAppKeyMismatch:        "Token does not match requested application key",
	ErrInvalidRequest:        "The request is missing a required parameter or is otherwise malformed",
	ErrApplicationExists:     "Application key already exists",
	ErrNotFound:              "Resource not found",
}

// StatusCodes response error HTTP status code mapping
var StatusCodes = map[error]int{
	ErrUnknownApplication:    http.StatusBadRequest,
	ErrAuthenticationFailure: http.StatusUnauthorized,
	ErrInvalidOrExpiredToken: http.StatusUnauthorized,
	ErrAppKeyMismatch:        http.StatusForbidden,
	ErrInvalidRequest:        http.StatusBadRequest,
	ErrApplicationExists:     http.StatusConflict,
	ErrNotFound:              http.StatusNotFound,
}
