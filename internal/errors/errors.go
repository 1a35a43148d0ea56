package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the categories of failure the gateway distinguishes
type ErrorKind string

const (
	KindClientInput      ErrorKind = "client_input"
	KindConfiguration    ErrorKind = "configuration"
	KindRateLimited      ErrorKind = "rate_limited"
	KindQuotaExhausted   ErrorKind = "quota_exhausted"
	KindUpstreamFailure  ErrorKind = "upstream_failure"
	KindEmptyResponse    ErrorKind = "empty_response"
	KindMalformedPayload ErrorKind = "malformed_payload"
	KindInternal         ErrorKind = "internal"
)

// Client-facing messages. The frontend shows these verbatim.
const (
	MsgNoImage          = "No image provided"
	MsgInvalidBody      = "Invalid request body"
	MsgImageTooLarge    = "Image too large"
	MsgNotConfigured    = "AI service not configured"
	MsgRateLimited      = "Rate limit exceeded. Please try again in a moment."
	MsgQuotaExhausted   = "AI credits exhausted. Please add credits to continue."
	MsgUpstreamFailure  = "Failed to analyze image"
	MsgEmptyResponse    = "No analysis generated"
	MsgMalformedPayload = "Failed to parse analysis results"
	MsgInternal         = "Internal server error"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// AppError represents a structured application error
type AppError struct {
	Kind           ErrorKind `json:"kind"`
	Message        string    `json:"message"`
	StatusCode     int       `json:"status_code"`
	UpstreamStatus int       `json:"upstream_status,omitempty"` // provider HTTP status, 0 if none received
	Cause          error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsProviderError reports whether the error came from the upstream call or its output.
func (e *AppError) IsProviderError() bool {
	switch e.Kind {
	case KindRateLimited, KindQuotaExhausted, KindUpstreamFailure, KindEmptyResponse, KindMalformedPayload:
		return true
	}
	return false
}

// NewClientInputError creates a 400 error for a bad or missing request field
func NewClientInputError(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindClientInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewPayloadTooLargeError creates a 413 client error
func NewPayloadTooLargeError(cause error) *AppError {
	return &AppError{
		Kind:       KindClientInput,
		Message:    MsgImageTooLarge,
		StatusCode: http.StatusRequestEntityTooLarge,
		Cause:      cause,
	}
}

// NewRouteError creates a client error for an unknown path or method
func NewRouteError(statusCode int, message string) *AppError {
	return &AppError{
		Kind:       KindClientInput,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewConfigurationError creates an error for missing operator configuration
func NewConfigurationError(cause error) *AppError {
	return &AppError{
		Kind:       KindConfiguration,
		Message:    MsgNotConfigured,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewRateLimitedError maps an upstream 429
func NewRateLimitedError(cause error) *AppError {
	return &AppError{
		Kind:           KindRateLimited,
		Message:        MsgRateLimited,
		StatusCode:     http.StatusTooManyRequests,
		UpstreamStatus: http.StatusTooManyRequests,
		Cause:          cause,
	}
}

// NewQuotaExhaustedError maps an upstream 402
func NewQuotaExhaustedError(cause error) *AppError {
	return &AppError{
		Kind:           KindQuotaExhausted,
		Message:        MsgQuotaExhausted,
		StatusCode:     http.StatusPaymentRequired,
		UpstreamStatus: http.StatusPaymentRequired,
		Cause:          cause,
	}
}

// NewUpstreamFailureError covers any other non-2xx status, transport failures
// and undecodable envelopes. upstreamStatus is 0 when no response was received.
func NewUpstreamFailureError(upstreamStatus int, cause error) *AppError {
	return &AppError{
		Kind:           KindUpstreamFailure,
		Message:        MsgUpstreamFailure,
		StatusCode:     http.StatusInternalServerError,
		UpstreamStatus: upstreamStatus,
		Cause:          cause,
	}
}

// NewEmptyResponseError is returned when a 2xx envelope carries no content
func NewEmptyResponseError(cause error) *AppError {
	return &AppError{
		Kind:           KindEmptyResponse,
		Message:        MsgEmptyResponse,
		StatusCode:     http.StatusInternalServerError,
		UpstreamStatus: http.StatusOK,
		Cause:          cause,
	}
}

// NewMalformedPayloadError is returned when model output fails normalization
func NewMalformedPayloadError(cause error) *AppError {
	return &AppError{
		Kind:           KindMalformedPayload,
		Message:        MsgMalformedPayload,
		StatusCode:     http.StatusInternalServerError,
		UpstreamStatus: http.StatusOK,
		Cause:          cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// As extracts an *AppError from anywhere in the error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind checks if the error is of a specific kind
func IsKind(err error, kind ErrorKind) bool {
	if appErr, ok := As(err); ok {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the error kind, or KindInternal for foreign errors
func KindOf(err error) ErrorKind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ClientMessage returns the message that is safe to show the caller
func ClientMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return MsgInternal
}
