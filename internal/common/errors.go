package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code, so wrapped copies of the domain
// errors below still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// GRPCStatus lets status.Code and status.FromError classify domain errors.
func (e *AppError) GRPCStatus() *status.Status {
	code, ok := appCodes[e.Code]
	if !ok {
		code = codes.Unknown
	}
	return status.New(code, e.Error())
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Domain failures published as PaymentOutcome / ResultState causes.
var (
	ErrNoBankSelected      = NewAppError("NO_BANK_SELECTED", "no bank selected", nil)
	ErrNoProviderForBank   = NewAppError("NO_PROVIDER_FOR_BANK", "no payment provider matches this bank", nil)
	ErrDocumentUnavailable = NewAppError("DOCUMENT_UNAVAILABLE", "document unavailable", nil)
)

var appCodes = map[string]codes.Code{
	"NO_BANK_SELECTED":     codes.FailedPrecondition,
	"NO_PROVIDER_FOR_BANK": codes.FailedPrecondition,
	"DOCUMENT_UNAVAILABLE": codes.Unavailable,
	"CONFIG_ERROR":         codes.InvalidArgument,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode returns the AppError code or gRPC code name carried by err.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return status.Code(err).String()
}

// IsRetryable reports whether err is a transport failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrDocumentUnavailable.Code
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
