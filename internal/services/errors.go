package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies a ServiceError. Surfaces map codes to transport
// statuses; messages are for logs.
type ErrorCode string

const (
	ErrorInvalid             ErrorCode = "invalid"
	ErrorUnauthorized        ErrorCode = "unauthorized"
	ErrorForbidden           ErrorCode = "forbidden"
	ErrorInstrumentNotFound  ErrorCode = "instrument_not_found"
	ErrorAnswerCountMismatch ErrorCode = "answer_count_mismatch"
	ErrorAnswerOutOfRange    ErrorCode = "answer_out_of_range"
	ErrorStorageUnavailable  ErrorCode = "storage_unavailable"
	ErrorStorageTimeout      ErrorCode = "storage_timeout"
)

// ServiceError is the error type returned by every service operation. Err
// holds the underlying cause, if any, and is never shown to callers.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewInvalidError reports a malformed request.
func NewInvalidError(msg string) error      { return &ServiceError{Code: ErrorInvalid, Message: msg} }
// NewUnauthorizedError reports a missing user identity.
func NewUnauthorizedError(msg string) error { return &ServiceError{Code: ErrorUnauthorized, Message: msg} }
// NewForbiddenError reports an attempt that is absent or owned by someone else.
func NewForbiddenError(msg string) error    { return &ServiceError{Code: ErrorForbidden, Message: msg} }

// NewInstrumentNotFoundError reports an unknown instrument code or category.
func NewInstrumentNotFoundError(msg string) error {
	return &ServiceError{Code: ErrorInstrumentNotFound, Message: msg}
}

// NewAnswerCountMismatchError reports a submission whose length differs from
// the instrument's question count.
func NewAnswerCountMismatchError(got, want int) error {
	return &ServiceError{
		Code:    ErrorAnswerCountMismatch,
		Message: fmt.Sprintf("answer count %d does not match question count %d", got, want),
	}
}

// NewAnswerOutOfRangeError reports an answer outside the instrument scale.
func NewAnswerOutOfRangeError(index int, value, min, max float64) error {
	return &ServiceError{
		Code:    ErrorAnswerOutOfRange,
		Message: fmt.Sprintf("answer %d (%g) outside scale [%g, %g]", index+1, value, min, max),
	}
}

// NewFractionalAnswerError reports a non-integer answer on a whole-number
// scale under ErrorAnswerOutOfRange.
func NewFractionalAnswerError(index int, value, min, max float64) error {
	return &ServiceError{
		Code:    ErrorAnswerOutOfRange,
		Message: fmt.Sprintf("answer %d (%g) is not a point on scale [%g, %g]", index+1, value, min, max),
	}
}

// NewMisconfiguredError reports reference data that cannot be scored, such as
// a stored strategy whose blocks do not fit the question list. The code is
// ErrorStorageUnavailable.
func NewMisconfiguredError(code string, err error) error {
	return &ServiceError{
		Code:    ErrorStorageUnavailable,
		Message: fmt.Sprintf("instrument %s is misconfigured", code),
		Err:     err,
	}
}

// StorageError classifies a persistence failure. Deadline expiry maps to
// ErrorStorageTimeout; anything else is ErrorStorageUnavailable.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := AsServiceError(err); ok {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Code: ErrorStorageTimeout, Message: op + " timed out", Err: err}
	}
	return &ServiceError{Code: ErrorStorageUnavailable, Message: op + " failed", Err: err}
}

// AsServiceError unwraps err to a ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err is a ServiceError with the given code.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
