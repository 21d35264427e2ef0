package errors

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error class carried by every service error.
// Codes are stable API surface: handlers pick them, the HTTP writer maps
// them to status codes, clients switch on them.
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// Error represents an error that can be converted to a service error
type Error interface {
	error
	ToServiceError() error
}

// serviceError resembles an HTTP status error but it retains the original
// error cause such that functions up the stack can inspect it with
// errors.Unwrap() or errors.Is().
type serviceError struct {
	Code   Code
	Cause  error
	Reason string
}

// newServiceError creates a new service error with the given code and cause
func newServiceError(code Code, cause error, reason string) *serviceError {
	return &serviceError{
		Code:   code,
		Cause:  cause,
		Reason: reason,
	}
}

func (e *serviceError) Error() string {
	return e.Cause.Error()
}

func (e *serviceError) Unwrap() error {
	return e.Cause
}

// toServiceError converts any error to an appropriate service error.
// If there is an error in the chain that explicitly converts to a service
// error, that error will be returned as is. If there is a serviceError in
// the chain, its code and reason are preserved and applied to the
// outermost error so the whole chain stays inspectable. Otherwise the
// error is wrapped as an Internal error.
func toServiceError(err error) error {
	if err == nil {
		return nil
	}

	var convertable Error
	if errors.As(err, &convertable) {
		return convertable.ToServiceError()
	}

	var svcErr *serviceError
	if errors.As(err, &svcErr) {
		return &serviceError{
			Code:   svcErr.Code,
			Cause:  err,
			Reason: svcErr.Reason,
		}
	}

	// Default to Internal error with no reason.
	return &serviceError{Code: CodeInternal, Cause: err, Reason: ""}
}

// WrapErrorWithCode should be used to convert a standard Go error into a
// service error with a specific code. The original error will be used as
// the message.
func WrapErrorWithCode(err error, code Code) error {
	return wrapService(err, &code, nil, "")
}

// WrapErrorWithCodeAndReason should be used to convert a standard Go error
// into a service error with a specific code and a machine-readable reason.
// The original error will be used as the message.
func WrapErrorWithCodeAndReason(err error, code Code, reason string) error {
	return wrapService(err, &code, &reason, "")
}

// WrapErrorWithMessage should be used to add a more descriptive,
// human-readable message to an existing service error. The original code
// and reason will be preserved.
func WrapErrorWithMessage(orig error, message string) error {
	return wrapService(orig, nil, nil, message)
}

// CodeAndReasonFrom extracts the code and reason of the first service error
// in err's chain. Plain errors classify as Internal with no reason.
func CodeAndReasonFrom(err error) (Code, string) {
	var se *serviceError
	if errors.As(err, &se) {
		return se.Code, se.Reason
	}
	return CodeInternal, ""
}

func wrapService(err error, codeOverride *Code, reasonOverride *string, msg string) error {
	if err == nil {
		return nil
	}
	code, reason := CodeAndReasonFrom(err)
	if codeOverride != nil {
		code = *codeOverride
		if reasonOverride == nil {
			reason = ""
		}
	}
	if reasonOverride != nil {
		reason = *reasonOverride
	}
	cause := err
	if msg != "" {
		cause = fmt.Errorf("%s: %w", msg, err)
	}
	return &serviceError{Code: code, Cause: cause, Reason: reason}
}
