package errors

import "fmt"

// Canonical reason constants for the error envelope's Reason field. Keep
// stable, UPPER_SNAKE_CASE. All reasons group under the code they ride on.
const (
	ReasonInvalidArgumentMissingField   = "MISSING_FIELD"
	ReasonInvalidArgumentMalformedField = "MALFORMED_FIELD"

	ReasonFailedPreconditionAssetRulesViolation = "ASSET_RULES_VIOLATION"
	ReasonFailedPreconditionMaxSupplyExceeded   = "MAX_SUPPLY_EXCEEDED"
	ReasonFailedPreconditionNotFrozen           = "NOT_FROZEN"
	ReasonFailedPreconditionNotFreezable        = "NOT_FREEZABLE"
	ReasonFailedPreconditionOverflow            = "OVERFLOW"

	ReasonAlreadyExistsDuplicateAsset = "DUPLICATE_ASSET"

	ReasonNotFoundMissingAsset = "MISSING_ASSET"
	ReasonNotFoundMissingUnit  = "MISSING_UNIT"

	ReasonResourceExhaustedRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	ReasonInternalConservationViolation = "CONSERVATION_VIOLATION"
)

func InvalidArgumentMissingField(err error) error {
	return newServiceError(CodeInvalidArgument, err, ReasonInvalidArgumentMissingField)
}

func InvalidArgumentMalformedField(err error) error {
	return newServiceError(CodeInvalidArgument, err, ReasonInvalidArgumentMalformedField)
}

func FailedPreconditionAssetRulesViolation(err error) error {
	return newServiceError(CodeFailedPrecondition, err, ReasonFailedPreconditionAssetRulesViolation)
}

func FailedPreconditionMaxSupplyExceeded(err error) error {
	return newServiceError(CodeFailedPrecondition, err, ReasonFailedPreconditionMaxSupplyExceeded)
}

func FailedPreconditionNotFrozen(err error) error {
	return newServiceError(CodeFailedPrecondition, err, ReasonFailedPreconditionNotFrozen)
}

func FailedPreconditionNotFreezable(err error) error {
	return newServiceError(CodeFailedPrecondition, err, ReasonFailedPreconditionNotFreezable)
}

func FailedPreconditionOverflow(err error) error {
	return newServiceError(CodeFailedPrecondition, err, ReasonFailedPreconditionOverflow)
}

func AlreadyExistsDuplicateAsset(err error) error {
	return newServiceError(CodeAlreadyExists, err, ReasonAlreadyExistsDuplicateAsset)
}

func NotFoundMissingAsset(err error) error {
	return newServiceError(CodeNotFound, err, ReasonNotFoundMissingAsset)
}

func NotFoundMissingUnit(err error) error {
	return newServiceError(CodeNotFound, err, ReasonNotFoundMissingUnit)
}

func InternalConservationViolation(err error) error {
	return newServiceError(CodeInternal, err, ReasonInternalConservationViolation)
}

func RateLimitExceededError() error {
	return newServiceError(CodeResourceExhausted, fmt.Errorf("rate limit exceeded"), ReasonResourceExhaustedRateLimitExceeded)
}

// ------------------------------------------------------------
// Reason-less constructors for errors that need no machine-readable
// classification beyond their code.
// ------------------------------------------------------------

func InvalidUserInputErrorf(format string, args ...any) error {
	return newServiceError(CodeInvalidArgument, fmt.Errorf(format, args...), "")
}

func FailedPreconditionErrorf(format string, args ...any) error {
	return newServiceError(CodeFailedPrecondition, fmt.Errorf(format, args...), "")
}

func NotFoundErrorf(format string, args ...any) error {
	return newServiceError(CodeNotFound, fmt.Errorf(format, args...), "")
}

func AlreadyExistsErrorf(format string, args ...any) error {
	return newServiceError(CodeAlreadyExists, fmt.Errorf(format, args...), "")
}

func ResourceExhaustedErrorf(format string, args ...any) error {
	return newServiceError(CodeResourceExhausted, fmt.Errorf(format, args...), "")
}

func UnavailableErrorf(format string, args ...any) error {
	return newServiceError(CodeUnavailable, fmt.Errorf(format, args...), "")
}

func InternalErrorf(format string, args ...any) error {
	return newServiceError(CodeInternal, fmt.Errorf(format, args...), "")
}
