package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coinagedev/coinage/common/logging"
)

// Envelope is the JSON body of every non-2xx response.
type Envelope struct {
	Error Body `json:"error"`
}

// Body carries the stable code and reason plus a human-readable message.
type Body struct {
	Code    Code   `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// HTTPStatus maps a code onto the status the HTTP surface responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeFailedPrecondition:
		return http.StatusConflict
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP classifies err and renders it as a JSON envelope. Messages of
// internal errors are masked unless detailedErrors is set, to avoid
// leaking sensitive information.
func WriteHTTP(ctx context.Context, w http.ResponseWriter, err error, detailedErrors bool) {
	svc := toServiceError(err)
	code, reason := CodeAndReasonFrom(svc)

	message := svc.Error()
	if code == CodeInternal {
		logger := logging.GetLoggerFromContext(ctx)
		logger.Error("request failed with internal error", "error", err)
		if !detailedErrors {
			message = "Something went wrong."
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(Envelope{Error: Body{
		Code:    code,
		Reason:  reason,
		Message: message,
	}})
}

// FromEnvelope reconstructs the service error a decoded envelope describes,
// so API clients surface errors CodeAndReasonFrom can classify.
func FromEnvelope(e Envelope) error {
	return newServiceError(e.Error.Code, errors.New(e.Error.Message), e.Error.Reason)
}
