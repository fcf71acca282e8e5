// Package dispatcher invokes canonical calls against registered handlers and
// drives the parse, invoke and build pipeline for one request.
package dispatcher

import (
	"errors"

	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

// InvokeRequest is the JSON envelope for requests arriving on the COMMS
// invoke subject. Items is the decoded wire payload for the dialect in Type.
type InvokeRequest struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Items     map[string]any `json:"items"`
}

// InvokeResponse is the JSON envelope for COMMS invoke replies.
type InvokeResponse struct {
	ID       string            `json:"id"`
	Ok       bool              `json:"ok"`
	Payloads []wrapper.Payload `json:"payloads,omitempty"`
	Error    *ErrorDetail      `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// Error codes produced outside the wrapper taxonomy.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeLedgerLeak      = "LEDGER_LEAK"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetailFor maps err onto an ErrorDetail. Wrapper errors keep their code
// and message; anything unrecognised is an internal error and retryable.
func ErrorDetailFor(err error) *ErrorDetail {
	var we *wrapper.WrapperError
	switch {
	case errors.As(err, &we):
		return &ErrorDetail{Code: we.Code, Message: we.Message}
	case errors.Is(err, ErrLedgerLeak):
		return &ErrorDetail{Code: CodeLedgerLeak, Message: err.Error()}
	default:
		return &ErrorDetail{Code: CodeInternal, Message: err.Error(), Retryable: true}
	}
}

func errorResponse(id, code, message string, retryable bool) *InvokeResponse {
	return &InvokeResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
