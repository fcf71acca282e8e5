package wrapper

import (
	"errors"
	"fmt"

	"github.com/morezero/dialect-gateway/pkg/session"
)

// Error codes carried by WrapperError.
const (
	CodeMalformedRequest     = "MALFORMED_REQUEST"
	CodeInvalidArgumentShape = "INVALID_ARGUMENT_SHAPE"
	CodeInvalidErrorShape    = "INVALID_ERROR_SHAPE"
	CodeResultShape          = "RESULT_SHAPE"
	CodeDuplicateName        = "DUPLICATE_NAME"
	CodeInvalidAdapter       = "INVALID_ADAPTER"
	CodeLedgerUnderflow      = "LEDGER_UNDERFLOW"
	CodeNoSession            = "NO_SESSION"
	CodeUnknownDialect       = "UNKNOWN_DIALECT"
)

// Sentinels for errors.Is. Every WrapperError matches the sentinel of its code.
var (
	ErrMalformedRequest     = errors.New("malformed request")
	ErrInvalidArgumentShape = errors.New("invalid argument shape")
	ErrInvalidErrorShape    = errors.New("invalid error shape")
	ErrResultShape          = errors.New("result is not a sized sequence")
	ErrDuplicateName        = errors.New("duplicate wrapper name")
	ErrInvalidAdapter       = errors.New("invalid adapter")
	ErrLedgerUnderflow      = session.ErrLedgerUnderflow
	ErrNoSession            = errors.New("wrapper requires a session")
	ErrUnknownDialect       = errors.New("unknown dialect")
)

var codeSentinels = map[string]error{
	CodeMalformedRequest:     ErrMalformedRequest,
	CodeInvalidArgumentShape: ErrInvalidArgumentShape,
	CodeInvalidErrorShape:    ErrInvalidErrorShape,
	CodeResultShape:          ErrResultShape,
	CodeDuplicateName:        ErrDuplicateName,
	CodeInvalidAdapter:       ErrInvalidAdapter,
	CodeLedgerUnderflow:      ErrLedgerUnderflow,
	CodeNoSession:            ErrNoSession,
	CodeUnknownDialect:       ErrUnknownDialect,
}

// WrapperError is a structured error raised by the wrapper subsystem.
type WrapperError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *WrapperError) Error() string {
	if e.Cause != nil {
		return e.Code + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code + ": " + e.Message
}

// Is matches the sentinel registered for the error's code.
func (e *WrapperError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}

func (e *WrapperError) Unwrap() error {
	return e.Cause
}

// NewWrapperError creates a WrapperError with a formatted message.
func NewWrapperError(code, format string, args ...any) *WrapperError {
	return &WrapperError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) *WrapperError {
	return NewWrapperError(CodeMalformedRequest, format, args...)
}

// Fault is an application error returned by a call handler. It is the Go
// form of the (message, detail) error pair understood by the ExtJS dialects.
type Fault struct {
	Message string         `json:"message"`
	Code    int            `json:"code,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
}

func (f *Fault) Error() string {
	if f.Code != 0 {
		return fmt.Sprintf("%s (code %d)", f.Message, f.Code)
	}
	return f.Message
}

// NewFault creates a Fault carrying per-field detail, e.g. form validation
// messages keyed by field name.
func NewFault(message string, detail map[string]any) *Fault {
	return &Fault{Message: message, Detail: detail}
}
