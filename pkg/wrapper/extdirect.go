package wrapper

import (
	"encoding/json"

	"github.com/morezero/dialect-gateway/pkg/session"
)

// Ext Direct request fields.
const (
	directFormMethod = "extMethod"
	directFormTID    = "extTID"
	directFormAction = "extAction"
	directFormType   = "extType"

	directMethod = "method"
	directTID    = "tid"
	directAction = "action"
	directType   = "type"
	directData   = "data"
)

// DirectWrapper speaks the ExtJS Direct remoting dialect. One HTTP request
// may carry a batch of calls; the routing fields of each call (tid, action,
// method, type) are queued on the session ledger by Parse and consumed by
// Build in the same order.
type DirectWrapper struct {
	session *session.Session
}

// NewDirectWrapper constructs a DirectWrapper bound to the request's session.
func NewDirectWrapper(rc *RequestContext) Wrapper {
	return &DirectWrapper{session: SessionOf(rc)}
}

// Parse decodes a single Direct call or a batch. A batch arrives as one form
// field whose key is the JSON body and whose value is empty. Nothing is
// queued on the ledger unless every item parses.
func (w *DirectWrapper) Parse(items Items) ([]Call, error) {
	if w.session == nil {
		return nil, NewWrapperError(CodeNoSession, "extjsdirect needs a session to correlate calls")
	}

	var raw []map[string]any
	if len(items) == 1 {
		body, ok := batchBody(items)
		if !ok {
			return nil, malformed("a single field must carry a batch body as its key")
		}
		decoded, err := decodeBatch(body)
		if err != nil {
			return nil, err
		}
		raw = decoded
	} else {
		raw = []map[string]any{items}
	}

	calls := make([]Call, 0, len(raw))
	entries := make([]session.LedgerEntry, 0, len(raw))
	for _, data := range raw {
		c, e, err := parseDirectItem(data)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
		entries = append(entries, e)
	}

	ledger := w.session.Ledger()
	for _, e := range entries {
		ledger.Push(e)
	}
	return calls, nil
}

// batchBody reports whether items is a single key with an empty value.
func batchBody(items Items) (string, bool) {
	if len(items) != 1 {
		return "", false
	}
	for k, v := range items {
		if s, ok := v.(string); ok && s == "" {
			return k, true
		}
	}
	return "", false
}

func decodeBatch(body string) ([]map[string]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, &WrapperError{Code: CodeMalformedRequest, Message: "batch body is not valid JSON", Cause: err}
	}

	if m, ok := decoded.(map[string]any); ok {
		return []map[string]any{m}, nil
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, malformed("unsupported batch body of type %T", decoded)
	}
	out := make([]map[string]any, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, malformed("batch element %d is %T, not an object", i, v)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, malformed("empty batch")
	}
	return out, nil
}

// parseDirectItem turns one Direct request object into a call and the
// ledger entry its response will need.
func parseDirectItem(data map[string]any) (Call, session.LedgerEntry, error) {
	if _, ok := data[directFormMethod]; ok {
		method := stringField(data, directFormMethod)
		if method == "" {
			return Call{}, session.LedgerEntry{}, malformed("empty %s", directFormMethod)
		}
		entry := session.LedgerEntry{
			FormHandler:   true,
			Type:          stringField(data, directFormType),
			Action:        stringField(data, directFormAction),
			Method:        method,
			TransactionID: transactionID(data, directFormTID),
		}
		args := make(map[string]any, len(data))
		for k, v := range data {
			switch k {
			case directFormMethod, directFormTID, directFormAction, directFormType:
				continue
			}
			args[k] = v
		}
		return Call{Name: method, Arguments: args}, entry, nil
	}

	method := stringField(data, directMethod)
	if method == "" {
		return Call{}, session.LedgerEntry{}, malformed("missing %s", directMethod)
	}
	args, err := directArguments(data[directData])
	if err != nil {
		return Call{}, session.LedgerEntry{}, err
	}
	entry := session.LedgerEntry{
		FormHandler:   false,
		Type:          stringField(data, directType),
		Action:        stringField(data, directAction),
		Method:        method,
		TransactionID: transactionID(data, directTID),
	}
	return Call{Name: method, Arguments: args}, entry, nil
}

// directArguments extracts named arguments from the first element of the
// data array. Absent or empty data means no arguments.
func directArguments(data any) (map[string]any, error) {
	if isFalsy(data) {
		return map[string]any{}, nil
	}
	list, ok := asSequence(data)
	if !ok {
		return nil, NewWrapperError(CodeInvalidArgumentShape, "data must be an array of key/value arguments, got %T", data)
	}
	if len(list) == 0 {
		return map[string]any{}, nil
	}
	first, ok := asMapping(list[0])
	if !ok {
		return nil, NewWrapperError(CodeInvalidArgumentShape, "data must be an array of key/value arguments, first element is %T", list[0])
	}
	args := make(map[string]any, len(first))
	for k, v := range first {
		args[k] = v
	}
	return args, nil
}

// transactionID keeps the client's tid as decoded so it echoes back with the
// same JSON type.
func transactionID(data map[string]any, key string) any {
	if v, ok := data[key]; ok && v != nil {
		return v
	}
	return ""
}

// Build pops the oldest ledger entry and encodes the call outcome with its
// routing fields. The entry is consumed even when the error cannot be
// encoded. Errors on structured calls are reported as Direct
// exception events, which carry no tid.
func (w *DirectWrapper) Build(callErr any, result any) (Payload, error) {
	if w.session == nil {
		return nil, NewWrapperError(CodeNoSession, "extjsdirect needs a session to correlate calls")
	}

	entry, err := w.session.Ledger().Pop()
	if err != nil {
		return nil, &WrapperError{Code: CodeLedgerUnderflow, Message: "build without matching parse", Cause: err}
	}

	var errPayload Payload
	failed := !isFalsy(callErr)
	if failed {
		p, err := BuildError(callErr)
		if err != nil {
			return nil, err
		}
		errPayload = p
	}

	if entry.FormHandler {
		res := Payload{}
		if failed {
			for k, v := range errPayload {
				res[k] = v
			}
			res["success"] = false
		} else {
			res["success"] = true
			res["data"] = result
		}
		return Payload{
			"result": res,
			"type":   entry.Type,
			"tid":    entry.TransactionID,
			"action": entry.Action,
			"method": entry.Method,
		}, nil
	}

	if failed {
		return Payload{
			"type":    "exception",
			"message": errPayload["msg"],
			"where":   "n/a",
		}, nil
	}
	return Payload{
		"result": result,
		"type":   entry.Type,
		"tid":    entry.TransactionID,
		"action": entry.Action,
		"method": entry.Method,
	}, nil
}
