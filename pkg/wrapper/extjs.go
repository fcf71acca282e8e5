package wrapper

import "fmt"

// BuildError renders a call error in the ExtJS shape shared by the form,
// store and direct dialects. Accepted inputs:
//
//	"message"                      -> {msg}
//	[]any{"message"}               -> {msg}
//	[]any{"message", map[...]...}  -> {msg, error: detail}
//	*Fault                         -> {msg[, error: detail]}
//	error                          -> {msg: err.Error()}
//
// Anything else fails with ErrInvalidErrorShape.
func BuildError(callErr any) (Payload, error) {
	switch e := callErr.(type) {
	case string:
		return Payload{"msg": e}, nil
	case *Fault:
		p := Payload{"msg": e.Message}
		if e.Detail != nil {
			p["error"] = e.Detail
		}
		return p, nil
	case error:
		return Payload{"msg": e.Error()}, nil
	}

	pair, ok := asSequence(callErr)
	if !ok {
		return nil, NewWrapperError(CodeInvalidErrorShape, "unsupported error value of type %T", callErr)
	}
	switch len(pair) {
	case 1:
		msg, ok := pair[0].(string)
		if !ok {
			return nil, NewWrapperError(CodeInvalidErrorShape, "error message must be a string, got %T", pair[0])
		}
		return Payload{"msg": msg}, nil
	case 2:
		msg, ok := pair[0].(string)
		if !ok {
			return nil, NewWrapperError(CodeInvalidErrorShape, "error message must be a string, got %T", pair[0])
		}
		detail, ok := asMapping(pair[1])
		if !ok {
			return nil, NewWrapperError(CodeInvalidErrorShape, "error detail must be a mapping, got %T", pair[1])
		}
		return Payload{"msg": msg, "error": detail}, nil
	}
	return nil, NewWrapperError(CodeInvalidErrorShape, "error pair must have 1 or 2 elements, got %d", len(pair))
}

// resultFields adds a dialect's success fields for a non-nil result.
type resultFields func(p Payload, result any) error

// buildExtJS is the build step shared by the form and store dialects.
func buildExtJS(callErr, result any, fields resultFields) (Payload, error) {
	if !isFalsy(callErr) {
		p, err := BuildError(callErr)
		if err != nil {
			return nil, err
		}
		p["success"] = false
		return p, nil
	}

	p := Payload{"success": true}
	if !isNil(result) {
		if err := fields(p, result); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FormWrapper speaks the ExtJS form submit/load dialect:
//
//	{"success": true, "data": ...}
//	{"success": false, "msg": "...", "error": {...}}
type FormWrapper struct{}

// NewFormWrapper constructs a FormWrapper.
func NewFormWrapper(_ *RequestContext) Wrapper {
	return &FormWrapper{}
}

// Parse returns the request as a single call.
func (w *FormWrapper) Parse(items Items) ([]Call, error) {
	c, err := callFromItems(items)
	if err != nil {
		return nil, err
	}
	return []Call{c}, nil
}

// Build encodes the call outcome.
func (w *FormWrapper) Build(callErr any, result any) (Payload, error) {
	return buildExtJS(callErr, result, func(p Payload, result any) error {
		p["data"] = result
		return nil
	})
}

// StoreWrapper speaks the ExtJS data store reader dialect:
//
//	{"success": true, "rows": [...], "results": n}
type StoreWrapper struct{}

// NewStoreWrapper constructs a StoreWrapper.
func NewStoreWrapper(_ *RequestContext) Wrapper {
	return &StoreWrapper{}
}

// Parse returns the request as a single call.
func (w *StoreWrapper) Parse(items Items) ([]Call, error) {
	c, err := callFromItems(items)
	if err != nil {
		return nil, err
	}
	return []Call{c}, nil
}

// Build encodes the call outcome. A successful result must be a slice.
func (w *StoreWrapper) Build(callErr any, result any) (Payload, error) {
	return buildExtJS(callErr, result, func(p Payload, result any) error {
		n, ok := sizeOf(result)
		if !ok {
			return &WrapperError{Code: CodeResultShape, Message: fmt.Sprintf("store result must be a sequence, got %T", result)}
		}
		p["rows"] = result
		p["results"] = n
		return nil
	})
}
