package wrapper

import (
	"encoding/json"
	"fmt"
)

// DefaultWrapper is the pass-through dialect: the request's "_call" field
// names the method and every other field is an argument.
//
//	{"success": true, "result": ...}
//	{"success": false, "error": ...}
type DefaultWrapper struct{}

// NewDefaultWrapper constructs a DefaultWrapper.
func NewDefaultWrapper(_ *RequestContext) Wrapper {
	return &DefaultWrapper{}
}

// Parse returns the request as a single call.
func (w *DefaultWrapper) Parse(items Items) ([]Call, error) {
	c, err := callFromItems(items)
	if err != nil {
		return nil, err
	}
	return []Call{c}, nil
}

// Build encodes the call outcome. result is omitted when nil.
func (w *DefaultWrapper) Build(callErr any, result any) (Payload, error) {
	p := Payload{}
	if isFalsy(callErr) {
		p["success"] = true
	} else {
		p["success"] = false
		p["error"] = errorValue(callErr)
	}
	if !isNil(result) {
		p["result"] = result
	}
	return p, nil
}

// callFromItems copies a flat request into a Call without mutating it.
func callFromItems(items Items) (Call, error) {
	if items == nil {
		return Call{}, malformed("request has no fields")
	}
	name, _ := items[FieldCall].(string)
	if name == "" {
		return Call{}, malformed("missing %s field", FieldCall)
	}
	args := make(map[string]any, len(items))
	for k, v := range items {
		if k == FieldCall || k == FieldType {
			continue
		}
		args[k] = v
	}
	return Call{Name: name, Arguments: args}, nil
}

// errorValue renders an error for the default dialect.
func errorValue(callErr any) any {
	switch e := callErr.(type) {
	case *Fault:
		p := Payload{"message": e.Message}
		if e.Code != 0 {
			p["code"] = e.Code
		}
		if e.Detail != nil {
			p["detail"] = e.Detail
		}
		return p
	case error:
		return e.Error()
	}
	return callErr
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64, int, int64, bool, json.Number:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
