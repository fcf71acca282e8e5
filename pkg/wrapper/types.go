// Package wrapper transcodes between client wire dialects and canonical
// calls. A Wrapper parses a decoded request into one or more Calls and builds
// each (error, result) pair back into the dialect's response shape.
package wrapper

import "github.com/morezero/dialect-gateway/pkg/session"

// Reserved request fields.
const (
	FieldCall = "_call"
	FieldType = "_type"
)

// Call is the dialect-neutral form of one remote invocation.
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Items is a decoded request payload: form fields or a JSON object.
type Items map[string]any

// Payload is a response value in a dialect's wire shape.
type Payload map[string]any

// RequestContext is handed to a wrapper constructor. A nil *RequestContext is
// valid and is what the registry uses to probe constructors.
type RequestContext struct {
	Dialect string
	Session *session.Session
}

// SessionOf returns the session carried by rc, or nil.
func SessionOf(rc *RequestContext) *session.Session {
	if rc == nil {
		return nil
	}
	return rc.Session
}

// Wrapper converts one dialect's wire shape to and from canonical calls.
type Wrapper interface {
	// Parse converts a decoded request into canonical calls, at least one
	// for well-formed input.
	Parse(items Items) ([]Call, error)
	// Build encodes the outcome of one call. callErr is nil (or otherwise
	// falsy) on success.
	Build(callErr any, result any) (Payload, error)
}

// Constructor creates a Wrapper bound to one request.
type Constructor func(rc *RequestContext) Wrapper
