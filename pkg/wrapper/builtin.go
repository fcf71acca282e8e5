package wrapper

import "fmt"

// Built-in dialect names. These are the wire-level values of the _type field.
const (
	DialectDefault     = "default"
	DialectExtJSForm   = "extjsform"
	DialectExtJSStore  = "extjsstore"
	DialectExtJSDirect = "extjsdirect"
)

var builtins = []struct {
	name        string
	ctor        Constructor
	description string
}{
	{DialectDefault, NewDefaultWrapper, "Pass-through {success, result|error} envelope"},
	{DialectExtJSForm, NewFormWrapper, "ExtJS form submit/load {success, data|msg}"},
	{DialectExtJSStore, NewStoreWrapper, "ExtJS store reader {success, rows, results}"},
	{DialectExtJSDirect, NewDirectWrapper, "ExtJS Direct remoting with batched calls"},
}

// RegisterBuiltins registers the four built-in dialects on r.
func RegisterBuiltins(r *Registry) error {
	for _, b := range builtins {
		if err := r.Register(b.name, b.ctor, WithDescription(b.description)); err != nil {
			return fmt.Errorf("%s - register %s: %w", registryLogPrefix, b.name, err)
		}
	}
	return nil
}

// NewDefaultRegistry returns a registry holding the built-in dialects.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		return nil, err
	}
	return r, nil
}
