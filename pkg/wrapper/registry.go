package wrapper

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/morezero/dialect-gateway/pkg/semver"
)

const registryLogPrefix = "wrapper:registry"

// Entry is one registered dialect.
type Entry struct {
	Name        string
	Version     string
	Description string
	Constructor Constructor
}

// Registry maps dialect names to wrapper constructors. Registration is
// serialized; lookups read an immutable snapshot and never lock.
type Registry struct {
	mu    sync.Mutex
	table atomic.Pointer[map[string]Entry]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]Entry{}
	r.table.Store(&empty)
	return r
}

// RegisterOption configures a single Register call.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	override    bool
	version     string
	description string
}

// WithOverride replaces an existing registration instead of failing.
func WithOverride() RegisterOption {
	return func(o *registerOptions) { o.override = true }
}

// WithVersion sets the dialect version matched by selectors like "name@^1".
func WithVersion(v string) RegisterOption {
	return func(o *registerOptions) { o.version = v }
}

// WithDescription attaches a human-readable description.
func WithDescription(d string) RegisterOption {
	return func(o *registerOptions) { o.description = d }
}

// Register binds name to ctor. It fails with ErrDuplicateName when name is
// taken (unless WithOverride is given) and with ErrInvalidAdapter when ctor
// does not yield a Wrapper for a nil request context.
func (r *Registry) Register(name string, ctor Constructor, opts ...RegisterOption) error {
	o := &registerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if !semver.ValidateDialectName(name) {
		return NewWrapperError(CodeInvalidAdapter, "invalid dialect name %q", name)
	}
	if err := probe(name, ctor); err != nil {
		return err
	}
	version, err := semver.NormalizeVersion(o.version)
	if err != nil {
		return &WrapperError{Code: CodeInvalidAdapter, Message: fmt.Sprintf("dialect %q", name), Cause: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.table.Load()
	if _, exists := cur[name]; exists && !o.override {
		return NewWrapperError(CodeDuplicateName, "%s is already a registered dialect, try a new name", name)
	}

	next := make(map[string]Entry, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[name] = Entry{Name: name, Version: version, Description: o.description, Constructor: ctor}
	r.table.Store(&next)

	slog.Debug(fmt.Sprintf("%s - registered dialect %s@%s", registryLogPrefix, name, version))
	return nil
}

// probe constructs a wrapper against a nil context.
func probe(name string, ctor Constructor) (err error) {
	if ctor == nil {
		return NewWrapperError(CodeInvalidAdapter, "dialect %q has no constructor", name)
	}
	defer func() {
		if p := recover(); p != nil {
			err = NewWrapperError(CodeInvalidAdapter, "constructor for %q panicked: %v", name, p)
		}
	}()
	if w := ctor(nil); isNil(w) {
		return NewWrapperError(CodeInvalidAdapter, "constructor for %q returned no wrapper", name)
	}
	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	e, ok := (*r.table.Load())[name]
	if !ok {
		return nil, false
	}
	return e.Constructor, true
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := (*r.table.Load())[name]
	return ok
}

// Snapshot returns a copy of the name to constructor table.
func (r *Registry) Snapshot() map[string]Constructor {
	cur := *r.table.Load()
	out := make(map[string]Constructor, len(cur))
	for k, v := range cur {
		out[k] = v.Constructor
	}
	return out
}

// Entries returns all registrations sorted by name.
func (r *Registry) Entries() []Entry {
	cur := *r.table.Load()
	out := make([]Entry, 0, len(cur))
	for _, e := range cur {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select resolves a selector such as "extjsdirect" or "extjsdirect@^1"
// to a registered entry.
func (r *Registry) Select(selector string) (Entry, error) {
	sel, err := semver.ParseSelector(selector)
	if err != nil {
		return Entry{}, &WrapperError{Code: CodeUnknownDialect, Message: fmt.Sprintf("invalid dialect selector %q", selector), Cause: err}
	}
	e, ok := (*r.table.Load())[sel.Name]
	if !ok {
		return Entry{}, NewWrapperError(CodeUnknownDialect, "unknown dialect %q", sel.Name)
	}
	if !semver.SatisfiesRange(e.Version, sel.Range) {
		return Entry{}, NewWrapperError(CodeUnknownDialect, "dialect %s@%s does not satisfy %q", e.Name, e.Version, sel.Range)
	}
	return e, nil
}

// New resolves selector and constructs a wrapper bound to rc.
func (r *Registry) New(selector string, rc *RequestContext) (Wrapper, error) {
	e, err := r.Select(selector)
	if err != nil {
		return nil, err
	}
	if rc != nil && rc.Dialect == "" {
		rc.Dialect = e.Name
	}
	return e.Constructor(rc), nil
}
