package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/morezero/dialect-gateway/pkg/events"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const logPrefix = "dispatcher:dispatch"

// HandlerFunc serves one named method. A returned *wrapper.Fault reaches the
// client with its detail; any other error is reported by message only.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Recorder persists completed calls, e.g. to the call log.
type Recorder interface {
	RecordCall(ctx context.Context, event *events.CallCompletedEvent) error
}

// Options configures a Dispatcher. Nil fields use no-op defaults.
type Options struct {
	Publisher events.EventPublisher
	Recorder  Recorder
}

// Dispatcher routes canonical calls to registered handlers.
type Dispatcher struct {
	mu        sync.RWMutex
	methods   map[string]HandlerFunc
	publisher events.EventPublisher
	recorder  Recorder
}

// NewDispatcher creates a Dispatcher with an empty method table.
func NewDispatcher(opts *Options) *Dispatcher {
	d := &Dispatcher{
		methods:   make(map[string]HandlerFunc),
		publisher: &events.NoOpPublisher{},
	}
	if opts != nil {
		if opts.Publisher != nil {
			d.publisher = opts.Publisher
		}
		d.recorder = opts.Recorder
	}
	return d
}

// Register binds name to fn. Names are unique.
func (d *Dispatcher) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("%s - method name is required", logPrefix)
	}
	if fn == nil {
		return fmt.Errorf("%s - method %s has no handler", logPrefix, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.methods[name]; exists {
		return fmt.Errorf("%s - method %s is already registered", logPrefix, name)
	}
	d.methods[name] = fn
	slog.Debug(fmt.Sprintf("%s - registered method %s", logPrefix, name))
	return nil
}

// Methods returns the registered method names, sorted.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.methods))
	for name := range d.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Invoke runs one call and returns the dialect-neutral (error, result) pair
// handed to Wrapper.Build. callErr is nil on success.
func (d *Dispatcher) Invoke(ctx context.Context, call wrapper.Call) (callErr any, result any) {
	slog.Debug(fmt.Sprintf("%s - method=%s", logPrefix, call.Name))

	d.mu.RLock()
	fn, ok := d.methods[call.Name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("Unknown method: %s", call.Name), nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("Request cancelled: %v", err), nil
	}

	res, err := d.call(ctx, fn, call)
	if err != nil {
		var fault *wrapper.Fault
		if errors.As(err, &fault) {
			return fault, nil
		}
		return err.Error(), nil
	}
	return nil, res
}

func (d *Dispatcher) call(ctx context.Context, fn HandlerFunc, call wrapper.Call) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error(fmt.Sprintf("%s - method %s panicked: %v", logPrefix, call.Name, p))
			res, err = nil, fmt.Errorf("Internal error in %s", call.Name)
		}
	}()
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return fn(ctx, args)
}
