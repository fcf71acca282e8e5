package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

// System method names.
const (
	MethodPing     = "system.ping"
	MethodEcho     = "system.echo"
	MethodDialects = "system.dialects"
	MethodMethods  = "system.methods"
)

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// RegisterSystemMethods adds the introspection methods served by every
// gateway.
func RegisterSystemMethods(d *Dispatcher, reg *wrapper.Registry) error {
	handlers := []struct {
		name string
		fn   HandlerFunc
	}{
		{MethodPing, func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"pong": true, "time": time.Now().UTC().Format(time.RFC3339)}, nil
		}},
		{MethodEcho, func(_ context.Context, args map[string]any) (any, error) {
			return args, nil
		}},
		{MethodDialects, func(_ context.Context, _ map[string]any) (any, error) {
			return ListDialects(reg), nil
		}},
		{MethodMethods, func(_ context.Context, _ map[string]any) (any, error) {
			return d.Methods(), nil
		}},
	}
	for _, h := range handlers {
		if err := d.Register(h.name, h.fn); err != nil {
			return fmt.Errorf("%s - %w", logPrefix, err)
		}
	}
	return nil
}

// ListDialects returns the registry contents sorted by name.
func ListDialects(reg *wrapper.Registry) []DialectInfo {
	entries := reg.Entries()
	out := make([]DialectInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, DialectInfo{Name: e.Name, Version: e.Version, Description: e.Description})
	}
	return out
}
