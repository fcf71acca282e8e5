package dispatcher

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

func TestRegisterSystemMethods(t *testing.T) {
	reg, _ := wrapper.NewDefaultRegistry()
	d := NewDispatcher(nil)
	if err := RegisterSystemMethods(d, reg); err != nil {
		t.Fatalf("dispatcher:system_test - unexpected error: %v", err)
	}
	if err := RegisterSystemMethods(d, reg); err == nil {
		t.Error("dispatcher:system_test - second registration should fail")
	}

	want := []string{MethodDialects, MethodEcho, MethodMethods, MethodPing}
	if diff := cmp.Diff(want, d.Methods()); diff != "" {
		t.Errorf("dispatcher:system_test - Methods mismatch (-want +got):\n%s", diff)
	}

	callErr, result := d.Invoke(context.Background(), wrapper.Call{Name: MethodEcho, Arguments: map[string]any{"a": "b"}})
	if callErr != nil {
		t.Fatalf("dispatcher:system_test - echo failed: %v", callErr)
	}
	if diff := cmp.Diff(map[string]any{"a": "b"}, result); diff != "" {
		t.Errorf("dispatcher:system_test - echo mismatch (-want +got):\n%s", diff)
	}

	_, result = d.Invoke(context.Background(), wrapper.Call{Name: MethodPing})
	if m, ok := result.(map[string]any); !ok || m["pong"] != true {
		t.Errorf("dispatcher:system_test - ping = %v", result)
	}

	_, result = d.Invoke(context.Background(), wrapper.Call{Name: MethodDialects})
	dialects, ok := result.([]DialectInfo)
	if !ok || len(dialects) != 4 {
		t.Fatalf("dispatcher:system_test - dialects = %v", result)
	}
	if dialects[0].Name != "default" || dialects[0].Version != "1.0.0" {
		t.Errorf("dispatcher:system_test - first dialect = %+v", dialects[0])
	}
}
