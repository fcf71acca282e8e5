package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/dialect-gateway/pkg/events"
	"github.com/morezero/dialect-gateway/pkg/session"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []*events.CallCompletedEvent
}

func (r *recordingRecorder) RecordCall(_ context.Context, ev *events.CallCompletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newTestDispatcher(t *testing.T, opts *Options) *Dispatcher {
	t.Helper()
	d := NewDispatcher(opts)
	_ = d.Register("getUser", func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"id": args["id"], "name": "Ada"}, nil
	})
	_ = d.Register("save", func(context.Context, map[string]any) (any, error) {
		return nil, wrapper.NewFault("Validation failed", map[string]any{"name": "required"})
	})
	return d
}

func newDirect(t *testing.T) (wrapper.Wrapper, *wrapper.RequestContext) {
	t.Helper()
	rc := &wrapper.RequestContext{Dialect: "extjsdirect", Session: session.New("s-1")}
	return wrapper.NewDirectWrapper(rc), rc
}

func TestProcess_DirectBatch(t *testing.T) {
	var published []*events.CallCompletedEvent
	rec := &recordingRecorder{}
	d := newTestDispatcher(t, &Options{
		Publisher: events.NewCallbackPublisher(func(_ context.Context, ev *events.CallCompletedEvent) error {
			published = append(published, ev)
			return nil
		}),
		Recorder: rec,
	})
	w, rc := newDirect(t)

	body := `[{"action":"User","method":"getUser","tid":1,"type":"rpc","data":[{"id":42}]},` +
		`{"action":"User","method":"unknown","tid":2,"type":"rpc","data":[{}]}]`
	payloads, err := d.Process(context.Background(), w, rc, wrapper.Items{body: ""})
	if err != nil {
		t.Fatalf("dispatcher:pipeline_test - unexpected error: %v", err)
	}

	want := []wrapper.Payload{
		{
			"result": map[string]any{"id": float64(42), "name": "Ada"},
			"type":   "rpc",
			"tid":    float64(1),
			"action": "User",
			"method": "getUser",
		},
		{
			"type":    "exception",
			"message": "Unknown method: unknown",
			"where":   "n/a",
		},
	}
	if diff := cmp.Diff(want, payloads); diff != "" {
		t.Errorf("dispatcher:pipeline_test - payload mismatch (-want +got):\n%s", diff)
	}
	if !rc.Session.Ledger().Empty() {
		t.Error("dispatcher:pipeline_test - ledger not drained")
	}

	if len(published) != 2 || len(rec.events) != 2 {
		t.Fatalf("dispatcher:pipeline_test - published %d, recorded %d; want 2 each", len(published), len(rec.events))
	}
	if ev := published[0]; ev.Method != "getUser" || !ev.Success || ev.Dialect != "extjsdirect" || ev.SessionID != "s-1" {
		t.Errorf("dispatcher:pipeline_test - first event = %+v", ev)
	}
	if ev := published[1]; ev.Success || ev.Error != "Unknown method: unknown" {
		t.Errorf("dispatcher:pipeline_test - second event = %+v", ev)
	}
}

func TestProcess_FormFault(t *testing.T) {
	d := newTestDispatcher(t, nil)
	payloads, err := d.Process(context.Background(), wrapper.NewFormWrapper(nil), nil, wrapper.Items{"_call": "save", "name": ""})
	if err != nil {
		t.Fatalf("dispatcher:pipeline_test - unexpected error: %v", err)
	}
	want := []wrapper.Payload{{
		"success": false,
		"msg":     "Validation failed",
		"error":   map[string]any{"name": "required"},
	}}
	if diff := cmp.Diff(want, payloads); diff != "" {
		t.Errorf("dispatcher:pipeline_test - payload mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_ParseErrorDiscardsLedger(t *testing.T) {
	d := newTestDispatcher(t, nil)
	w, rc := newDirect(t)
	rc.Session.Ledger().Push(session.LedgerEntry{Method: "stale"})

	_, err := d.Process(context.Background(), w, rc, wrapper.Items{"action": "User"})
	if !errors.Is(err, wrapper.ErrMalformedRequest) {
		t.Fatalf("dispatcher:pipeline_test - err = %v, want ErrMalformedRequest", err)
	}
	if !rc.Session.Ledger().Empty() {
		t.Error("dispatcher:pipeline_test - ledger not discarded after parse error")
	}
}

// leakyWrapper queues one extra ledger entry per parse.
type leakyWrapper struct {
	wrapper.Wrapper
	sess *session.Session
}

func (w *leakyWrapper) Parse(items wrapper.Items) ([]wrapper.Call, error) {
	calls, err := w.Wrapper.Parse(items)
	if err == nil {
		w.sess.Ledger().Push(session.LedgerEntry{Method: "extra"})
	}
	return calls, err
}

func TestProcess_LedgerLeak(t *testing.T) {
	d := newTestDispatcher(t, nil)
	inner, rc := newDirect(t)
	w := &leakyWrapper{Wrapper: inner, sess: rc.Session}

	payloads, err := d.Process(context.Background(), w, rc, wrapper.Items{
		"action": "User", "method": "getUser", "tid": float64(1), "type": "rpc", "data": []any{map[string]any{"id": 1}},
	})
	if !errors.Is(err, ErrLedgerLeak) {
		t.Fatalf("dispatcher:pipeline_test - err = %v, want ErrLedgerLeak", err)
	}
	if len(payloads) != 1 {
		t.Errorf("dispatcher:pipeline_test - got %d payloads, want 1", len(payloads))
	}
	if !rc.Session.Ledger().Empty() {
		t.Error("dispatcher:pipeline_test - leaked entries were not discarded")
	}
}

func TestHandle(t *testing.T) {
	reg, err := wrapper.NewDefaultRegistry()
	if err != nil {
		t.Fatalf("dispatcher:pipeline_test - registry: %v", err)
	}
	d := newTestDispatcher(t, nil)

	tests := []struct {
		name     string
		req      *InvokeRequest
		wantOk   bool
		wantCode string
		wantLen  int
	}{
		{
			name:    "default dialect",
			req:     &InvokeRequest{ID: "1", Items: map[string]any{"_call": "getUser", "id": "7"}},
			wantOk:  true,
			wantLen: 1,
		},
		{
			name:     "unknown dialect",
			req:      &InvokeRequest{ID: "2", Type: "soap", Items: map[string]any{"_call": "getUser"}},
			wantCode: wrapper.CodeUnknownDialect,
		},
		{
			name:     "missing items",
			req:      &InvokeRequest{ID: "3"},
			wantCode: CodeInvalidArgument,
		},
		{
			name:     "malformed",
			req:      &InvokeRequest{ID: "4", Type: "extjsstore", Items: map[string]any{"x": 1}},
			wantCode: wrapper.CodeMalformedRequest,
		},
		{
			name: "direct batch",
			req: &InvokeRequest{ID: "5", Type: "extjsdirect", Items: map[string]any{
				`[{"action":"A","method":"getUser","tid":1,"data":[{}]},{"action":"A","method":"save","tid":2,"data":[{}]}]`: "",
			}},
			wantOk:  true,
			wantLen: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Handle(context.Background(), reg, "default", tt.req)
			if resp.ID != tt.req.ID {
				t.Errorf("dispatcher:pipeline_test - ID = %q, want %q", resp.ID, tt.req.ID)
			}
			if resp.Ok != tt.wantOk {
				t.Fatalf("dispatcher:pipeline_test - Ok = %v, want %v (error %+v)", resp.Ok, tt.wantOk, resp.Error)
			}
			if !tt.wantOk {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("dispatcher:pipeline_test - Error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			if len(resp.Payloads) != tt.wantLen {
				t.Errorf("dispatcher:pipeline_test - got %d payloads, want %d", len(resp.Payloads), tt.wantLen)
			}
		})
	}
}
