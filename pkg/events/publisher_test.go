package events

import (
	"context"
	"testing"
	"time"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishCallCompleted(context.Background(), &CallCompletedEvent{Dialect: "default", Method: "ping"})
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *CallCompletedEvent
	pub := NewCallbackPublisher(func(_ context.Context, event *CallCompletedEvent) error {
		captured = event
		return nil
	})

	err := pub.PublishCallCompleted(context.Background(), &CallCompletedEvent{
		SessionID: "s1",
		Dialect:   "extjsdirect",
		Method:    "getUser",
		Success:   true,
	})
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Method != "getUser" || !captured.Success {
		t.Errorf("events:publisher_test - captured = %+v", captured)
	}
}

func TestNewCallCompletedEvent(t *testing.T) {
	started := time.Now().Add(-50 * time.Millisecond)
	ev := NewCallCompletedEvent("s1", "default", "ping", true, started)

	if ev.DurationMs < 50 {
		t.Errorf("events:types_test - DurationMs = %d, want >= 50", ev.DurationMs)
	}
	if _, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err != nil {
		t.Errorf("events:types_test - Timestamp %q is not RFC 3339: %v", ev.Timestamp, err)
	}
	if ev.SessionID != "s1" || ev.Dialect != "default" || ev.Method != "ping" || !ev.Success {
		t.Errorf("events:types_test - event = %+v", ev)
	}
}
