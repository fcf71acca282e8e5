package events

import "context"

// EventPublisher publishes call-completed events.
type EventPublisher interface {
	PublishCallCompleted(ctx context.Context, event *CallCompletedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishCallCompleted is a no-op.
func (p *NoOpPublisher) PublishCallCompleted(_ context.Context, _ *CallCompletedEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *CallCompletedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *CallCompletedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishCallCompleted calls the callback.
func (p *CallbackPublisher) PublishCallCompleted(ctx context.Context, event *CallCompletedEvent) error {
	return p.callback(ctx, event)
}
