package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/dialect-gateway/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// Subject overrides the base call event subject (CALL_EVENT_SUBJECT).
	Subject string
}

// CommsPublisher publishes call events to COMMS subjects.
type CommsPublisher struct {
	nc      *comms.Conn
	subject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	subject := commsutil.SubjectCallEvent
	if opts != nil && opts.Subject != "" {
		subject = opts.Subject
	}
	return &CommsPublisher{nc: nc, subject: subject}
}

// PublishCallCompleted publishes the event to the granular
// <subject>.<dialect>.<method> subject and then to the base subject.
func (p *CommsPublisher) PublishCallCompleted(_ context.Context, event *CallCompletedEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granular := commsutil.BuildCallSubject(p.subject, event.Dialect, event.Method)
	if err := p.nc.Publish(granular, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granular, err))
		return err
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.subject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published call event for %s/%s", commsPublisherLogPrefix, event.Dialect, event.Method))
	return nil
}
