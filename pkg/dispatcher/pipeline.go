package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/dialect-gateway/pkg/events"
	"github.com/morezero/dialect-gateway/pkg/session"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const pipelineLogPrefix = "dispatcher:pipeline"

// ErrLedgerLeak is returned by Process when the session ledger still holds
// entries after every call in the request was built.
var ErrLedgerLeak = errors.New("ledger not drained at end of request")

// Process parses items with w, invokes every call and builds the responses
// in parse order. rc supplies the dialect and session for reporting; it may
// be nil. On any error the session ledger is discarded.
func (d *Dispatcher) Process(ctx context.Context, w wrapper.Wrapper, rc *wrapper.RequestContext, items wrapper.Items) ([]wrapper.Payload, error) {
	sess := wrapper.SessionOf(rc)

	calls, err := w.Parse(items)
	if err != nil {
		discard(sess)
		return nil, err
	}

	payloads := make([]wrapper.Payload, 0, len(calls))
	for _, call := range calls {
		started := time.Now()
		callErr, result := d.Invoke(ctx, call)

		payload, err := w.Build(callErr, result)
		if err != nil {
			discard(sess)
			return nil, fmt.Errorf("%s - build %s: %w", pipelineLogPrefix, call.Name, err)
		}
		payloads = append(payloads, payload)
		d.report(ctx, rc, call.Name, callErr, started)
	}

	if sess != nil && sess.Discard() > 0 {
		return payloads, ErrLedgerLeak
	}
	return payloads, nil
}

// Handle resolves the dialect for req through reg and runs Process with a
// fresh session. It never returns nil.
func (d *Dispatcher) Handle(ctx context.Context, reg *wrapper.Registry, defaultDialect string, req *InvokeRequest) *InvokeResponse {
	dialect := req.Type
	if dialect == "" {
		dialect = defaultDialect
	}
	if req.Items == nil {
		return errorResponse(req.ID, CodeInvalidArgument, "items is required", false)
	}

	rc := &wrapper.RequestContext{Session: session.New(req.SessionID)}
	w, err := reg.New(dialect, rc)
	if err != nil {
		return &InvokeResponse{ID: req.ID, Error: ErrorDetailFor(err)}
	}

	payloads, err := d.Process(ctx, w, rc, wrapper.Items(req.Items))
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - request %s on %s failed: %v", pipelineLogPrefix, req.ID, dialect, err))
		return &InvokeResponse{ID: req.ID, Payloads: payloads, Error: ErrorDetailFor(err)}
	}
	return &InvokeResponse{ID: req.ID, Ok: true, Payloads: payloads}
}

func (d *Dispatcher) report(ctx context.Context, rc *wrapper.RequestContext, method string, callErr any, started time.Time) {
	var sessionID, dialect string
	if rc != nil {
		dialect = rc.Dialect
		if rc.Session != nil {
			sessionID = rc.Session.ID
		}
	}

	event := events.NewCallCompletedEvent(sessionID, dialect, method, callErr == nil, started)
	if callErr != nil {
		event.Error = errorMessage(callErr)
	}

	if err := d.publisher.PublishCallCompleted(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish call event for %s: %v", pipelineLogPrefix, method, err))
	}
	if d.recorder != nil {
		if err := d.recorder.RecordCall(ctx, event); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to record call %s: %v", pipelineLogPrefix, method, err))
		}
	}
}

func discard(sess *session.Session) {
	if sess != nil {
		sess.Discard()
	}
}

func errorMessage(callErr any) string {
	switch e := callErr.(type) {
	case string:
		return e
	case error:
		return e.Error()
	default:
		return fmt.Sprint(e)
	}
}
