// Package events defines the call-completed event and the publishers that
// fan it out.
package events

import "time"

// CallCompletedEvent is emitted once per call handled by the gateway, after
// the dialect response has been built.
type CallCompletedEvent struct {
	SessionID  string `json:"sessionId"`
	Dialect    string `json:"dialect"`
	Method     string `json:"method"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  string `json:"timestamp"`
}

// NewCallCompletedEvent fills Timestamp (RFC 3339, UTC) and DurationMs from
// started.
func NewCallCompletedEvent(sessionID, dialect, method string, success bool, started time.Time) *CallCompletedEvent {
	now := time.Now().UTC()
	return &CallCompletedEvent{
		SessionID:  sessionID,
		Dialect:    dialect,
		Method:     method,
		Success:    success,
		DurationMs: now.Sub(started).Milliseconds(),
		Timestamp:  now.Format(time.RFC3339Nano),
	}
}
