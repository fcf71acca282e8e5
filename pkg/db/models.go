package db

import "time"

// CallLogEntry represents a row in the call_log table.
type CallLogEntry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Dialect    string    `json:"dialect"`
	Method     string    `json:"method"`
	Success    bool      `json:"success"`
	Error      *string   `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Created    time.Time `json:"created"`
}

// ListCallsParams filters ListRecentCalls. Empty fields match everything.
type ListCallsParams struct {
	Dialect string
	Method  string
	Limit   int
}

// Limits for ListRecentCalls.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func (p ListCallsParams) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultListLimit
	case p.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return p.Limit
	}
}
