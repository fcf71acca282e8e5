// Package session holds the per-request state shared between a wrapper's
// parse and build steps.
package session

import "errors"

// ErrLedgerUnderflow is returned by Pop when no entry is queued. It means a
// build was issued without a matching parse.
var ErrLedgerUnderflow = errors.New("session:ledger - build without matching parse (ledger empty)")

// LedgerEntry carries the routing metadata of one ExtJS Direct call from
// parse time to build time.
type LedgerEntry struct {
	FormHandler   bool   `json:"formHandler"`
	Type          string `json:"type"`
	Action        string `json:"action"`
	Method        string `json:"method"`
	TransactionID any    `json:"tid"`
}

// Ledger is a strict FIFO queue of ledger entries. Push and Pop are its only
// mutators. The zero value is an empty ledger.
type Ledger struct {
	entries []LedgerEntry
}

// Push appends an entry at the tail.
func (l *Ledger) Push(e LedgerEntry) {
	l.entries = append(l.entries, e)
}

// Pop removes and returns the oldest entry. On an empty ledger it returns
// ErrLedgerUnderflow and leaves the ledger untouched.
func (l *Ledger) Pop() (LedgerEntry, error) {
	if len(l.entries) == 0 {
		return LedgerEntry{}, ErrLedgerUnderflow
	}
	e := l.entries[0]
	l.entries[0] = LedgerEntry{}
	l.entries = l.entries[1:]
	if len(l.entries) == 0 {
		l.entries = nil
	}
	return e, nil
}

// Len returns the number of queued entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Empty reports whether no entries are queued.
func (l *Ledger) Empty() bool {
	return len(l.entries) == 0
}

// Peek returns a copy of the queued entries, oldest first.
func (l *Ledger) Peek() []LedgerEntry {
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
