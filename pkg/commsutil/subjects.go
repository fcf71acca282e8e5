package commsutil

import (
	"strings"
)

// Default COMMS subjects.
const (
	SubjectInvoke    = "gateway.invoke"
	SubjectCallEvent = "gateway.calls"
)

// BuildCallSubject builds the granular call-event subject for one dialect and
// method under base. Dots in the method are kept so "system.ping" nests as
// two tokens; spaces and wildcards are replaced.
func BuildCallSubject(base, dialect, method string) string {
	if base == "" {
		base = SubjectCallEvent
	}
	return base + "." + subjectToken(dialect) + "." + subjectToken(method)
}

var subjectReplacer = strings.NewReplacer(" ", "_", "*", "_", ">", "_", "\t", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return subjectReplacer.Replace(s)
}
