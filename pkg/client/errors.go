package client

import (
	"fmt"
	"strings"
)

// ConnectionError reports that no usable response came back: the transport
// failed, the status was not 2xx, or the body was not a JSON object.
type ConnectionError struct {
	Endpoint   string
	StatusCode int
	Cause      error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connection to %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// RemoteError is a call the server answered with success=false.
type RemoteError struct {
	Method   string
	Messages []string
}

// Error joins the server messages with ". ".
func (e *RemoteError) Error() string {
	return strings.Join(e.Messages, ". ")
}
