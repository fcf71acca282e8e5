// Package commsutil holds NATS connection helpers, subjects and the payload
// codec shared by the invoke subscriber and the call-event publisher.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// ConnectOptions tunes Connect. The zero value uses the defaults below.
type ConnectOptions struct {
	Timeout       time.Duration
	ReconnectWait time.Duration
	MaxReconnects int
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects == 0 {
		o.MaxReconnects = 60
	}
	return o
}

// Connect opens a NATS connection to url identified as name.
func Connect(url, name string, opts ...ConnectOptions) (*comms.Conn, error) {
	var o ConnectOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, name))

	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(o.Timeout),
		comms.ReconnectWait(o.ReconnectWait),
		comms.MaxReconnects(o.MaxReconnects),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
