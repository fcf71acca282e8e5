// Package gateway exposes the dialect pipeline over HTTP: the dialect
// endpoint itself, a JSON-RPC 2.0 bridge, and read-only views of the dialect
// registry and call log.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/morezero/dialect-gateway/pkg/dispatcher"
	"github.com/morezero/dialect-gateway/pkg/session"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const logPrefix = "gateway:handler"

// HeaderSessionID carries the caller's session ID in both directions.
const HeaderSessionID = "X-Session-ID"

// Defaults applied by NewHandler.
const (
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRequestTimeout = 25 * time.Second
)

// Options configures a Handler.
type Options struct {
	Registry       *wrapper.Registry
	Dispatcher     *dispatcher.Dispatcher
	DefaultDialect string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// Handler serves the dialect endpoint. Each request gets its own session and
// wrapper; the registry and dispatcher are shared.
type Handler struct {
	registry       *wrapper.Registry
	dispatcher     *dispatcher.Dispatcher
	defaultDialect string
	maxBodyBytes   int64
	requestTimeout time.Duration
}

// NewHandler validates opts and returns a Handler.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Registry == nil || opts.Dispatcher == nil {
		return nil, fmt.Errorf("%s - registry and dispatcher are required", logPrefix)
	}
	if opts.DefaultDialect == "" {
		opts.DefaultDialect = wrapper.DialectDefault
	}
	if _, err := opts.Registry.Select(opts.DefaultDialect); err != nil {
		return nil, fmt.Errorf("%s - default dialect: %w", logPrefix, err)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Handler{
		registry:       opts.Registry,
		dispatcher:     opts.Dispatcher,
		defaultDialect: opts.DefaultDialect,
		maxBodyBytes:   opts.MaxBodyBytes,
		requestTimeout: opts.RequestTimeout,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		MethodNotAllowed(w)
		return
	}

	items, err := decodeItems(w, r, h.maxBodyBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		WriteErrors(w, status, err.Error())
		return
	}

	dialect := takeDialect(items)
	if dialect == "" {
		dialect = r.URL.Query().Get(wrapper.FieldType)
	}
	if dialect == "" {
		dialect = h.defaultDialect
	}

	sess := session.New(r.Header.Get(HeaderSessionID))
	w.Header().Set(HeaderSessionID, sess.ID)
	rc := &wrapper.RequestContext{Session: sess}

	wr, err := h.registry.New(dialect, rc)
	if err != nil {
		h.fail(w, dialect, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	payloads, err := h.dispatcher.Process(ctx, wr, rc, items)
	if err != nil {
		h.fail(w, dialect, err)
		return
	}

	if len(payloads) == 1 {
		WriteJSON(w, http.StatusOK, payloads[0])
		return
	}
	WriteJSON(w, http.StatusOK, payloads)
}

// fail writes the error envelope. Client mistakes are 400; anything else
// points at a handler or adapter bug and is 500.
func (h *Handler) fail(w http.ResponseWriter, dialect string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(fmt.Sprintf("%s - %s request failed: %v", logPrefix, dialect, err))
	} else {
		slog.Debug(fmt.Sprintf("%s - %s request rejected: %v", logPrefix, dialect, err))
	}
	WriteErrors(w, status, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wrapper.ErrMalformedRequest),
		errors.Is(err, wrapper.ErrInvalidArgumentShape),
		errors.Is(err, wrapper.ErrUnknownDialect):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	var we *wrapper.WrapperError
	if errors.As(err, &we) {
		return we.Message
	}
	return err.Error()
}
