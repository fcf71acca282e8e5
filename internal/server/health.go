package server

import (
	"context"
	"net/http"
	"time"

	"github.com/morezero/dialect-gateway/pkg/gateway"
)

// HealthChecks reports per-dependency status. A nil field means the
// dependency is disabled.
type HealthChecks struct {
	Database *bool `json:"database,omitempty"`
	Comms    *bool `json:"comms,omitempty"`
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string       `json:"status"`
	Dialects  int          `json:"dialects"`
	Checks    HealthChecks `json:"checks"`
	Timestamp string       `json:"timestamp"`
}

// Health checks the gateway and its optional dependencies.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.reg != nil {
		out.Dialects = len(s.reg.Entries())
	}
	if out.Dialects == 0 {
		out.Status = "unhealthy"
	}

	if s.pool != nil {
		ok := s.pool.Ping(ctx) == nil
		out.Checks.Database = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	if s.nc != nil {
		ok := s.nc.IsConnected()
		out.Checks.Comms = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	return out
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.Health(ctx)
		status := http.StatusOK
		if h.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		gateway.WriteJSON(w, status, h)
	}
}

func (s *Server) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gateway.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
