package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/morezero/dialect-gateway/pkg/db"
	"github.com/morezero/dialect-gateway/pkg/dispatcher"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

// CallLister reads the call log.
type CallLister interface {
	ListRecentCalls(ctx context.Context, params db.ListCallsParams) ([]db.CallLogEntry, error)
}

// CallsHandler serves GET /calls?limit=&dialect=&method=. A nil lister means
// the call log is disabled.
func CallsHandler(lister CallLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			MethodNotAllowed(w)
			return
		}
		if lister == nil {
			WriteErrors(w, http.StatusNotFound, "call log is disabled")
			return
		}

		q := r.URL.Query()
		params := db.ListCallsParams{Dialect: q.Get("dialect"), Method: q.Get("method")}
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				WriteErrors(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			params.Limit = n
		}

		calls, err := lister.ListRecentCalls(r.Context(), params)
		if err != nil {
			WriteErrors(w, http.StatusInternalServerError, err.Error())
			return
		}
		if calls == nil {
			calls = []db.CallLogEntry{}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"calls": calls})
	}
}

// DialectsHandler serves GET /dialects.
func DialectsHandler(reg *wrapper.Registry, defaultDialect string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			MethodNotAllowed(w)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"default":  defaultDialect,
			"dialects": dispatcher.ListDialects(reg),
		})
	}
}
