package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clubhouse/internal/adapters/http/perf"
)

// DefaultSlowRequest is used when Timing is given no threshold.
const DefaultSlowRequest = 200 * time.Millisecond

// Timing records every request under its chi route pattern, so
// /api/athletes/a1 and /api/athletes/a2 share one row in the perf report.
// It must be installed with Router.Use: the pattern is only known inside
// the router once the handler has returned. Requests slower than slow are
// logged at WARN, the rest at DEBUG. Static files and /healthz are skipped.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := responseStatus(ww, r)
				route := r.Method + " " + routePattern(r)
				d := collector.Observe(perf.KindRequest, route, start, status, status >= http.StatusInternalServerError)

				attrs := []any{
					"request_id", chimw.GetReqID(r.Context()),
					"route", route,
					"path", r.URL.Path,
					"status", status,
					"duration_ms", float64(d.Microseconds()) / 1000,
				}
				if d >= slow {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// responseStatus is the status the handler wrote. A hijacked websocket
// connection never writes one through the wrapper.
func responseStatus(ww chimw.WrapResponseWriter, r *http.Request) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return http.StatusSwitchingProtocols
	}
	return http.StatusOK
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
