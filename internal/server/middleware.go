package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs each request with slog and records it in metrics under
// its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.RecordRequest(route, status, elapsed)
		}
		slog.Info("HTTP request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.Round(time.Microsecond),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
