// internal/catalog/router.go
package catalog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter wires the item endpoints behind request ids, panic recovery,
// access logging and an optional rate limiter. A nil limiter disables
// limiting.
func NewRouter(service Service, logger *slog.Logger, limiter *rate.Limiter) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	handler := NewHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if limiter != nil {
		r.Use(rateLimit(handler, limiter))
	}

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Mount("/", handler.Routes())
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func rateLimit(h *Handler, limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				h.writeError(w, http.StatusTooManyRequests, ErrorResponse{Code: CodeRateLimited, Message: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
