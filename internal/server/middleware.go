// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/ManuGH/informant/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// requestID adopts the caller's X-Request-ID or mints one, echoes it and
// stores it in the context for logs and problem bodies.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog logs one line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger := log.WithContext(r.Context(), log.WithComponent("server"))
		ev := logger.Info()
		if ww.Status() >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Int(log.FieldStatus, ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

// writeRateLimit limits writes per client IP using a sliding window.
func writeRateLimit(perMinute int) func(http.Handler) http.Handler {
	window := time.Minute
	return httprate.Limit(
		perMinute,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeProblem(w, r, http.StatusTooManyRequests, ProblemRateLimited, "Too many requests", "RATE_LIMITED",
				"Too many config writes. Please try again later.", nil)
		}),
	)
}

// tracing wraps the handler with OpenTelemetry HTTP instrumentation.
func tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return "HTTP " + r.Method + " " + r.URL.Path
			}),
		)
	}
}

// shouldTrace skips health and metrics endpoints.
func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics", "/openapi.yaml":
		return false
	}
	return true
}
