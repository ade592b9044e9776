package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger logs one line per request. Cached read endpoints set X-Cache
// before writing the body, so the hit/miss outcome lands in the same line.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			defer func() {
				requestID := GetRequestID(r.Context())
				duration := time.Since(start)

				attrs := []any{
					slog.String("request_id", requestID),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", wrapped.status),
					slog.Int("bytes", wrapped.bytes),
					slog.Duration("duration", duration),
					slog.String("remote_addr", r.RemoteAddr),
				}
				if cacheStatus := wrapped.Header().Get("X-Cache"); cacheStatus != "" {
					attrs = append(attrs, slog.String("cache", cacheStatus))
				}

				logger.Info("request completed", attrs...)
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
