package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// requestIDMiddleware reuses the caller's X-Request-ID or assigns a UUID,
// and stores it where chi's GetReqID finds it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern(r),
			"status", wrapped.status,
			"duration", time.Since(start).String(),
			"request_id", requestID(r),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's account id in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.gate.Authenticate(r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			authFailuresTotal.WithLabelValues("bearer").Inc()
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountIDFromContext returns the authenticated account id stored by the
// auth middleware.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok && id > 0
}
