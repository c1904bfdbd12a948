package middleware

import (
	"context"
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/logger"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

func RequestIDFrom(ctx context.Context) string { return logger.RequestID(ctx) }

// RequestID keeps a well-formed incoming id (so traces join up across the
// proxy) and otherwise mints a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
