package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const requestIDContextKey contextKey = "request_id"

// requestIDCounter is an atomic counter for request IDs.
var requestIDCounter uint64

// RequestID numbers each request, exposes the number as X-Request-ID and
// stores it in the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strconv.FormatUint(atomic.AddUint64(&requestIDCounter, 1), 10)
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
