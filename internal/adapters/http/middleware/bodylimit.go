package middleware

import (
	"log/slog"
	"net/http"
)

// BodyLimit caps request bodies before anything reads them, including the
// CSRF check, which parses forms. perPath overrides fallback for exact paths.
// Bodies with a declared length over the cap are refused with 413; others
// are cut off at the cap by http.MaxBytesReader.
func BodyLimit(fallback int64, perPath map[string]int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := fallback
			if n, ok := perPath[r.URL.Path]; ok {
				limit = n
			}
			if r.ContentLength > limit {
				slog.Warn("body_too_large",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"content_length", r.ContentLength,
					"limit", limit,
				)
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
