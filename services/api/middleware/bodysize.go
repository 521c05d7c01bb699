package middleware

import "net/http"

// MaxBodySize rejects request bodies larger than n bytes. Declared-oversize
// requests get an immediate 413; chunked bodies are capped by a limited
// reader so a handler read past n fails instead of buffering unbounded input.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge),
					http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
