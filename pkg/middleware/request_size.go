package middleware

import "net/http"

// MaxRequestSize caps request body size. Reads past the limit fail with
// http.ErrBodyReadAfterClose style errors which handlers surface as 400s.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, `{"error":{"code":"REQUEST_TOO_LARGE","message":"request body exceeds limit"}}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
