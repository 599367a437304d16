package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxRequestSize bounds request bodies. The largest legitimate body is a chat
// message, capped well below this.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects declared oversize bodies up front and caps streamed ones, so a
// decoder reading past the limit fails instead of buffering.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	message := fmt.Sprintf("Request body exceeds %d bytes", maxBytes)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, message, nil)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
