package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires application/json on requests that carry a body. Bodyless POSTs such
// as the toggle actions pass through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) {
			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				respondErrorJSON(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Content-Type header is required", nil)
				return
			}
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				respondErrorJSON(w, r, http.StatusUnsupportedMediaType, ErrCodeUnsupportedType, "Content-Type must be application/json", nil)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		// -1 means unknown length (chunked)
		return r.ContentLength != 0
	default:
		return false
	}
}
