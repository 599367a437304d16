package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// DefaultFrontendOrigin is always allowed so the local dev frontend works out of the box.
const DefaultFrontendOrigin = "http://localhost:3000"

// CORS creates rs/cors middleware for the given origins. Session tokens travel in
// X-Session-Token, so it is both accepted and exposed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", SessionTokenHeader, RequestIDHeader},
		ExposedHeaders:   []string{SessionTokenHeader, RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// CORSFromEnv parses FRONTEND_URL (comma-separated origins) and builds the CORS middleware.
func CORSFromEnv(frontendURL string) func(http.Handler) http.Handler {
	return CORS(AllowedOrigins(frontendURL))
}

// AllowedOrigins splits a comma-separated origin list, trimming and de-duplicating, and always
// includes DefaultFrontendOrigin.
func AllowedOrigins(raw string) []string {
	origins := []string{DefaultFrontendOrigin}
	seen := map[string]bool{DefaultFrontendOrigin: true}
	for _, origin := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}
