package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/benvon/smart-dashboard/internal/auth"
	"github.com/benvon/smart-dashboard/internal/request"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SessionTokenHeader carries the session token in requests and, when one is issued, responses.
	SessionTokenHeader = "X-Session-Token"
	// SessionCookieName is the cookie holding the session token for browser clients.
	SessionCookieName = "dashboard_session"
)

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(sessionID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}

var _ TokenCodec = (*auth.TokenManager)(nil)

// Session resolves the caller's dashboard session and puts its id on the request context.
// A missing or invalid token starts a new session and returns a fresh token in the
// X-Session-Token header and the dashboard_session cookie.
func Session(tokens TokenCodec, sessions *session.Manager, cookieTTL time.Duration, secureCookie bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessionFromRequest(tokens, r)
			if !ok {
				id = uuid.New()
				token, err := tokens.Issue(id)
				if err != nil {
					logger.Error("session_token_issue_failed", zap.Error(err))
					respondErrorJSON(w, r, http.StatusInternalServerError, ErrCodeInternal, "Could not start a session", logger)
					return
				}
				w.Header().Set(SessionTokenHeader, token)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if _, err := sessions.GetOrCreate(r.Context(), id); err != nil {
				logger.Error("session_load_failed",
					zap.String("session_id", id.String()),
					zap.Error(err),
				)
				respondErrorJSON(w, r, http.StatusServiceUnavailable, ErrCodeSessionUnavailable, "Session state is unavailable", logger)
				return
			}

			noteSession(r, id.String())
			next.ServeHTTP(w, r.WithContext(request.WithSessionID(r.Context(), id)))
		})
	}
}

// sessionFromRequest checks, in order, the Authorization bearer token, the X-Session-Token
// header and the session cookie.
func sessionFromRequest(tokens TokenCodec, r *http.Request) (uuid.UUID, bool) {
	for _, token := range candidateTokens(r) {
		if id, err := tokens.Parse(token); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

func candidateTokens(r *http.Request) []string {
	var out []string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			out = append(out, strings.TrimSpace(parts[1]))
		}
	}
	if h := r.Header.Get(SessionTokenHeader); h != "" {
		out = append(out, h)
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		out = append(out, c.Value)
	}
	return out
}
