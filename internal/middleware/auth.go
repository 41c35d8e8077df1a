package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/model"
)

const (
	SessionCookieName = "cloudbyte_session"
	LoginPath         = "/auth"
)

// SessionResolver turns a session token into a live session. A nil session
// with a nil error means the token is not (or no longer) valid.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*model.Session, error)
}

// Precondition is an extra requirement of a guarded route, checked after the
// session. Check may return a request carrying additional context values.
type Precondition struct {
	Name     string
	Redirect string
	Check    func(r *http.Request) (*http.Request, bool)
}

// Guard requires a live session and then every precondition, in order.
// Visitors without a session go to the login view; a failing precondition
// sends them to its own redirect target.
func Guard(resolver SessionResolver, logger *slog.Logger, preconditions ...Precondition) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				ac, ok := resolve(resolver, logger, r)
				if !ok {
					redirectTo(w, r, LoginPath)
					return
				}
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}

			for _, pc := range preconditions {
				checked, ok := pc.Check(r)
				if !ok {
					logger.Debug("precondition failed", "precondition", pc.Name, "path", r.URL.Path)
					redirectTo(w, r, pc.Redirect)
					return
				}
				r = checked
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalSession attaches the session to the request when the cookie holds
// a valid one and passes every request through.
func OptionalSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac, ok := resolve(resolver, logger, r); ok {
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken returns the raw token from the session cookie.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func resolve(resolver SessionResolver, logger *slog.Logger, r *http.Request) (auth.AuthContext, bool) {
	token := SessionToken(r)
	if token == "" {
		return auth.AuthContext{}, false
	}
	sess, err := resolver.Current(r.Context(), token)
	if err != nil {
		logger.Warn("session lookup failed", "error", err)
		return auth.AuthContext{}, false
	}
	if sess == nil {
		return auth.AuthContext{}, false
	}
	return auth.AuthContext{
		UserID:    sess.UserID,
		Email:     sess.Email,
		SessionID: sess.ID,
	}, true
}

func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
