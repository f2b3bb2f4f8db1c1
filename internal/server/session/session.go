// Package session binds an authenticated identity to a request-scoped cookie.
// The cookie value is a signed, purpose-tagged token carrying the user's
// identity key; no session state is kept server-side.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/angel-serrato/authweb/internal/common"
	"github.com/angel-serrato/authweb/internal/server/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "authweb_session"

// PurposeSession namespaces session tokens so that tokens issued for other
// features (e.g. password reset) cannot act as a session.
const PurposeSession = "session"

type ctxKey struct{}

// Manager issues, reads, and clears session cookies.
type Manager struct {
	secret   []byte
	validity time.Duration
	loginURL string
}

func NewManager(secret string, validity time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		validity: validity,
		loginURL: "/login",
	}
}

// Login binds userID to the response via a signed session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	token, err := auth.IssueToken(userID, PurposeSession, m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.validity.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the session cookie. It is idempotent: clearing an absent
// session is not an error.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUserID returns the identity key bound to the request, or
// common.ErrorUnauthorized when the request carries no valid session.
func (m *Manager) CurrentUserID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", common.ErrorUnauthorized
	}
	userID, err := auth.RedeemToken(cookie.Value, PurposeSession, m.validity, m.secret)
	if err != nil {
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}

// Require guards a route: unauthenticated requests are redirected to the
// login page before the wrapped handler runs. Authenticated requests proceed
// with the user ID injected into the request context (see UserID).
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.CurrentUserID(r)
		if err != nil {
			http.Redirect(w, r, m.loginURL, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

// UserID extracts the authenticated user's identity key placed into the
// context by Require.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
