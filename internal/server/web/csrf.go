package web

import (
	"crypto/hmac"
	"net/http"

	"github.com/angel-serrato/authweb/internal/common"
)

const (
	csrfCookieName = "authweb_csrf"
	csrfFieldName  = "csrf_token"
)

// ensureCSRFToken returns the request's CSRF token, minting one and setting
// the cookie when the request does not carry it yet. The same value travels
// twice on submission: in the cookie and in a hidden form field.
func ensureCSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// checkCSRFToken reports whether the submitted form field matches the cookie.
func checkCSRFToken(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	field := r.PostFormValue(csrfFieldName)
	if field == "" {
		return false
	}
	return hmac.Equal([]byte(cookie.Value), []byte(field))
}
