package web

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/angel-serrato/authweb/internal/common"
	"github.com/angel-serrato/authweb/internal/logging"
	"github.com/angel-serrato/authweb/internal/server/auth"
	"github.com/angel-serrato/authweb/internal/server/models"
	"github.com/angel-serrato/authweb/internal/server/session"
)

const testSecret = "test-secret"

type fakeService struct {
	registerOut *models.User
	registerErr error

	loginOut *models.User
	loginErr error

	forgotErr   error
	forgotEmail string

	resetErr      error
	resetToken    string
	resetPassword string

	getUserOut   *models.User
	getUserErr   error
	getUserCalls int
}

func (f *fakeService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if f.registerErr != nil {
		return f.registerOut, f.registerErr
	}
	return f.registerOut, nil
}

func (f *fakeService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginOut, nil
}

func (f *fakeService) ForgotPassword(ctx context.Context, email string) error {
	f.forgotEmail = email
	return f.forgotErr
}

func (f *fakeService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resetToken = token
	f.resetPassword = newPassword
	return nil
}

func (f *fakeService) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.getUserCalls++
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	return f.getUserOut, nil
}

func newTestRouter(svc AuthService) *mux.Router {
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sm := session.NewManager(testSecret, time.Hour)
	return NewHandler(svc, sm, l).Routes()
}

// postForm submits a form with a matching CSRF cookie/field pair plus any
// extra cookies.
func postForm(t *testing.T, router *mux.Router, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	form.Set(csrfFieldName, "tok")
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *mux.Router, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := auth.IssueToken(userID, session.PurposeSession, []byte(testSecret))
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterPost_SuccessRedirectsToLogin(t *testing.T) {
	svc := &fakeService{registerOut: &models.User{ID: "u1", Email: "a@x.com"}}
	router := newTestRouter(svc)

	w := postForm(t, router, "/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	if findCookie(w, flashCookieName) == nil {
		t.Fatalf("expected a flash cookie on successful registration")
	}
}

func TestRegisterPost_DuplicateEmailRerenders(t *testing.T) {
	svc := &fakeService{registerErr: common.ErrorDuplicateEmail}
	router := newTestRouter(svc)

	w := postForm(t, router, "/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	if w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Fatalf("expected duplicate-email message, got: %s", w.Body.String())
	}
}

func TestRegisterPost_NotificationFailureStillRedirects(t *testing.T) {
	svc := &fakeService{registerOut: &models.User{ID: "u1"}, registerErr: common.ErrNotificationFailure}
	router := newTestRouter(svc)

	w := postForm(t, router, "/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRegisterPost_MissingCSRFRejected(t *testing.T) {
	svc := &fakeService{registerOut: &models.User{ID: "u1"}}
	router := newTestRouter(svc)

	form := url.Values{"email": {"a@x.com"}, "password": {"pw1"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("want 403 without csrf token, got %d", w.Code)
	}
}

func TestRegisterPost_MismatchedCSRFRejected(t *testing.T) {
	svc := &fakeService{registerOut: &models.User{ID: "u1"}}
	router := newTestRouter(svc)

	form := url.Values{"email": {"a@x.com"}, "password": {"pw1"}, csrfFieldName: {"other"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("want 403 on csrf mismatch, got %d", w.Code)
	}
}

func TestLoginPost_SuccessSetsSessionAndRedirectsToAdmin(t *testing.T) {
	svc := &fakeService{loginOut: &models.User{ID: "u1", Email: "a@x.com"}}
	router := newTestRouter(svc)

	w := postForm(t, router, "/login", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin" {
		t.Fatalf("want 303 to /admin, got %d to %q", w.Code, w.Header().Get("Location"))
	}

	cookie := findCookie(w, session.CookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected a session cookie after login")
	}
	userID, err := auth.RedeemToken(cookie.Value, session.PurposeSession, time.Hour, []byte(testSecret))
	if err != nil || userID != "u1" {
		t.Fatalf("session cookie must carry the identity key: (%q, %v)", userID, err)
	}
}

func TestLoginPost_InvalidCredentials(t *testing.T) {
	svc := &fakeService{loginErr: common.ErrorInvalidCredentials}
	router := newTestRouter(svc)

	w := postForm(t, router, "/login", url.Values{"email": {"a@x.com"}, "password": {"nope"}})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password.") {
		t.Fatalf("expected generic credentials message, got: %s", w.Body.String())
	}
	if findCookie(w, session.CookieName) != nil {
		t.Fatalf("no session cookie on failed login")
	}
}

func TestAdmin_WithoutSessionRedirectsWithoutTouchingStore(t *testing.T) {
	svc := &fakeService{getUserOut: &models.User{ID: "u1"}}
	router := newTestRouter(svc)

	w := get(router, "/admin")

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	if svc.getUserCalls != 0 {
		t.Fatalf("unauthenticated request must not reach the store")
	}
}

func TestAdmin_WithSessionShowsAccount(t *testing.T) {
	svc := &fakeService{getUserOut: &models.User{ID: "u1", Email: "a@x.com", PasswordHash: "$2a$10$hash"}}
	router := newTestRouter(svc)

	w := get(router, "/admin", sessionCookie(t, "u1"))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "a@x.com") || !strings.Contains(body, "$2a$10$hash") {
		t.Fatalf("admin page must show email and stored hash, got: %s", body)
	}
}

func TestAdmin_ForeignPurposeTokenRejected(t *testing.T) {
	svc := &fakeService{getUserOut: &models.User{ID: "u1"}}
	router := newTestRouter(svc)

	token, err := auth.IssueToken("u1", "password-reset", []byte(testSecret))
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	w := get(router, "/admin", &http.Cookie{Name: session.CookieName, Value: token})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("a reset token must not open the admin area: got %d to %q", w.Code, w.Header().Get("Location"))
	}
	if svc.getUserCalls != 0 {
		t.Fatalf("rejected token must not reach the store")
	}
}

func TestAdmin_VanishedUserClearsSession(t *testing.T) {
	svc := &fakeService{getUserErr: common.ErrorNotFound}
	router := newTestRouter(svc)

	w := get(router, "/admin", sessionCookie(t, "gone"))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	cookie := findCookie(w, session.CookieName)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("session cookie must be cleared for a vanished account, got %+v", cookie)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := get(router, "/logout", sessionCookie(t, "u1"))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	cookie := findCookie(w, session.CookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("logout must clear the session cookie, got %+v", cookie)
	}
}

func TestForgotPost_AlwaysGenericOutcome(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	w := postForm(t, router, "/forgot", url.Values{"email": {"A@X.com"}})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	if svc.forgotEmail != "A@X.com" {
		t.Fatalf("service must receive the submitted email, got %q", svc.forgotEmail)
	}
	if findCookie(w, flashCookieName) == nil {
		t.Fatalf("expected the generic flash message")
	}
}

func TestResetPage_CarriesTokenInFormAction(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := get(router, "/reset_password/tok-123")

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/reset_password/tok-123") {
		t.Fatalf("reset form must post back to the token URL, got: %s", w.Body.String())
	}
}

func TestResetPost_SuccessRedirectsToLogin(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	w := postForm(t, router, "/reset_password/tok-123", url.Values{"password": {"new-pw"}})

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("want 303 to /login, got %d to %q", w.Code, w.Header().Get("Location"))
	}
	if svc.resetToken != "tok-123" || svc.resetPassword != "new-pw" {
		t.Fatalf("service must receive token and password, got (%q, %q)", svc.resetToken, svc.resetPassword)
	}
}

func TestResetPost_BadTokenRedirectsToForgot(t *testing.T) {
	for _, tokenErr := range []error{
		common.ErrTokenInvalid,
		common.ErrTokenExpired,
		common.ErrTokenConsumed,
		common.ErrorNotFound,
	} {
		svc := &fakeService{resetErr: tokenErr}
		router := newTestRouter(svc)

		w := postForm(t, router, "/reset_password/tok-123", url.Values{"password": {"new-pw"}})

		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/forgot" {
			t.Fatalf("%v: want 303 to /forgot, got %d to %q", tokenErr, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestFlash_RenderedOnceThenCleared(t *testing.T) {
	router := newTestRouter(&fakeService{})

	msg := base64.RawURLEncoding.EncodeToString([]byte("You have been logged out."))
	w := get(router, "/login", &http.Cookie{Name: flashCookieName, Value: msg})

	if !strings.Contains(w.Body.String(), "You have been logged out.") {
		t.Fatalf("flash message must render, got: %s", w.Body.String())
	}
	cookie := findCookie(w, flashCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("flash cookie must be cleared after rendering, got %+v", cookie)
	}
}

func TestIndex_Renders(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := get(router, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if findCookie(w, csrfCookieName) == nil {
		t.Fatalf("first visit must set the csrf cookie")
	}
}
