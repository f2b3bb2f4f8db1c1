// Package web exposes the form-based HTTP surface: registration, login,
// logout, the guarded admin page, and the password-reset flow. Handlers
// translate form submissions into service calls and render templates or
// redirects; no business rules live here.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/angel-serrato/authweb/internal/common"
	"github.com/angel-serrato/authweb/internal/logging"
	"github.com/angel-serrato/authweb/internal/server/models"
	"github.com/angel-serrato/authweb/internal/server/session"
)

// AuthService is the slice of the service layer the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	service  AuthService
	sessions *session.Manager
	logger   logging.Logger
}

func NewHandler(s AuthService, sm *session.Manager, l logging.Logger) *Handler {
	return &Handler{
		service:  s,
		sessions: sm,
		logger:   l.With("module", "web"),
	}
}

type pageData struct {
	Title     string
	Flash     string
	Error     string
	CSRFToken string
	Email     string
	Token     string
	User      *models.User
}

// Routes wires all handlers into a router. The admin page sits behind the
// session guard; everything else is public.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/register", h.registerPage).Methods(http.MethodGet)
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodGet)
	r.Handle("/admin", h.sessions.Require(http.HandlerFunc(h.admin))).Methods(http.MethodGet)
	r.HandleFunc("/forgot", h.forgotPage).Methods(http.MethodGet)
	r.HandleFunc("/forgot", h.forgot).Methods(http.MethodPost)
	r.HandleFunc("/reset_password/{token}", h.resetPage).Methods(http.MethodGet)
	r.HandleFunc("/reset_password/{token}", h.reset).Methods(http.MethodPost)

	return r
}

// newPageData assembles the common page fields: any pending flash message and
// a CSRF token for forms.
func (h *Handler) newPageData(w http.ResponseWriter, r *http.Request, title string) *pageData {
	data := &pageData{Title: title, Flash: popFlash(w, r)}
	token, err := ensureCSRFToken(w, r)
	if err != nil {
		h.logger.Error(r.Context(), "csrf token generation failed", "error", err.Error())
	}
	data.CSRFToken = token
	return data
}

func (h *Handler) guardCSRF(w http.ResponseWriter, r *http.Request) bool {
	if checkCSRFToken(r) {
		return true
	}
	h.logger.Warn(r.Context(), "rejected form post with bad csrf token", "path", r.URL.Path)
	http.Error(w, "invalid csrf token", http.StatusForbidden)
	return false
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index", h.newPageData(w, r, "Welcome"))
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "register", h.newPageData(w, r, "Register"))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.guardCSRF(w, r) {
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	_, err := h.service.Register(r.Context(), email, password)
	switch {
	case err == nil:
		setFlash(w, "Account created. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrNotificationFailure):
		setFlash(w, "Account created, but the welcome email could not be sent.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrorInvalidInput):
		data := h.newPageData(w, r, "Register")
		data.Error = "Email and password are required."
		data.Email = email
		h.render(w, http.StatusBadRequest, "register", data)
	case errors.Is(err, common.ErrorDuplicateEmail):
		data := h.newPageData(w, r, "Register")
		data.Error = "An account with this email already exists."
		data.Email = email
		h.render(w, http.StatusConflict, "register", data)
	default:
		h.logger.Error(r.Context(), "registration failed", "error", err.Error())
		data := h.newPageData(w, r, "Register")
		data.Error = "Something went wrong. Please try again."
		data.Email = email
		h.render(w, http.StatusInternalServerError, "register", data)
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", h.newPageData(w, r, "Login"))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.guardCSRF(w, r) {
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := h.service.Login(r.Context(), email, password)
	switch {
	case err == nil:
		if err := h.sessions.Login(w, r, user.ID); err != nil {
			h.logger.Error(r.Context(), "session issuance failed", "error", err.Error())
			data := h.newPageData(w, r, "Login")
			data.Error = "Something went wrong. Please try again."
			h.render(w, http.StatusInternalServerError, "login", data)
			return
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	case errors.Is(err, common.ErrorInvalidCredentials):
		data := h.newPageData(w, r, "Login")
		data.Error = "Invalid email or password."
		data.Email = email
		h.render(w, http.StatusUnauthorized, "login", data)
	default:
		h.logger.Error(r.Context(), "login failed", "error", err.Error())
		data := h.newPageData(w, r, "Login")
		data.Error = "Something went wrong. Please try again."
		data.Email = email
		h.render(w, http.StatusInternalServerError, "login", data)
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	setFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		// A valid cookie for a vanished account: drop the session.
		if errors.Is(err, common.ErrorNotFound) {
			h.sessions.Logout(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.logger.Error(r.Context(), "loading current user failed", "error", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := h.newPageData(w, r, "Admin")
	data.User = user
	h.render(w, http.StatusOK, "admin", data)
}

func (h *Handler) forgotPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "forgot", h.newPageData(w, r, "Forgot password"))
}

func (h *Handler) forgot(w http.ResponseWriter, r *http.Request) {
	if !h.guardCSRF(w, r) {
		return
	}

	email := r.PostFormValue("email")

	err := h.service.ForgotPassword(r.Context(), email)
	switch {
	case err == nil:
		// One message whether or not the account exists.
		setFlash(w, "If that account exists, a reset link has been sent.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrorInvalidInput):
		data := h.newPageData(w, r, "Forgot password")
		data.Error = "Email is required."
		h.render(w, http.StatusBadRequest, "forgot", data)
	default:
		h.logger.Error(r.Context(), "password reset request failed", "error", err.Error())
		data := h.newPageData(w, r, "Forgot password")
		data.Error = "Something went wrong. Please try again."
		data.Email = email
		h.render(w, http.StatusInternalServerError, "forgot", data)
	}
}

func (h *Handler) resetPage(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData(w, r, "Reset password")
	data.Token = mux.Vars(r)["token"]
	h.render(w, http.StatusOK, "reset", data)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if !h.guardCSRF(w, r) {
		return
	}

	token := mux.Vars(r)["token"]
	password := r.PostFormValue("password")

	err := h.service.ResetPassword(r.Context(), token, password)
	switch {
	case err == nil:
		setFlash(w, "Password updated. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrorInvalidInput):
		data := h.newPageData(w, r, "Reset password")
		data.Error = "Password is required."
		data.Token = token
		h.render(w, http.StatusBadRequest, "reset", data)
	case errors.Is(err, common.ErrTokenInvalid),
		errors.Is(err, common.ErrWrongPurpose),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenConsumed),
		errors.Is(err, common.ErrorNotFound):
		setFlash(w, "The reset link is invalid or has expired. Request a new one.")
		http.Redirect(w, r, "/forgot", http.StatusSeeOther)
	default:
		h.logger.Error(r.Context(), "password reset failed", "error", err.Error())
		data := h.newPageData(w, r, "Reset password")
		data.Error = "Something went wrong. Please try again."
		data.Token = token
		h.render(w, http.StatusInternalServerError, "reset", data)
	}
}
