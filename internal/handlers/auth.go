package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"personal-tracker/internal/auth"
	"personal-tracker/internal/models"
	"personal-tracker/internal/sessions"
	"personal-tracker/internal/tracker"
)

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := h.currentUser(w, r)
		if err != nil {
			h.serverError(w, r, "Session check failed", err)
			return
		}
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// currentUser resolves the session cookie to a user, renewing the session when
// it is in the second half of its lifetime. A stale cookie is cleared; a
// store failure is returned as err and leaves the cookie in place.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false, nil
	}
	ctx := r.Context()

	session, err := h.sessions.Lookup(ctx, cookie.Value)
	if errors.Is(err, sessions.ErrNoSession) {
		h.clearSessionCookie(w)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup session: %w", err)
	}

	user, err := h.svc.User(ctx, session.UserID)
	if errors.Is(err, tracker.ErrNotFound) {
		h.clearSessionCookie(w)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup session user: %w", err)
	}

	now := h.now()
	if session.ExpiresAt.Sub(now) < h.sessionDuration/2 {
		if err := h.sessions.Renew(ctx, cookie.Value, now.Add(h.sessionDuration)); err == nil {
			h.setSessionCookie(w, cookie.Value)
		} else {
			h.logger(r).WithError(err).Warn("Session renewal failed")
		}
	}
	return user, true, nil
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	_, ok, err := h.currentUser(w, r)
	if err != nil {
		h.serverError(w, r, "Session check failed", err)
		return
	}
	if ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", "Login", nil)
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/login", FlashError, "Invalid form submission")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if ve, ok := tracker.IsValidation(err); ok {
			h.redirectWithFlash(w, r, "/login", FlashError, ve.Message)
			return
		}
		if errors.Is(err, tracker.ErrInvalidCredentials) {
			h.redirectWithFlash(w, r, "/login", FlashError, "Invalid username or password")
			return
		}
		h.serverError(w, r, "Login failed", err)
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.serverError(w, r, "Failed to generate session token", err)
		return
	}

	expiresAt := h.now().Add(h.sessionDuration)
	if err := h.sessions.Create(r.Context(), token, user.ID, expiresAt); err != nil {
		h.serverError(w, r, "Failed to create session", err)
		return
	}

	h.setSessionCookie(w, token)
	h.redirectWithFlash(w, r, "/", FlashSuccess, fmt.Sprintf("Welcome back, %s!", user.Username))
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	_, ok, err := h.currentUser(w, r)
	if err != nil {
		h.serverError(w, r, "Session check failed", err)
		return
	}
	if ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "register.html", "Register", nil)
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/register", FlashError, "Invalid form submission")
		return
	}

	_, err := h.svc.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/login", FlashSuccess, "Registration successful! Please login.")
	case errors.Is(err, tracker.ErrUsernameTaken):
		h.redirectWithFlash(w, r, "/register", FlashError, "Username already exists. Choose another.")
	default:
		if ve, ok := tracker.IsValidation(err); ok {
			h.redirectWithFlash(w, r, "/register", FlashError, ve.Message)
			return
		}
		h.serverError(w, r, "Registration failed", err)
	}
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.logger(r).WithError(err).Warn("Failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionDuration / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
