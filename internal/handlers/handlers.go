package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"personal-tracker/internal/logging"
	"personal-tracker/internal/models"
	"personal-tracker/internal/sessions"
	"personal-tracker/internal/tracker"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// DefaultSessionDuration is how long sessions last unless configured (30 days).
	DefaultSessionDuration = 30 * 24 * time.Hour
)

var views = []string{"login.html", "register.html", "dashboard.html", "expenses.html", "study.html"}

// Options tune cookie and session behaviour.
type Options struct {
	SecureCookie    bool
	SessionDuration time.Duration
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	svc             *tracker.Service
	sessions        sessions.Store
	templates       map[string]*template.Template
	log             *logrus.Logger
	secureCookie    bool
	sessionDuration time.Duration
	now             func() time.Time
}

// NewHandlers parses every view against base.html from templates.
func NewHandlers(svc *tracker.Service, store sessions.Store, templates fs.FS, log *logrus.Logger, opts Options) (*Handlers, error) {
	h := &Handlers{
		svc:             svc,
		sessions:        store,
		templates:       make(map[string]*template.Template, len(views)),
		log:             log,
		secureCookie:    opts.SecureCookie,
		sessionDuration: opts.SessionDuration,
		now:             time.Now,
	}
	if h.sessionDuration <= 0 {
		h.sessionDuration = DefaultSessionDuration
	}

	for _, view := range views {
		tmpl, err := template.New(view).Funcs(templateFuncs).ParseFS(templates, "base.html", view)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		h.templates[view] = tmpl
	}
	return h, nil
}

var templateFuncs = template.FuncMap{
	"money": formatAmount,
	"percent": func(p float64) string {
		return fmt.Sprintf("%.1f", p)
	},
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func (h *Handlers) logger(r *http.Request) *logrus.Entry {
	entry := logging.FromContext(r.Context(), h.log)
	if user := GetUserFromContext(r); user != nil {
		entry = entry.WithField("user_id", user.ID)
	}
	return entry
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger(r).WithError(err).Error(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// page is what every template receives.
type page struct {
	Title string
	User  *models.User
	Flash *Flash
	Data  any
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName, title string, data any) {
	tmpl, ok := h.templates[viewName]
	if !ok {
		h.serverError(w, r, "Template error", fmt.Errorf("unknown view %s", viewName))
		return
	}
	p := page{
		Title: title,
		User:  GetUserFromContext(r),
		Flash: h.popFlash(w, r),
		Data:  data,
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, target, p); err != nil {
		h.logger(r).WithError(err).Error("Template execution error")
	}
}

// Health reports whether the store answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger(r).WithError(err).Warn("Health check failed")
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
