package handlers

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"personal-tracker/internal/logging"
)

// Router wires every route. static is served under /static/.
func (h *Handlers) Router(static fs.FS) http.Handler {
	r := mux.NewRouter()
	r.Use(logging.Middleware(h.log))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Public routes
	r.HandleFunc("/register", h.RegisterForm).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)

	// Protected routes
	protect := func(path, method string, fn http.HandlerFunc) {
		r.Handle(path, h.AuthMiddleware(fn)).Methods(method)
	}
	protect("/", http.MethodGet, h.Dashboard)
	protect("/expenses", http.MethodGet, h.ListExpenses)
	protect("/expenses", http.MethodPost, h.CreateExpense)
	protect("/delete_expense/{id:[0-9]+}", http.MethodGet, h.DeleteExpense)
	protect("/study", http.MethodGet, h.ListTasks)
	protect("/study", http.MethodPost, h.CreateTask)
	protect("/toggle_task/{id:[0-9]+}", http.MethodGet, h.ToggleTask)
	protect("/delete_task/{id:[0-9]+}", http.MethodGet, h.DeleteTask)

	return r
}
