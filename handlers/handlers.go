package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"taskmanager/actions"
	"taskmanager/models"
	"taskmanager/utils"

	"github.com/gorilla/mux"
)

// Check is a named readiness probe for /healthz.
type Check func(ctx context.Context) error

type Deps struct {
	Tasks     *actions.TaskService
	Users     *actions.UserService
	Sessions  *utils.SessionManager
	Cache     *utils.ViewCache
	Templates *template.Template
	Log       *slog.Logger
	Checks    map[string]Check
}

// Handler serves the pages. It keeps no per-request state.
type Handler struct {
	tasks    *actions.TaskService
	users    *actions.UserService
	sessions *utils.SessionManager
	cache    *utils.ViewCache
	tmpl     *template.Template
	log      *slog.Logger
	checks   map[string]Check
	now      func() time.Time
}

func New(d Deps) *Handler {
	return &Handler{
		tasks:    d.Tasks,
		users:    d.Users,
		sessions: d.Sessions,
		cache:    d.Cache,
		tmpl:     d.Templates,
		log:      d.Log,
		checks:   d.Checks,
		now:      time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(h.logRequests, h.gate)

	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/sign-up", h.SignUpPage).Methods(http.MethodGet)
	auth.HandleFunc("/sign-up", h.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	app := r.PathPrefix("/app").Subrouter()
	app.Use(h.requireCSRF)
	app.HandleFunc("", h.Dashboard).Methods(http.MethodGet)
	app.HandleFunc("/", h.Dashboard).Methods(http.MethodGet)
	app.HandleFunc("/tasks", h.TasksPage).Methods(http.MethodGet)
	app.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	app.HandleFunc("/tasks/toggle", h.ToggleTask).Methods(http.MethodPost)
	app.HandleFunc("/tasks/delete", h.DeleteTask).Methods(http.MethodPost)
	app.HandleFunc("/tasks/{id}", h.UpdateTask).Methods(http.MethodPost)

	return r
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", h.page(r, ""))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", "check", name, "error", err)
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

// page prefills the layout fields every template needs.
func (h *Handler) page(r *http.Request, title string) models.PageData {
	data := models.PageData{Title: title, Form: map[string]string{}}
	if s := sessionFrom(r.Context()); s != nil {
		data.IsLoggedIn = true
		data.Email = s.Email
		data.CSRFtoken = s.CSRFToken
	}
	return data
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data models.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("rendering template", "template", name, "error", err)
	}
}

// redirect sends the browser to target. htmx requests get an HX-Redirect
// header instead of a 303.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
