package handlers

import (
	"context"
	"net/http"
	"strings"

	"taskmanager/actions"
	"taskmanager/models"
	"taskmanager/utils"

	"github.com/gorilla/mux"
)

const (
	pageDashboard = "dashboard.html"
	pageTasks     = "tasks.html"
)

// loadTasks reads the caller's task list through the view cache.
func (h *Handler) loadTasks(ctx context.Context, s *models.Session) actions.TasksResult {
	if h.cache != nil {
		var tasks []models.Task
		found, err := h.cache.Get(ctx, actions.ScopeApp, s.Email, &tasks)
		if err != nil {
			h.log.Warn("reading view cache", "user", s.Email, "error", err)
		} else if found {
			return actions.TasksResult{Tasks: tasks}
		}
	}

	res := h.tasks.GetTasks(ctx, utils.Identity(s))
	if res.Error == "" && h.cache != nil {
		if err := h.cache.Set(ctx, actions.ScopeApp, s.Email, res.Tasks); err != nil {
			h.log.Warn("writing view cache", "user", s.Email, "error", err)
		}
	}
	return res
}

// taskPage renders the dashboard or the task list. errMsg and form carry a
// rejected submission back to the user.
func (h *Handler) taskPage(w http.ResponseWriter, r *http.Request, name string, status int, errMsg string, form map[string]string) {
	s := sessionFrom(r.Context())
	res := h.loadTasks(r.Context(), s)

	var data models.PageData
	if name == pageDashboard {
		data = h.page(r, "Dashboard")
		data.Callback = "/app"
		summary := actions.Summarize(res.Tasks, h.now())
		data.Summary = &summary
	} else {
		data = h.page(r, "Tasks")
		data.Callback = "/app/tasks"
		data.Pending, data.Completed = actions.SplitByStatus(res.Tasks)
	}
	data.Tasks = res.Tasks

	data.Error = res.Error
	if errMsg != "" {
		data.Error = errMsg
	}
	for k, v := range form {
		data.Form[k] = v
	}
	h.render(w, status, name, data)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.taskPage(w, r, pageDashboard, http.StatusOK, "", nil)
}

func (h *Handler) TasksPage(w http.ResponseWriter, r *http.Request) {
	h.taskPage(w, r, pageTasks, http.StatusOK, "", nil)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	in := actions.CreateTaskInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		DueDate:     r.PostFormValue("dueDate"),
	}
	next := utils.SafeRedirect(r.PostFormValue("next"), r.Host, "/app/tasks")

	res := h.tasks.CreateTask(r.Context(), utils.Identity(sessionFrom(r.Context())), in)
	if !res.OK() {
		page := pageTasks
		if next == "/app" {
			page = pageDashboard
		}
		form := map[string]string{
			"title":       in.Title,
			"description": in.Description,
			"dueDate":     in.DueDate,
		}
		h.taskPage(w, r, page, http.StatusUnprocessableEntity, res.Error, form)
		return
	}
	redirect(w, r, next)
}

// back returns the page a silent operation should land on.
func back(r *http.Request) string {
	return utils.SafeRedirect(r.Referer(), r.Host, "/app/tasks")
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	h.tasks.ToggleTaskStatus(r.Context(), utils.Identity(sessionFrom(r.Context())), r.PostFormValue("id"))
	redirect(w, r, back(r))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.tasks.DeleteTask(r.Context(), utils.Identity(sessionFrom(r.Context())), r.PostFormValue("id"))
	redirect(w, r, back(r))
}

// UpdateTask applies the submitted fields. Fields missing from the form are
// left unchanged; an empty dueDate clears the due date.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	upd := updateFromForm(r)

	res := h.tasks.UpdateTask(r.Context(), utils.Identity(sessionFrom(r.Context())), mux.Vars(r)["id"], upd)
	if !res.OK() {
		h.taskPage(w, r, pageTasks, http.StatusUnprocessableEntity, res.Error, nil)
		return
	}
	redirect(w, r, back(r))
}

func updateFromForm(r *http.Request) models.TaskUpdate {
	var upd models.TaskUpdate
	form := r.PostForm
	if form.Has("title") {
		v := form.Get("title")
		upd.Title = &v
	}
	if form.Has("description") {
		v := strings.TrimSpace(form.Get("description"))
		upd.Description = &v
	}
	if form.Has("completed") {
		v := parseBool(form.Get("completed"))
		upd.Completed = &v
	}
	if form.Has("dueDate") {
		due := actions.ParseDueDate(form.Get("dueDate"))
		upd.DueDate = &due
	}
	return upd
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
