// Package actions holds the task and user operations behind the pages.
// Each operation takes the caller identity explicitly, performs one storage
// operation and returns a result value for the presentation layer.
package actions

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/store"
)

// ScopeApp names the cached views derived from a user's task list.
const ScopeApp = "/app"

const (
	msgUserNotFound  = "User not found"
	msgTitleRequired = "Title is required"
	msgNoPermission  = "Task not found or you don't have permission"
)

// Invalidator drops cached view data after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, scope, owner string) error
}

type TaskService struct {
	store store.Store
	views Invalidator
	log   *slog.Logger
}

// NewTaskService builds the task service. views may be nil when no view
// cache is configured.
func NewTaskService(st store.Store, views Invalidator, log *slog.Logger) *TaskService {
	return &TaskService{store: st, views: views, log: log}
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
}

// CreateTask creates a task owned by the caller.
func (s *TaskService) CreateTask(ctx context.Context, id *models.Identity, in CreateTaskInput) TaskResult {
	task, err := s.createTask(ctx, id, in)
	if err != nil {
		return TaskResult{Result: fail(s.message(err, "You must be logged in to create a task", "Failed to create task"))}
	}
	return TaskResult{Result: succeed(), Task: task}
}

func (s *TaskService) createTask(ctx context.Context, id *models.Identity, in CreateTaskInput) (*models.Task, error) {
	user, err := resolveUser(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Msg: msgTitleRequired}
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     ParseDueDate(in.DueDate),
		UserID:      user.ID,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, &PersistenceError{Op: "create task", Err: err}
	}

	s.invalidate(ctx, user)
	return task, nil
}

// ToggleTaskStatus flips the completed flag of one of the caller's tasks.
// It is silent: every failure is logged and dropped.
func (s *TaskService) ToggleTaskStatus(ctx context.Context, id *models.Identity, taskID string) {
	s.silent("toggle task", s.toggleTaskStatus(ctx, id, taskID))
}

func (s *TaskService) toggleTaskStatus(ctx context.Context, id *models.Identity, taskID string) error {
	user, err := resolveUser(ctx, s.store, id)
	if err != nil {
		return err
	}
	task, err := loadOwnedTask(ctx, s.store, user, taskID)
	if err != nil {
		return err
	}

	completed := !task.Completed
	if _, err := s.store.UpdateTask(ctx, task.ID, models.TaskUpdate{Completed: &completed}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return &PersistenceError{Op: "toggle task", Err: err}
	}

	s.invalidate(ctx, user)
	return nil
}

// GetTasks lists the caller's tasks, most recent first.
func (s *TaskService) GetTasks(ctx context.Context, id *models.Identity) TasksResult {
	user, err := resolveUser(ctx, s.store, id)
	if err != nil {
		return TasksResult{Error: s.message(err, "You must be logged in to view tasks", "Failed to fetch tasks")}
	}

	tasks, err := s.store.FindTasksByUserID(ctx, user.ID)
	if err != nil {
		err = &PersistenceError{Op: "list tasks", Err: err}
		return TasksResult{Error: s.message(err, "", "Failed to fetch tasks")}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return TasksResult{Tasks: tasks}
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (s *TaskService) UpdateTask(ctx context.Context, id *models.Identity, taskID string, upd models.TaskUpdate) TaskResult {
	task, err := s.updateTask(ctx, id, taskID, upd)
	if err != nil {
		return TaskResult{Result: fail(s.message(err, "You must be logged in to update a task", "Failed to update task"))}
	}
	return TaskResult{Result: succeed(), Task: task}
}

func (s *TaskService) updateTask(ctx context.Context, id *models.Identity, taskID string, upd models.TaskUpdate) (*models.Task, error) {
	user, err := resolveUser(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	task, err := loadOwnedTask(ctx, s.store, user, taskID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, &ValidationError{Msg: msgTitleRequired}
		}
		upd.Title = &title
	}

	updated, err := s.store.UpdateTask(ctx, task.ID, upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, &PersistenceError{Op: "update task", Err: err}
	}

	s.invalidate(ctx, user)
	return updated, nil
}

// DeleteTask removes one of the caller's tasks. Like ToggleTaskStatus it
// reports nothing back.
func (s *TaskService) DeleteTask(ctx context.Context, id *models.Identity, taskID string) {
	s.silent("delete task", s.deleteTask(ctx, id, taskID))
}

func (s *TaskService) deleteTask(ctx context.Context, id *models.Identity, taskID string) error {
	user, err := resolveUser(ctx, s.store, id)
	if err != nil {
		return err
	}
	task, err := loadOwnedTask(ctx, s.store, user, taskID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, task.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return &PersistenceError{Op: "delete task", Err: err}
	}

	s.invalidate(ctx, user)
	return nil
}

func (s *TaskService) invalidate(ctx context.Context, user *models.User) {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(ctx, ScopeApp, user.Email); err != nil {
		s.log.Warn("view invalidation failed", "scope", ScopeApp, "user", user.Email, "error", err)
	}
}

// message turns an operation error into the text shown to the caller.
// Storage failures are logged and replaced by failed.
func (s *TaskService) message(err error, unauthenticated, failed string) string {
	return userMessage(s.log, err, unauthenticated, failed)
}

func (s *TaskService) silent(op string, err error) {
	dropError(s.log, op, err)
}

func userMessage(log *slog.Logger, err error, unauthenticated, failed string) string {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return unauthenticated
	case errors.Is(err, ErrUserNotFound):
		return msgUserNotFound
	case errors.Is(err, ErrForbidden):
		return msgNoPermission
	case errors.As(err, &ve):
		return ve.Msg
	default:
		log.Error(strings.ToLower(failed), "error", err)
		return failed
	}
}

func dropError(log *slog.Logger, op string, err error) {
	if err == nil {
		return
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		log.Error(op+" failed", "error", err)
		return
	}
	log.Debug(op+" ignored", "reason", err)
}

// ParseDueDate accepts a calendar date (2006-01-02) or an RFC 3339
// timestamp. Anything else, including the empty string, means no due date.
func ParseDueDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
