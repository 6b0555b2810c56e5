package actions

import (
	"context"
	"errors"
	"strings"

	"taskmanager/models"
	"taskmanager/store"
	"taskmanager/utils"

	"github.com/google/uuid"
)

// resolveUser maps the caller identity to its user row. Every operation
// starts here.
func resolveUser(ctx context.Context, st store.Store, id *models.Identity) (*models.User, error) {
	if id == nil || strings.TrimSpace(id.Email) == "" {
		return nil, ErrUnauthenticated
	}

	user, err := st.FindUserByEmail(ctx, utils.NormalizeEmail(id.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &PersistenceError{Op: "find user", Err: err}
	}
	return user, nil
}

// loadOwnedTask loads the task named by rawID and checks that user owns it.
// A malformed id, a missing task and a task owned by someone else all
// return ErrForbidden so callers cannot probe for other users' tasks.
func loadOwnedTask(ctx context.Context, st store.Store, user *models.User, rawID string) (*models.Task, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrForbidden
	}

	task, err := st.FindTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, &PersistenceError{Op: "find task", Err: err}
	}
	if task.UserID != user.ID {
		return nil, ErrForbidden
	}
	return task, nil
}
