// Package store holds the persistence layer for users and tasks.
package store

import (
	"context"
	"errors"
	"time"

	"taskmanager/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicated entry")
)

// queryTimeout bounds every single storage call.
const queryTimeout = 10 * time.Second

// Store is the persistence contract the actions package depends on.
// Lookups return ErrNotFound when no row matches; CreateUser returns
// ErrDuplicate when the email is taken.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	FindTaskByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	FindTasksByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, id uuid.UUID, upd models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
	Close() error
}
