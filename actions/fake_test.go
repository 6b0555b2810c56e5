package actions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"taskmanager/models"
	"taskmanager/store"
	"taskmanager/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("connection reset")

// memStore is an in-memory store.Store. failOn makes the named method
// return errBoom.
type memStore struct {
	mu     sync.Mutex
	users  map[string]models.User
	tasks  map[uuid.UUID]models.Task
	clock  time.Time
	writes int
	failOn map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]models.User{},
		tasks:  map[uuid.UUID]models.Task{},
		clock:  time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC),
		failOn: map[string]bool{},
	}
}

var _ store.Store = (*memStore)(nil)

func (m *memStore) fail(op string) error {
	if m.failOn[op] {
		return errBoom
	}
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindUserByEmail"); err != nil {
		return nil, err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return err
	}
	if _, ok := m.users[u.Email]; ok {
		return store.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	u.CreatedAt = m.clock
	m.users[u.Email] = *u
	m.writes++
	return nil
}

func (m *memStore) FindTaskByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindTaskByID"); err != nil {
		return nil, err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) FindTasksByUserID(_ context.Context, userID uuid.UUID) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindTasksByUserID"); err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateTask"); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	t.CreatedAt = m.clock
	m.tasks[t.ID] = *t
	m.writes++
	return nil
}

func (m *memStore) UpdateTask(_ context.Context, id uuid.UUID, upd models.TaskUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateTask"); err != nil {
		return nil, err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
	m.tasks[id] = t
	m.writes++
	return &t, nil
}

func (m *memStore) DeleteTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteTask"); err != nil {
		return err
	}
	if _, ok := m.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.tasks, id)
	m.writes++
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) task(id uuid.UUID) (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

type invalidation struct {
	scope, owner string
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []invalidation
}

func (r *recordingInvalidator) Invalidate(_ context.Context, scope, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invalidation{scope, owner})
	return nil
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) SendWelcome(_ context.Context, email, _ string) error {
	n.sent = append(n.sent, email)
	return n.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *memStore
	views    *recordingInvalidator
	notifier *recordingNotifier
	tasks    *TaskService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemStore(),
		views:    &recordingInvalidator{},
		notifier: &recordingNotifier{},
	}
	log := discardLogger()
	f.tasks = NewTaskService(f.store, f.views, log)
	f.users = NewUserService(f.store, utils.NewPasswordHasher(bcrypt.MinCost), f.notifier, log)
	return f
}

// register creates an account and returns the identity a session for it
// would resolve to.
func (f *fixture) register(t *testing.T, email string) *models.Identity {
	t.Helper()

	res := f.users.RegisterUser(context.Background(), RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "SecureP@ss123",
	})
	require.True(t, res.Success, res.Error)
	return &models.Identity{Email: email}
}

func (f *fixture) createTask(t *testing.T, id *models.Identity, title string) *models.Task {
	t.Helper()

	res := f.tasks.CreateTask(context.Background(), id, CreateTaskInput{Title: title})
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Task)
	return res.Task
}
