package actions

import (
	"context"
	"testing"
	"time"

	"taskmanager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	res := f.tasks.CreateTask(ctx, alice, CreateTaskInput{
		Title:       "  Buy milk  ",
		Description: "semi-skimmed",
		DueDate:     "2026-10-20",
	})
	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Error)

	user, err := f.store.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.Task.UserID)
	assert.Equal(t, "Buy milk", res.Task.Title)
	assert.False(t, res.Task.Completed)
	require.NotNil(t, res.Task.DueDate)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), *res.Task.DueDate)
	assert.False(t, res.Task.CreatedAt.IsZero())

	assert.Equal(t, []invalidation{{ScopeApp, "alice@example.com"}}, f.views.calls)
}

func TestCreateTask_Failures(t *testing.T) {
	tests := []struct {
		name    string
		id      *models.Identity
		input   CreateTaskInput
		failOn  string
		wantErr string
	}{
		{
			name:    "empty title",
			id:      &models.Identity{Email: "alice@example.com"},
			input:   CreateTaskInput{Title: ""},
			wantErr: "Title is required",
		},
		{
			name:    "whitespace title",
			id:      &models.Identity{Email: "alice@example.com"},
			input:   CreateTaskInput{Title: " \t\n "},
			wantErr: "Title is required",
		},
		{
			name:    "no session",
			id:      nil,
			input:   CreateTaskInput{Title: "Buy milk"},
			wantErr: "You must be logged in to create a task",
		},
		{
			name:    "session without email",
			id:      &models.Identity{},
			input:   CreateTaskInput{Title: "Buy milk"},
			wantErr: "You must be logged in to create a task",
		},
		{
			name:    "unknown user",
			id:      &models.Identity{Email: "ghost@example.com"},
			input:   CreateTaskInput{Title: "Buy milk"},
			wantErr: "User not found",
		},
		{
			name:    "storage failure is not leaked",
			id:      &models.Identity{Email: "alice@example.com"},
			input:   CreateTaskInput{Title: "Buy milk"},
			failOn:  "CreateTask",
			wantErr: "Failed to create task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.register(t, "alice@example.com")
			if tt.failOn != "" {
				f.store.failOn[tt.failOn] = true
			}
			before := f.store.writeCount()

			res := f.tasks.CreateTask(context.Background(), tt.id, tt.input)

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.Nil(t, res.Task)
			assert.Equal(t, before, f.store.writeCount(), "no write expected")
			assert.Zero(t, f.views.count())
		})
	}
}

func TestCreateTask_InvalidDueDateIsIgnored(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	res := f.tasks.CreateTask(context.Background(), alice, CreateTaskInput{Title: "Call mum", DueDate: "next tuesday"})
	require.True(t, res.Success, res.Error)
	assert.Nil(t, res.Task.DueDate)
}

func TestToggleTaskStatus_IsAnInvolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	task := f.createTask(t, alice, "Buy milk")

	f.tasks.ToggleTaskStatus(ctx, alice, task.ID.String())
	got, _ := f.store.task(task.ID)
	assert.True(t, got.Completed)

	f.tasks.ToggleTaskStatus(ctx, alice, task.ID.String())
	got, _ = f.store.task(task.ID)
	assert.False(t, got.Completed)

	// create + two toggles
	assert.Equal(t, 3, f.views.count())
}

func TestToggleTaskStatus_SilentNoOps(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	task := f.createTask(t, alice, "Buy milk")

	tests := []struct {
		name   string
		id     *models.Identity
		taskID string
	}{
		{"other user's session", bob, task.ID.String()},
		{"no session", nil, task.ID.String()},
		{"unknown user", &models.Identity{Email: "ghost@example.com"}, task.ID.String()},
		{"missing id", alice, ""},
		{"malformed id", alice, "not-a-uuid"},
		{"unknown task", alice, uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.writeCount()
			calls := f.views.count()

			assert.NotPanics(t, func() {
				f.tasks.ToggleTaskStatus(context.Background(), tt.id, tt.taskID)
			})

			got, ok := f.store.task(task.ID)
			require.True(t, ok)
			assert.False(t, got.Completed)
			assert.Equal(t, before, f.store.writeCount())
			assert.Equal(t, calls, f.views.count())
		})
	}
}

func TestToggleTaskStatus_StorageFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	task := f.createTask(t, alice, "Buy milk")
	f.store.failOn["UpdateTask"] = true

	assert.NotPanics(t, func() {
		f.tasks.ToggleTaskStatus(context.Background(), alice, task.ID.String())
	})
	got, _ := f.store.task(task.ID)
	assert.False(t, got.Completed)
}

func TestGetTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	f.createTask(t, alice, "first")
	f.createTask(t, bob, "bob's task")
	f.createTask(t, alice, "second")
	f.createTask(t, alice, "third")

	res := f.tasks.GetTasks(ctx, alice)
	require.Empty(t, res.Error)
	require.Len(t, res.Tasks, 3)

	user, err := f.store.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	for i, task := range res.Tasks {
		assert.Equal(t, user.ID, task.UserID)
		if i > 0 {
			assert.False(t, task.CreatedAt.After(res.Tasks[i-1].CreatedAt), "tasks must be newest first")
		}
	}
	assert.Equal(t, "third", res.Tasks[0].Title)
	assert.Equal(t, "first", res.Tasks[2].Title)
}

func TestGetTasks_Errors(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	res := f.tasks.GetTasks(context.Background(), nil)
	assert.Equal(t, "You must be logged in to view tasks", res.Error)
	assert.Nil(t, res.Tasks)

	res = f.tasks.GetTasks(context.Background(), &models.Identity{Email: "ghost@example.com"})
	assert.Equal(t, "User not found", res.Error)

	f.store.failOn["FindTasksByUserID"] = true
	res = f.tasks.GetTasks(context.Background(), &models.Identity{Email: "alice@example.com"})
	assert.Equal(t, "Failed to fetch tasks", res.Error)
}

func TestGetTasks_EmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	res := f.tasks.GetTasks(context.Background(), alice)
	require.Empty(t, res.Error)
	assert.NotNil(t, res.Tasks)
	assert.Empty(t, res.Tasks)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	task := f.createTask(t, alice, "Buy milk")

	title := "  Buy oat milk "
	desc := "from the corner shop"
	done := true
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	dueRef := &due

	res := f.tasks.UpdateTask(ctx, alice, task.ID.String(), models.TaskUpdate{
		Title:       &title,
		Description: &desc,
		Completed:   &done,
		DueDate:     &dueRef,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Buy oat milk", res.Task.Title)
	assert.Equal(t, "from the corner shop", res.Task.Description)
	assert.True(t, res.Task.Completed)
	require.NotNil(t, res.Task.DueDate)
	assert.Equal(t, due, *res.Task.DueDate)
	assert.Equal(t, task.CreatedAt, res.Task.CreatedAt)

	// clearing the due date leaves other fields alone
	var noDate *time.Time
	res = f.tasks.UpdateTask(ctx, alice, task.ID.String(), models.TaskUpdate{DueDate: &noDate})
	require.True(t, res.Success, res.Error)
	assert.Nil(t, res.Task.DueDate)
	assert.Equal(t, "Buy oat milk", res.Task.Title)
}

func TestUpdateTask_OwnershipFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	task := f.createTask(t, alice, "Buy milk")

	title := "hijacked"
	upd := models.TaskUpdate{Title: &title}

	notOwned := f.tasks.UpdateTask(ctx, bob, task.ID.String(), upd)
	missing := f.tasks.UpdateTask(ctx, bob, uuid.NewString(), upd)
	malformed := f.tasks.UpdateTask(ctx, bob, "42", upd)

	assert.Equal(t, "Task not found or you don't have permission", notOwned.Error)
	assert.Equal(t, notOwned, missing)
	assert.Equal(t, notOwned, malformed)

	got, _ := f.store.task(task.ID)
	assert.Equal(t, "Buy milk", got.Title)
}

func TestUpdateTask_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	task := f.createTask(t, alice, "Buy milk")

	blank := "   "
	res := f.tasks.UpdateTask(ctx, alice, task.ID.String(), models.TaskUpdate{Title: &blank})
	assert.Equal(t, "Title is required", res.Error)

	res = f.tasks.UpdateTask(ctx, nil, task.ID.String(), models.TaskUpdate{})
	assert.Equal(t, "You must be logged in to update a task", res.Error)

	f.store.failOn["UpdateTask"] = true
	done := true
	res = f.tasks.UpdateTask(ctx, alice, task.ID.String(), models.TaskUpdate{Completed: &done})
	assert.Equal(t, "Failed to update task", res.Error)
	assert.False(t, res.Success)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	task := f.createTask(t, alice, "Buy milk")

	f.tasks.DeleteTask(ctx, bob, task.ID.String())
	_, ok := f.store.task(task.ID)
	assert.True(t, ok, "non-owner must not delete")

	f.tasks.DeleteTask(ctx, nil, task.ID.String())
	f.tasks.DeleteTask(ctx, alice, "")
	f.tasks.DeleteTask(ctx, alice, uuid.NewString())
	_, ok = f.store.task(task.ID)
	assert.True(t, ok)

	calls := f.views.count()
	f.tasks.DeleteTask(ctx, alice, task.ID.String())
	_, ok = f.store.task(task.ID)
	assert.False(t, ok)
	assert.Equal(t, calls+1, f.views.count())
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	created := f.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "Buy milk"})
	require.True(t, created.Success, created.Error)

	res := f.tasks.GetTasks(ctx, alice)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "Buy milk", res.Tasks[0].Title)
	assert.False(t, res.Tasks[0].Completed)

	f.tasks.ToggleTaskStatus(ctx, alice, res.Tasks[0].ID.String())
	res = f.tasks.GetTasks(ctx, alice)
	require.Len(t, res.Tasks, 1)
	assert.True(t, res.Tasks[0].Completed)

	f.tasks.DeleteTask(ctx, alice, res.Tasks[0].ID.String())
	res = f.tasks.GetTasks(ctx, alice)
	require.Empty(t, res.Error)
	assert.Empty(t, res.Tasks)
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *time.Time
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"garbage", "tomorrow", nil},
		{"impossible date", "2026-02-30", nil},
		{"date", "2026-10-20", ptr(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))},
		{"rfc3339", "2026-10-20T15:04:05Z", ptr(time.Date(2026, 10, 20, 15, 4, 5, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDueDate(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
		})
	}
}

func ptr[T any](v T) *T { return &v }
