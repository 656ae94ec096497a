package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"todoTracker/internal/migrations"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/task/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.db")
	require.NoError(t, migrations.Up(migrations.SQLite, path))

	storage, err := sqlite.New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func newTask(name string) *task.Task {
	due := task.NewDate(2031, 5, 17)
	return task.New(name,
		task.WithDescription("описание"),
		task.WithDueDate(&due),
		task.WithPriority(task.PriorityLow),
		task.WithCategory(task.CategoryPersonal),
	)
}

func TestStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)
	require.NoError(t, storage.HealthCheck(ctx))

	created := newTask("Read a book")
	require.NoError(t, storage.Create(ctx, created))
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read a book", retrieved.Name)
	assert.Equal(t, "описание", retrieved.Description)
	assert.Equal(t, "2031-05-17", retrieved.DueDate.String())
	assert.Equal(t, task.PriorityLow, retrieved.Priority)
	assert.Equal(t, task.CategoryPersonal, retrieved.Category)
	assert.False(t, retrieved.IsCompleted)
	assert.Nil(t, retrieved.UpdatedAt)
	assert.True(t, created.CreatedAt.Equal(retrieved.CreatedAt))

	_, err = storage.GetByID(ctx, 77)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_NullDueDate(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	created := task.New("someday", task.WithPriority(task.PriorityMedium), task.WithCategory(task.CategoryHealth))
	require.NoError(t, storage.Create(ctx, created))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.DueDate)
}

func TestStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	created := newTask("old")
	require.NoError(t, storage.Create(ctx, created))

	created.Name = "new"
	created.IsCompleted = true
	created.DueDate = nil
	created.Priority = task.PriorityHigh
	require.NoError(t, storage.Update(ctx, created))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", retrieved.Name)
	assert.True(t, retrieved.IsCompleted)
	assert.Nil(t, retrieved.DueDate)
	assert.Equal(t, task.PriorityHigh, retrieved.Priority)
	assert.NotNil(t, retrieved.UpdatedAt)

	ghost := newTask("ghost")
	ghost.ID = 500
	assert.ErrorIs(t, storage.Update(ctx, ghost), repository.ErrNotFound)
}

func TestStorage_GetByNameAndAll(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	for _, name := range []string{"b", "a", "b"} {
		require.NoError(t, storage.Create(ctx, newTask(name)))
	}

	found, err := storage.GetByName(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)

	_, err = storage.GetByName(ctx, "c")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID})
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	for _, name := range []string{"x", "y", "x"} {
		require.NoError(t, storage.Create(ctx, newTask(name)))
	}

	require.NoError(t, storage.Delete(ctx, 2))
	assert.ErrorIs(t, storage.Delete(ctx, 2), repository.ErrNotFound)

	removed, err := storage.DeleteByName(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = storage.DeleteByName(ctx, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// AUTOINCREMENT не выдаёт id повторно
	next := newTask("z")
	require.NoError(t, storage.Create(ctx, next))
	assert.Equal(t, int64(4), next.ID)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
