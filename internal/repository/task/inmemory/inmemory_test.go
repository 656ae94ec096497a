package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(name string) *task.Task {
	due := task.DateOf(time.Now()).AddDays(1)
	return task.New(name,
		task.WithDescription("описание "+name),
		task.WithDueDate(&due),
		task.WithPriority(task.PriorityMedium),
		task.WithCategory(task.CategoryWork),
	)
}

// TestTaskStorage_New тестирует создание хранилища
func TestTaskStorage_New(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NotNil(t, storage)
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание задачи и выдачу ID
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first := newTask("Study Java")
	second := newTask("Groceries")

	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	retrieved, err := storage.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Study Java", retrieved.Name)
	assert.Equal(t, first.DueDate.String(), retrieved.DueDate.String())
}

// TestTaskStorage_IDsNeverReused проверяет, что ID не переиспользуются после удаления
func TestTaskStorage_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first := newTask("a")
	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Delete(ctx, first.ID))

	second := newTask("b")
	require.NoError(t, storage.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)
}

// TestTaskStorage_SeparateInstances проверяет, что счётчик принадлежит экземпляру
func TestTaskStorage_SeparateInstances(t *testing.T) {
	ctx := context.Background()
	a := inmemory.NewTaskStorage()
	b := inmemory.NewTaskStorage()

	ta, tb := newTask("a"), newTask("b")
	require.NoError(t, a.Create(ctx, ta))
	require.NoError(t, b.Create(ctx, tb))

	assert.Equal(t, int64(1), ta.ID)
	assert.Equal(t, int64(1), tb.ID)
}

// TestTaskStorage_GetByID тестирует получение задачи по ID
func TestTaskStorage_GetByID(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask("Test Get Task")
	require.NoError(t, storage.Create(ctx, created))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)

	_, err = storage.GetByID(ctx, 999)
	assert.Equal(t, repository.ErrNotFound, err)
}

// TestTaskStorage_ReturnsCopies проверяет, что изменения снаружи не попадают в хранилище
func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask("Original")
	require.NoError(t, storage.Create(ctx, created))
	created.Name = "changed after create"

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	retrieved.Name = "changed after get"
	*retrieved.DueDate = retrieved.DueDate.AddDays(10)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Original", all[0].Name)
	assert.NotEqual(t, retrieved.DueDate.String(), all[0].DueDate.String())
}

// TestTaskStorage_GetByName тестирует поиск первой задачи с точным именем
func TestTaskStorage_GetByName(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first := newTask("Gym")
	second := newTask("Gym")
	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Create(ctx, second))

	found, err := storage.GetByName(ctx, "Gym")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = storage.GetByName(ctx, "gym")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Update тестирует обновление задачи
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask("Original Name")
	require.NoError(t, storage.Create(ctx, created))

	toUpdate, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	toUpdate.Name = "Updated Name"
	toUpdate.IsCompleted = true
	toUpdate.Priority = task.PriorityHigh

	require.NoError(t, storage.Update(ctx, toUpdate))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", retrieved.Name)
	assert.True(t, retrieved.IsCompleted)
	assert.Equal(t, task.PriorityHigh, retrieved.Priority)
	assert.NotNil(t, retrieved.UpdatedAt)
	assert.Equal(t, created.CreatedAt, retrieved.CreatedAt)
}

// TestTaskStorage_Update_NonExistent тестирует обновление несуществующей задачи
func TestTaskStorage_Update_NonExistent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	ghost := newTask("ghost")
	ghost.ID = 42

	err := storage.Update(ctx, ghost)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// TestTaskStorage_Delete тестирует удаление по ID
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask("Task to delete")
	require.NoError(t, storage.Create(ctx, created))

	require.NoError(t, storage.Delete(ctx, created.ID))
	_, err := storage.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, storage.Delete(ctx, created.ID), repository.ErrNotFound)
}

// TestTaskStorage_DeleteByName тестирует удаление всех задач с именем
func TestTaskStorage_DeleteByName(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	for _, name := range []string{"Laundry", "Clean", "Laundry", "laundry"} {
		require.NoError(t, storage.Create(ctx, newTask(name)))
	}

	removed, err := storage.DeleteByName(ctx, "Laundry")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Clean", all[0].Name)
	assert.Equal(t, "laundry", all[1].Name)

	removed, err = storage.DeleteByName(ctx, "Laundry")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, removed)
}

// TestTaskStorage_GetAll_PreservesOrder тестирует порядок после удаления из середины
func TestTaskStorage_GetAll_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	tasks := make([]*task.Task, 5)
	for i := range tasks {
		tasks[i] = newTask(fmt.Sprintf("Task %d", i))
		require.NoError(t, storage.Create(ctx, tasks[i]))
	}

	require.NoError(t, storage.Delete(ctx, tasks[2].ID))

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"Task 0", "Task 1", "Task 3", "Task 4"},
		[]string{all[0].Name, all[1].Name, all[2].Name, all[3].Name})
}

// TestTaskStorage_ConcurrentAccess тестирует конкурентный доступ
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	const workers = 10
	const perWorker = 20
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				created := newTask(fmt.Sprintf("worker-%d-%d", workerID, i))
				if err := storage.Create(ctx, created); err != nil {
					t.Errorf("create: %v", err)
					return
				}
				if _, err := storage.GetAll(ctx); err != nil {
					t.Errorf("get all: %v", err)
					return
				}
				created.IsCompleted = true
				if err := storage.Update(ctx, created); err != nil {
					t.Errorf("update: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers*perWorker)

	seen := make(map[int64]bool)
	for _, tk := range all {
		assert.False(t, seen[tk.ID], "дубликат ID %d", tk.ID)
		seen[tk.ID] = true
		assert.True(t, tk.IsCompleted)
	}
}
