package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"
	"todoTracker/internal/migrations"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/task/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	connString string
	ctx        context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// схема создаётся теми же миграциями, что и в рабочем режиме
	require.NoError(s.T(), migrations.Up(migrations.Postgres, s.connString))

	s.storage, err = postgres.New(s.ctx, s.connString, postgres.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицу и сбрасывает счётчик id
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "TRUNCATE tasks RESTART IDENTITY")
	require.NoError(s.T(), err)
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(PostgresTestSuite))
}

func newTask(name string) *task.Task {
	due := task.DateOf(time.Now()).AddDays(2)
	return task.New(name,
		task.WithDescription("описание"),
		task.WithDueDate(&due),
		task.WithPriority(task.PriorityHigh),
		task.WithCategory(task.CategoryStudy),
	)
}

// TestStorage_Create тестирует создание задачи
func (s *PostgresTestSuite) TestStorage_Create() {
	ctx := context.Background()

	taskToCreate := newTask("Test Task")
	err := s.storage.Create(ctx, taskToCreate)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), taskToCreate.ID)
	assert.False(s.T(), taskToCreate.CreatedAt.IsZero())

	retrieved, err := s.storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Test Task", retrieved.Name)
	assert.Equal(s.T(), "описание", retrieved.Description)
	assert.Equal(s.T(), task.PriorityHigh, retrieved.Priority)
	assert.Equal(s.T(), task.CategoryStudy, retrieved.Category)
	require.NotNil(s.T(), retrieved.DueDate)
	assert.Equal(s.T(), taskToCreate.DueDate.String(), retrieved.DueDate.String())
	assert.Nil(s.T(), retrieved.UpdatedAt)
}

// TestStorage_Create_WithoutDueDate проверяет NULL в due_date
func (s *PostgresTestSuite) TestStorage_Create_WithoutDueDate() {
	ctx := context.Background()

	taskToCreate := task.New("no date", task.WithPriority(task.PriorityLow), task.WithCategory(task.CategoryWork))
	require.NoError(s.T(), s.storage.Create(ctx, taskToCreate))

	retrieved, err := s.storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), retrieved.DueDate)
	assert.Equal(s.T(), "", retrieved.Description)
}

// TestStorage_GetByID тестирует отсутствующую задачу
func (s *PostgresTestSuite) TestStorage_GetByID_NotFound() {
	_, err := s.storage.GetByID(context.Background(), 12345)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// TestStorage_Update тестирует обновление задачи
func (s *PostgresTestSuite) TestStorage_Update() {
	ctx := context.Background()

	taskToCreate := newTask("Original Name")
	require.NoError(s.T(), s.storage.Create(ctx, taskToCreate))

	taskToCreate.Name = "Updated Name"
	taskToCreate.IsCompleted = true
	taskToCreate.DueDate = nil
	require.NoError(s.T(), s.storage.Update(ctx, taskToCreate))
	assert.NotNil(s.T(), taskToCreate.UpdatedAt)

	retrieved, err := s.storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Updated Name", retrieved.Name)
	assert.True(s.T(), retrieved.IsCompleted)
	assert.Nil(s.T(), retrieved.DueDate)
	assert.NotNil(s.T(), retrieved.UpdatedAt)

	ghost := newTask("ghost")
	ghost.ID = 999
	assert.ErrorIs(s.T(), s.storage.Update(ctx, ghost), repository.ErrNotFound)
}

// TestStorage_GetByName тестирует поиск первой задачи по имени
func (s *PostgresTestSuite) TestStorage_GetByName() {
	ctx := context.Background()

	first := newTask("Gym")
	second := newTask("Gym")
	require.NoError(s.T(), s.storage.Create(ctx, first))
	require.NoError(s.T(), s.storage.Create(ctx, second))

	found, err := s.storage.GetByName(ctx, "Gym")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.ID, found.ID)

	_, err = s.storage.GetByName(ctx, "Yoga")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// TestStorage_GetAll тестирует порядок добавления
func (s *PostgresTestSuite) TestStorage_GetAll() {
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(s.T(), s.storage.Create(ctx, newTask(fmt.Sprintf("Task %d", i))))
	}

	tasks, err := s.storage.GetAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), tasks, 5)
	for i, t := range tasks {
		assert.Equal(s.T(), fmt.Sprintf("Task %d", i+1), t.Name)
	}
}

// TestStorage_Delete тестирует удаление по ID и по имени
func (s *PostgresTestSuite) TestStorage_Delete() {
	ctx := context.Background()

	toDelete := newTask("Task to delete")
	require.NoError(s.T(), s.storage.Create(ctx, toDelete))
	require.NoError(s.T(), s.storage.Delete(ctx, toDelete.ID))
	assert.ErrorIs(s.T(), s.storage.Delete(ctx, toDelete.ID), repository.ErrNotFound)

	for _, name := range []string{"Laundry", "Clean", "Laundry"} {
		require.NoError(s.T(), s.storage.Create(ctx, newTask(name)))
	}
	removed, err := s.storage.DeleteByName(ctx, "Laundry")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, removed)

	removed, err = s.storage.DeleteByName(ctx, "Laundry")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
	assert.Equal(s.T(), 0, removed)

	// id удалённых задач не переиспользуются
	next := newTask("next")
	require.NoError(s.T(), s.storage.Create(ctx, next))
	assert.Equal(s.T(), int64(5), next.ID)
}

// TestStorage_HealthCheck тестирует проверку соединения
func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(context.Background()))
}
