package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = time.Millisecond * 100

const selectColumns = `SELECT
				id,
				name,
				description,
				is_completed,
				due_date,
				priority,
				category,
				created_at,
				updated_at
				FROM tasks`

type Storage struct {
	pool *pgxpool.Pool
}

// PoolOptions - нулевые значения заменяются значениями по умолчанию
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func New(ctx context.Context, connString string, opts PoolOptions) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(name, description, is_completed, due_date, priority, category)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Name,
		taskToCreate.Description,
		taskToCreate.IsCompleted,
		dateParam(taskToCreate.DueDate),
		string(taskToCreate.Priority),
		string(taskToCreate.Category),
	).Scan(&taskToCreate.ID, &taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	taskToCreate.UpdatedAt = nil

	warnIfSlow(start)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET name = $1,
				description = $2,
				is_completed = $3,
				due_date = $4,
				priority = $5,
				category = $6,
				updated_at = NOW()
			WHERE id = $7
			RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Name,
		taskToUpdate.Description,
		taskToUpdate.IsCompleted,
		dateParam(taskToUpdate.DueDate),
		string(taskToUpdate.Priority),
		string(taskToUpdate.Category),
		taskToUpdate.ID,
	).Scan(&taskToUpdate.CreatedAt, &taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	t, err := scanTask(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return t, nil
}

func (s *Storage) GetByName(ctx context.Context, name string) (*task.Task, error) {
	start := time.Now()

	t, err := scanTask(s.pool.QueryRow(ctx, selectColumns+` WHERE name = $1 ORDER BY id LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи по имени: %w", err)
	}

	warnIfSlow(start)
	return t, nil
}

// порядок по id совпадает с порядком добавления
func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) DeleteByName(ctx context.Context, name string) (int, error) {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE name = $1`, name)
	if err != nil {
		logger.Error("Repository: Удаление задач по имени", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("удаление задач по имени: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, repo.ErrNotFound
	}

	warnIfSlow(start)
	return int(tag.RowsAffected()), nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var dueDate *time.Time
	var priority, category string

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.IsCompleted,
		&dueDate,
		&priority,
		&category,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate != nil {
		d := task.DateOf(*dueDate)
		t.DueDate = &d
	}
	t.Priority = task.Priority(priority)
	t.Category = task.Category(category)
	return t, nil
}

func dateParam(d *task.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
