package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const selectColumns = `SELECT id, name, description, is_completed, due_date, priority, category, created_at, updated_at FROM tasks`

// taskRow - строка таблицы tasks, даты лежат в TEXT
type taskRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	IsCompleted bool           `db:"is_completed"`
	DueDate     sql.NullString `db:"due_date"`
	Priority    string         `db:"priority"`
	Category    string         `db:"category"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
}

func (r taskRow) toTask() (*task.Task, error) {
	t := &task.Task{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
		Priority:    task.Priority(r.Priority),
		Category:    task.Category(r.Category),
	}

	if r.DueDate.Valid {
		d, err := task.ParseDate(r.DueDate.String)
		if err != nil {
			return nil, err
		}
		t.DueDate = &d
	}

	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("разбор created_at: %w", err)
	}
	t.CreatedAt = createdAt

	if r.UpdatedAt.Valid {
		updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("разбор updated_at: %w", err)
		}
		t.UpdatedAt = &updatedAt
	}
	return t, nil
}

type Storage struct {
	db *sqlx.DB
}

// New открывает файл базы. Схему создают миграции до вызова New.
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err)
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// одна запись за раз, иначе SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Открыта база SQLite", zap.String("path", path))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие базы SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (name, description, is_completed, due_date, priority, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		taskToCreate.Name,
		taskToCreate.Description,
		taskToCreate.IsCompleted,
		dateParam(taskToCreate.DueDate),
		string(taskToCreate.Priority),
		string(taskToCreate.Category),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("получение id задачи: %w", err)
	}

	taskToCreate.ID = id
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = nil
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		SET name = ?, description = ?, is_completed = ?, due_date = ?, priority = ?, category = ?, updated_at = ?
		WHERE id = ?`,
		taskToUpdate.Name,
		taskToUpdate.Description,
		taskToUpdate.IsCompleted,
		dateParam(taskToUpdate.DueDate),
		string(taskToUpdate.Priority),
		string(taskToUpdate.Category),
		now.Format(time.RFC3339Nano),
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if err := notFoundIfNone(res); err != nil {
		return err
	}

	taskToUpdate.UpdatedAt = &now
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	return s.getOne(ctx, selectColumns+` WHERE id = ?`, id)
}

func (s *Storage) GetByName(ctx context.Context, name string) (*task.Task, error) {
	return s.getOne(ctx, selectColumns+` WHERE name = ? ORDER BY id LIMIT 1`, name)
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, selectColumns+` ORDER BY id`); err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTask()
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err, zap.Int64("task_id", row.ID))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return notFoundIfNone(res)
}

func (s *Storage) DeleteByName(ctx context.Context, name string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE name = ?`, name)
	if err != nil {
		logger.Error("Repository: Удаление задач по имени", err)
		return 0, fmt.Errorf("удаление задач по имени: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("количество удалённых строк: %w", err)
	}
	if affected == 0 {
		return 0, repo.ErrNotFound
	}
	return int(affected), nil
}

func (s *Storage) getOne(ctx context.Context, query string, arg any) (*task.Task, error) {
	var row taskRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return row.toTask()
}

func notFoundIfNone(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("количество изменённых строк: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func dateParam(d *task.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
