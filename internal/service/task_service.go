package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	rep "todoTracker/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type RepoType string

const InMemoryType RepoType = "inmemory"
const DBType RepoType = "postgres"
const SQLiteType RepoType = "sqlite"

// UpdateFields - полный набор изменяемых полей, обновление заменяет их все сразу
type UpdateFields struct {
	Name        string
	Description *string
	DueDate     *task.Date
	IsCompleted bool
	Priority    task.Priority
	Category    task.Category
}

type TaskService struct {
	repo     TaskRepository
	repoType RepoType
	now      func() time.Time
}

type ServiceOption func(*TaskService)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(repo TaskRepository, repoType RepoType, options ...ServiceOption) *TaskService {
	s := &TaskService{
		repo:     repo,
		repoType: repoType,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) Today() task.Date {
	return task.DateOf(s.now())
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t == nil {
		logger.Warn("Service: Попытка добавить пустую задачу")
		return nil, NewValidationError("task", "задача не может быть пустой")
	}

	if busErr := s.validate(t.Name, t.DueDate, t.Priority, t.Category); busErr != nil {
		logger.Warn("Service: Ошибка валидации при создании", zap.String("reason", busErr.Message))
		return nil, busErr
	}

	taskToCreate := t.Clone()
	taskToCreate.ID = 0
	taskToCreate.IsCompleted = false

	if err := s.repo.Create(ctx, taskToCreate); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача добавлена",
		zap.Int64("task_id", taskToCreate.ID),
		zap.String("name", taskToCreate.Name))
	return taskToCreate, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	logger.Debug("Service: Получены все задачи", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound(s.repoType, "id", id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) UpdateTaskByID(ctx context.Context, id int64, fields UpdateFields) (*task.Task, error) {
	existing, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, existing, fields, "id", id)
}

func (s *TaskService) UpdateTaskByName(ctx context.Context, name string, fields UpdateFields) (*task.Task, error) {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_name", name))
			return nil, NewNotFound(s.repoType, "name", name)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return s.apply(ctx, existing, fields, "name", name)
}

// apply проверяет все поля до изменения, при ошибке задача в хранилище не меняется
func (s *TaskService) apply(ctx context.Context, existing *task.Task, fields UpdateFields, key string, value any) (*task.Task, error) {
	if busErr := s.validate(fields.Name, fields.DueDate, fields.Priority, fields.Category); busErr != nil {
		logger.Warn("Service: Ошибка валидации при обновлении",
			zap.Int64("task_id", existing.ID),
			zap.String("reason", busErr.Message))
		return nil, busErr
	}
	if fields.Description == nil {
		logger.Warn("Service: Ошибка валидации при обновлении",
			zap.Int64("task_id", existing.ID),
			zap.String("field", "description"))
		return nil, NewValidationError("description", "описание должно быть задано")
	}

	updated := existing.Clone()
	updated.Name = fields.Name
	updated.Description = *fields.Description
	updated.DueDate = nil
	if fields.DueDate != nil {
		d := *fields.DueDate
		updated.DueDate = &d
	}
	updated.IsCompleted = fields.IsCompleted
	updated.Priority = fields.Priority
	updated.Category = fields.Category

	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(s.repoType, key, value)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	logger.Info("Service: Задача обновлена",
		zap.Int64("task_id", updated.ID),
		zap.String("name", updated.Name))
	return updated, nil
}

func (s *TaskService) DeleteTaskByID(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача для удаления не найдена", zap.Int64("target_id", id))
			return NewNotFound(s.repoType, "id", id)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}

// DeleteTaskByName удаляет все задачи с точно совпадающим именем
func (s *TaskService) DeleteTaskByName(ctx context.Context, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, NewValidationError("name", "имя не может быть пустым")
	}

	removed, err := s.repo.DeleteByName(ctx, name)
	if err != nil && !errors.Is(err, rep.ErrNotFound) {
		return 0, fmt.Errorf("удаление задач: %w", err)
	}
	if removed == 0 {
		logger.Info("Service: Задача для удаления не найдена", zap.String("target_name", name))
		return 0, NewNotFound(s.repoType, "name", name)
	}

	logger.Info("Service: Задачи удалены", zap.String("name", name), zap.Int("count", removed))
	return removed, nil
}

func (s *TaskService) FilterTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	res := FilterTasks(tasks, filter)
	logger.Info("Service: Фильтрация задач", zap.Int("found", len(res)))
	return res, nil
}

func (s *TaskService) SortTasks(ctx context.Context, sortBy, order string) ([]*task.Task, error) {
	field, ok := ParseSortField(sortBy)
	if !ok {
		return nil, NewValidationError("sortBy", fmt.Sprintf("неизвестное поле сортировки %q", sortBy))
	}
	direction, ok := ParseSortOrder(order)
	if !ok {
		return nil, NewValidationError("order", fmt.Sprintf("неизвестный порядок сортировки %q", order))
	}

	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Service: Сортировка задач",
		zap.String("field", string(field)),
		zap.String("order", string(direction)))
	return SortTasks(tasks, field, direction), nil
}

func (s *TaskService) SearchTasksByName(ctx context.Context, query string) ([]*task.Task, error) {
	if strings.TrimSpace(query) == "" {
		logger.Warn("Service: Пустой поисковый запрос")
		return nil, NewValidationError("query", "поисковый запрос не может быть пустым")
	}

	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	res := SearchByName(tasks, query)
	logger.Info("Service: Поиск задач по имени", zap.String("query", query), zap.Int("found", len(res)))
	return res, nil
}

func (s *TaskService) GetTasksDueTomorrow(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return DueOn(tasks, s.Today().AddDays(1)), nil
}

func (s *TaskService) GetOverdueTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return OverdueOn(tasks, s.Today()), nil
}

func (s *TaskService) validate(name string, dueDate *task.Date, priority task.Priority, category task.Category) *BusinessError {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "имя не может быть пустым")
	}
	if dueDate != nil && dueDate.Before(s.Today()) {
		return NewValidationError("dueDate", "срок не может быть в прошлом")
	}
	if priority == "" {
		return NewValidationError("priority", "приоритет должен быть задан")
	}
	if !priority.Valid() {
		return NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", priority))
	}
	if category == "" {
		return NewValidationError("category", "категория должна быть задана")
	}
	if !category.Valid() {
		return NewValidationError("category", fmt.Sprintf("неизвестная категория %q", category))
	}
	return nil
}
