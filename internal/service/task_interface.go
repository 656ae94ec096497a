package service

import (
	"context"
	"todoTracker/internal/models/task"
)

// TaskRepository - хранилище задач; порядок GetAll совпадает с порядком добавления
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, int64) (*task.Task, error)
	GetByName(context.Context, string) (*task.Task, error)
	GetAll(context.Context) ([]*task.Task, error)
	Delete(context.Context, int64) error
	DeleteByName(context.Context, string) (int, error)
}
