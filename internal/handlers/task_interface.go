package handlers

import (
	"context"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"
)

type Service interface {
	HealthCheck(context.Context) error
	Today() task.Date
	CreateTask(context.Context, *task.Task) (*task.Task, error)
	GetAllTasks(context.Context) ([]*task.Task, error)
	GetTaskByID(context.Context, int64) (*task.Task, error)
	UpdateTaskByID(context.Context, int64, service.UpdateFields) (*task.Task, error)
	UpdateTaskByName(context.Context, string, service.UpdateFields) (*task.Task, error)
	DeleteTaskByID(context.Context, int64) error
	DeleteTaskByName(context.Context, string) (int, error)
	FilterTasks(context.Context, service.TaskFilter) ([]*task.Task, error)
	SortTasks(context.Context, string, string) ([]*task.Task, error)
	SearchTasksByName(context.Context, string) ([]*task.Task, error)
}

var _ Service = (*service.TaskService)(nil)
