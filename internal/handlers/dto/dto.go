package dto

import (
	"time"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"
)

// CreateTaskRequest: enum-значения принимаются только в верхнем регистре
type CreateTaskRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	DueDate     *task.Date `json:"dueDate"`
	Priority    string     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	Category    string     `json:"category" validate:"required,oneof=WORK STUDY PERSONAL HEALTH"`
}

func (r CreateTaskRequest) ToTask() *task.Task {
	return task.New(r.Name,
		task.WithDescription(r.Description),
		task.WithDueDate(r.DueDate),
		task.WithPriority(task.Priority(r.Priority)),
		task.WithCategory(task.Category(r.Category)),
	)
}

// UpdateTaskRequest заменяет все изменяемые поля, description обязателен
type UpdateTaskRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description *string    `json:"description" validate:"required"`
	DueDate     *task.Date `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	Priority    string     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	Category    string     `json:"category" validate:"required,oneof=WORK STUDY PERSONAL HEALTH"`
}

func (r UpdateTaskRequest) ToFields() service.UpdateFields {
	return service.UpdateFields{
		Name:        r.Name,
		Description: r.Description,
		DueDate:     r.DueDate,
		IsCompleted: r.IsCompleted,
		Priority:    task.Priority(r.Priority),
		Category:    task.Category(r.Category),
	}
}

type TaskResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *task.Date `json:"dueDate"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	IsOverdue   bool       `json:"isOverdue"`
}

func FromTask(t *task.Task, today task.Date) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		IsOverdue:   t.IsOverdue(today),
	}
}

func FromTaskList(tasks []*task.Task, today task.Date) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, today)
	}
	return result
}

type DeleteByNameResponse struct {
	Name    string `json:"name"`
	Deleted int    `json:"deleted"`
}
