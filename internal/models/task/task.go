package task

import (
	"strings"
	"time"
)

type Task struct {
	ID          int64      `json:"id" db:"id" yaml:"id"`
	Name        string     `json:"name" db:"name" yaml:"name"`
	Description string     `json:"description" db:"description" yaml:"description"`
	IsCompleted bool       `json:"isCompleted" db:"is_completed" yaml:"isCompleted"`
	DueDate     *Date      `json:"dueDate" db:"due_date" yaml:"dueDate,omitempty"`
	Priority    Priority   `json:"priority" db:"priority" yaml:"priority"`
	Category    Category   `json:"category" db:"category" yaml:"category"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" yaml:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" db:"updated_at" yaml:"updatedAt,omitempty"`
}

type Priority string
type Category string

const PriorityLow Priority = "LOW"
const PriorityMedium Priority = "MEDIUM"
const PriorityHigh Priority = "HIGH"

const CategoryWork Category = "WORK"
const CategoryStudy Category = "STUDY"
const CategoryPersonal Category = "PERSONAL"
const CategoryHealth Category = "HEALTH"

// порядок объявления задаёт порядок сортировки
var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
var categories = []Category{CategoryWork, CategoryStudy, CategoryPersonal, CategoryHealth}

func Priorities() []Priority {
	return append([]Priority(nil), priorities...)
}

func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Rank возвращает позицию в объявлении или -1 для неизвестного значения
func (p Priority) Rank() int {
	for i, v := range priorities {
		if v == p {
			return i
		}
	}
	return -1
}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

func (c Category) Rank() int {
	for i, v := range categories {
		if v == c {
			return i
		}
	}
	return -1
}

func (c Category) Valid() bool {
	return c.Rank() >= 0
}

// ParsePriority принимает имя в любом регистре
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Clone возвращает независимую копию задачи
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		c.UpdatedAt = &u
	}
	return &c
}

// IsOverdue: срок прошёл, а задача не выполнена
func (t *Task) IsOverdue(today Date) bool {
	return !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(today)
}
