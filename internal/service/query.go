package service

import (
	"slices"
	"strings"
	"todoTracker/internal/models/task"
)

// TaskFilter - nil-поля не участвуют в отборе
type TaskFilter struct {
	Priority    *task.Priority
	Category    *task.Category
	DueDate     *task.Date
	IsCompleted *bool
}

func (f TaskFilter) Match(t *task.Task) bool {
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*f.DueDate)) {
		return false
	}
	if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
		return false
	}
	return true
}

type SortField string
type SortOrder string

const SortByName SortField = "name"
const SortByPriority SortField = "priority"
const SortByCategory SortField = "category"
const SortByDueDate SortField = "dueDate"

const OrderAsc SortOrder = "asc"
const OrderDesc SortOrder = "desc"

func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, true
	case "priority":
		return SortByPriority, true
	case "category":
		return SortByCategory, true
	case "duedate", "due_date":
		return SortByDueDate, true
	default:
		return "", false
	}
}

// ParseSortOrder: пустая строка означает asc
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return OrderAsc, true
	case "desc":
		return OrderDesc, true
	default:
		return "", false
	}
}

func FilterTasks(tasks []*task.Task, filter TaskFilter) []*task.Task {
	res := []*task.Task{}
	for _, t := range tasks {
		if filter.Match(t) {
			res = append(res, t)
		}
	}
	return res
}

// SortTasks возвращает отсортированную копию. Сортировка стабильная,
// задачи без срока всегда в конце, в том числе при desc.
func SortTasks(tasks []*task.Task, field SortField, order SortOrder) []*task.Task {
	res := slices.Clone(tasks)
	if res == nil {
		res = []*task.Task{}
	}
	sign := 1
	if order == OrderDesc {
		sign = -1
	}

	slices.SortStableFunc(res, func(a, b *task.Task) int {
		switch field {
		case SortByName:
			return sign * strings.Compare(a.Name, b.Name)
		case SortByPriority:
			return sign * (a.Priority.Rank() - b.Priority.Rank())
		case SortByCategory:
			return sign * (a.Category.Rank() - b.Category.Rank())
		case SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return sign * a.DueDate.Compare(*b.DueDate)
		}
		return 0
	})
	return res
}

func SearchByName(tasks []*task.Task, query string) []*task.Task {
	needle := strings.ToLower(query)
	res := []*task.Task{}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			res = append(res, t)
		}
	}
	return res
}

func DueOn(tasks []*task.Task, date task.Date) []*task.Task {
	return FilterTasks(tasks, TaskFilter{DueDate: &date})
}

func OverdueOn(tasks []*task.Task, today task.Date) []*task.Task {
	res := []*task.Task{}
	for _, t := range tasks {
		if t.IsOverdue(today) {
			res = append(res, t)
		}
	}
	return res
}
