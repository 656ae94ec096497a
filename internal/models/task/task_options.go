package task

type TaskOption func(*Task)

// New собирает задачу; nil-опции пропускаются
func New(name string, options ...TaskOption) *Task {
	t := &Task{Name: name}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
	return t
}

func WithName(name string) TaskOption {
	return func(task *Task) {
		task.Name = name
	}
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

func WithDueDate(dueDate *Date) TaskOption {
	if dueDate == nil {
		return nil
	}
	d := *dueDate
	return func(task *Task) {
		task.DueDate = &d
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithCategory(category Category) TaskOption {
	if category == "" {
		return nil
	}
	return func(task *Task) {
		task.Category = category
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(task *Task) {
		task.IsCompleted = completed
	}
}
