package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"go.uber.org/zap"
)

// Service - операции сервиса, которые нужны консоли
type Service interface {
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	GetAllTasks(ctx context.Context) ([]*task.Task, error)
	UpdateTaskByID(ctx context.Context, id int64, fields service.UpdateFields) (*task.Task, error)
	UpdateTaskByName(ctx context.Context, name string, fields service.UpdateFields) (*task.Task, error)
	DeleteTaskByID(ctx context.Context, id int64) error
	DeleteTaskByName(ctx context.Context, name string) (int, error)
	FilterTasks(ctx context.Context, filter service.TaskFilter) ([]*task.Task, error)
	SortTasks(ctx context.Context, sortBy, order string) ([]*task.Task, error)
	SearchTasksByName(ctx context.Context, query string) ([]*task.Task, error)
}

const mainMenu = `Choose an option:
1. Add Task
2. Delete Task
3. Update Task
4. List Tasks
5. Filter Tasks
6. Sort Tasks
7. Search Tasks
0. Exit`

const farewell = "Thank you for using my Todo List Application!"

// errInputClosed - ввод закончился, консоль завершает работу
var errInputClosed = errors.New("ввод закрыт")

type Console struct {
	svc Service
	in  *bufio.Scanner
	out io.Writer
}

// SyncWriter - общий вывод для меню и фоновых напоминаний, каждая запись целиком под одной блокировкой
type SyncWriter struct {
	mtx sync.Mutex
	out io.Writer
}

func NewSyncWriter(out io.Writer) *SyncWriter {
	return &SyncWriter{out: out}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.out.Write(p)
}

func New(svc Service, in io.Reader, out io.Writer) *Console {
	return &Console{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Run крутит меню до выбора 0, конца ввода или отмены ctx
func (c *Console) Run(ctx context.Context) error {
	logger.Info("Console: Сессия начата")
	defer logger.Info("Console: Сессия завершена")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, err := c.ask(mainMenu)
		if err != nil {
			return c.finish(err)
		}

		switch choice {
		case "1":
			err = c.addTask(ctx)
		case "2":
			err = c.deleteTask(ctx)
		case "3":
			err = c.updateTask(ctx)
		case "4":
			err = c.listTasks(ctx)
		case "5":
			err = c.filterTasks(ctx)
		case "6":
			err = c.sortTasks(ctx)
		case "7":
			err = c.searchTasks(ctx)
		case "0":
			c.println(farewell)
			return nil
		default:
			c.println("Invalid option. Please try again.")
		}
		if err != nil {
			return c.finish(err)
		}
	}
}

func (c *Console) finish(err error) error {
	if errors.Is(err, errInputClosed) {
		c.println(farewell)
		return nil
	}
	return err
}

func (c *Console) addTask(ctx context.Context) error {
	name, err := c.ask("Enter task name:")
	if err != nil {
		return err
	}
	description, err := c.ask("Enter task description:")
	if err != nil {
		return err
	}

	var dueDate *task.Date
	for {
		raw, err := c.ask("Enter task due date (yyyy-MM-dd), empty for none:")
		if err != nil {
			return err
		}
		d, ok, perr := parseOptionalDate(raw)
		if perr == nil {
			if ok {
				dueDate = &d
			}
			break
		}
		c.println("Invalid date format. Please enter the date in yyyy-MM-dd format.")
	}

	priority, err := c.askPriority("Enter task priority (LOW, MEDIUM, HIGH):")
	if err != nil {
		return err
	}
	category, err := c.askCategory("Enter task category (WORK, STUDY, PERSONAL, HEALTH):")
	if err != nil {
		return err
	}

	created, err := c.svc.CreateTask(ctx, task.New(name,
		task.WithDescription(description),
		task.WithDueDate(dueDate),
		task.WithPriority(priority),
		task.WithCategory(category),
	))
	if err != nil {
		c.printError(err)
		return nil
	}
	c.printf("Task added successfully! ID: %d\n", created.ID)
	return nil
}

func (c *Console) askPriority(prompt string) (task.Priority, error) {
	for {
		raw, err := c.ask(prompt)
		if err != nil {
			return "", err
		}
		if p, ok := task.ParsePriority(raw); ok {
			return p, nil
		}
		c.println("Invalid priority. Please enter LOW, MEDIUM, or HIGH.")
	}
}

func (c *Console) askCategory(prompt string) (task.Category, error) {
	for {
		raw, err := c.ask(prompt)
		if err != nil {
			return "", err
		}
		if cat, ok := task.ParseCategory(raw); ok {
			return cat, nil
		}
		c.println("Invalid category. Please enter WORK, STUDY, PERSONAL, or HEALTH.")
	}
}

func (c *Console) deleteTask(ctx context.Context) error {
	choice, err := c.ask("Delete by: 1. ID 2. Name")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		id, ok, err := c.askID("Enter task ID to delete:")
		if err != nil || !ok {
			return err
		}
		if err := c.svc.DeleteTaskByID(ctx, id); err != nil {
			c.printError(err)
			return nil
		}
		c.println("Task deleted successfully!")
	case "2":
		name, err := c.ask("Enter task name to delete:")
		if err != nil {
			return err
		}
		removed, err := c.svc.DeleteTaskByName(ctx, name)
		if err != nil {
			c.printError(err)
			return nil
		}
		c.printf("Deleted %d task(s) named '%s'.\n", removed, name)
	default:
		c.println("Invalid choice")
	}
	return nil
}

func (c *Console) updateTask(ctx context.Context) error {
	choice, err := c.ask("Update by: 1. ID 2. Name")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		id, ok, err := c.askID("Enter task ID to update:")
		if err != nil || !ok {
			return err
		}
		fields, ok, err := c.askFields()
		if err != nil || !ok {
			return err
		}
		c.reportUpdate(c.svc.UpdateTaskByID(ctx, id, fields))
	case "2":
		name, err := c.ask("Enter task name to update:")
		if err != nil {
			return err
		}
		fields, ok, err := c.askFields()
		if err != nil || !ok {
			return err
		}
		c.reportUpdate(c.svc.UpdateTaskByName(ctx, name, fields))
	default:
		c.println("Invalid choice")
	}
	return nil
}

func (c *Console) reportUpdate(updated *task.Task, err error) {
	if err != nil {
		c.printError(err)
		return
	}
	c.println("Task updated successfully!")
	c.printTasks([]*task.Task{updated})
}

// askFields собирает полный набор полей; при неверном значении ok=false и возврат в меню
func (c *Console) askFields() (service.UpdateFields, bool, error) {
	var fields service.UpdateFields

	name, err := c.ask("Enter new task name:")
	if err != nil {
		return fields, false, err
	}
	description, err := c.ask("Enter new task description:")
	if err != nil {
		return fields, false, err
	}

	rawDate, err := c.ask("Enter new task due date (yyyy-MM-dd), empty for none:")
	if err != nil {
		return fields, false, err
	}
	dueDate, hasDate, perr := parseOptionalDate(rawDate)
	if perr != nil {
		c.println("Invalid date format. Please enter the date in yyyy-MM-dd format.")
		return fields, false, nil
	}

	rawCompleted, err := c.ask("Is the task completed? (true/false):")
	if err != nil {
		return fields, false, err
	}
	completed, perr := strconv.ParseBool(strings.TrimSpace(rawCompleted))
	if perr != nil {
		c.println("Invalid value. Please enter true or false.")
		return fields, false, nil
	}

	rawPriority, err := c.ask("Enter new task priority (LOW, MEDIUM, HIGH):")
	if err != nil {
		return fields, false, err
	}
	priority, ok := task.ParsePriority(rawPriority)
	if !ok {
		c.println("Invalid priority. Please enter LOW, MEDIUM, or HIGH.")
		return fields, false, nil
	}

	rawCategory, err := c.ask("Enter new task category (WORK, STUDY, PERSONAL, HEALTH):")
	if err != nil {
		return fields, false, err
	}
	category, ok := task.ParseCategory(rawCategory)
	if !ok {
		c.println("Invalid category. Please enter WORK, STUDY, PERSONAL, or HEALTH.")
		return fields, false, nil
	}

	fields = service.UpdateFields{
		Name:        name,
		Description: &description,
		IsCompleted: completed,
		Priority:    priority,
		Category:    category,
	}
	if hasDate {
		fields.DueDate = &dueDate
	}
	return fields, true, nil
}

func (c *Console) listTasks(ctx context.Context) error {
	tasks, err := c.svc.GetAllTasks(ctx)
	if err != nil {
		c.printError(err)
		return nil
	}
	c.printTasks(tasks)
	return nil
}

func (c *Console) filterTasks(ctx context.Context) error {
	choice, err := c.ask("Filter by: \n1. Priority \n2. Category \n3. Due Date \n4. Completion Status")
	if err != nil {
		return err
	}

	var filter service.TaskFilter
	switch choice {
	case "1":
		raw, err := c.ask("Enter priority (LOW, MEDIUM, HIGH):")
		if err != nil {
			return err
		}
		p, ok := task.ParsePriority(raw)
		if !ok {
			c.println("Invalid priority. Please enter LOW, MEDIUM, or HIGH.")
			return nil
		}
		filter.Priority = &p
	case "2":
		raw, err := c.ask("Enter category (WORK, STUDY, PERSONAL, HEALTH):")
		if err != nil {
			return err
		}
		cat, ok := task.ParseCategory(raw)
		if !ok {
			c.println("Invalid category. Please enter WORK, STUDY, PERSONAL, or HEALTH.")
			return nil
		}
		filter.Category = &cat
	case "3":
		raw, err := c.ask("Enter due date (yyyy-MM-dd):")
		if err != nil {
			return err
		}
		d, perr := task.ParseDate(strings.TrimSpace(raw))
		if perr != nil {
			c.println("Invalid date format. Please enter the date in yyyy-MM-dd format.")
			return nil
		}
		filter.DueDate = &d
	case "4":
		raw, err := c.ask("Enter completion status (true for completed, false for not completed):")
		if err != nil {
			return err
		}
		b, perr := strconv.ParseBool(strings.TrimSpace(raw))
		if perr != nil {
			c.println("Invalid value. Please enter true or false.")
			return nil
		}
		filter.IsCompleted = &b
	default:
		c.println("Invalid choice. Please choose a valid option.")
		return nil
	}

	tasks, err := c.svc.FilterTasks(ctx, filter)
	if err != nil {
		c.printError(err)
		return nil
	}
	c.printTasks(tasks)
	return nil
}

var sortChoices = map[string]service.SortField{
	"1": service.SortByPriority,
	"2": service.SortByCategory,
	"3": service.SortByDueDate,
	"4": service.SortByName,
}

func (c *Console) sortTasks(ctx context.Context) error {
	choice, err := c.ask("Sort by: \n1. Priority \n2. Category \n3. Due Date \n4. Name")
	if err != nil {
		return err
	}
	field, ok := sortChoices[choice]
	if !ok {
		c.println("Invalid choice. Please choose a valid option.")
		return nil
	}

	order, err := c.ask("Order (asc, desc), empty for asc:")
	if err != nil {
		return err
	}

	tasks, err := c.svc.SortTasks(ctx, string(field), order)
	if err != nil {
		c.printError(err)
		return nil
	}
	c.printTasks(tasks)
	return nil
}

func (c *Console) searchTasks(ctx context.Context) error {
	query, err := c.ask("Enter part of the task name:")
	if err != nil {
		return err
	}

	tasks, err := c.svc.SearchTasksByName(ctx, query)
	if err != nil {
		c.printError(err)
		return nil
	}
	c.printTasks(tasks)
	return nil
}

func (c *Console) askID(prompt string) (int64, bool, error) {
	raw, err := c.ask(prompt)
	if err != nil {
		return 0, false, err
	}
	id, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if perr != nil || id <= 0 {
		c.println("Invalid ID. Please enter a positive number.")
		return 0, false, nil
	}
	return id, true, nil
}

func (c *Console) ask(prompt string) (string, error) {
	c.println(prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("чтение ввода: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimRight(c.in.Text(), "\r"), nil
}

func (c *Console) printTasks(tasks []*task.Task) {
	if len(tasks) == 0 {
		c.println("No tasks found.")
		return
	}
	for _, t := range tasks {
		c.printf("ID: %d ---- %s\n", t.ID, Format(t))
	}
}

func (c *Console) printError(err error) {
	var busErr *service.BusinessError
	if errors.As(err, &busErr) {
		c.println("Error: " + busErr.Message)
		return
	}
	logger.Error("Console: Ошибка сервиса", err, zap.String("op", "console"))
	c.println("Error: " + err.Error())
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Format - строка задачи для вывода в консоль
func Format(t *task.Task) string {
	due := "none"
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	return fmt.Sprintf("Task{name='%s', description='%s', dueDate=%s, completed=%t, priority=%s, category=%s}",
		t.Name, t.Description, due, t.IsCompleted, t.Priority, t.Category)
}

// parseOptionalDate: пустая строка означает отсутствие срока
func parseOptionalDate(raw string) (task.Date, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return task.Date{}, false, nil
	}
	d, err := task.ParseDate(raw)
	if err != nil {
		return task.Date{}, false, err
	}
	return d, true, nil
}
