package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/metrics"
	"todoTracker/internal/models/task"

	"go.uber.org/zap"
)

const DefaultInterval = time.Hour

type Kind string

const KindDueTomorrow Kind = "due_tomorrow"
const KindOverdue Kind = "overdue"

type Notification struct {
	Kind Kind
	Task *task.Task
}

// TaskQuerier - то, что нужно воркеру от сервиса
type TaskQuerier interface {
	GetTasksDueTomorrow(ctx context.Context) ([]*task.Task, error)
	GetOverdueTasks(ctx context.Context) ([]*task.Task, error)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type NotificationWorker struct {
	querier   TaskQuerier
	notifiers []Notifier
	interval  time.Duration
	metrics   *metrics.Registry

	mtx     sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewNotificationWorker: nil interval означает раз в час
func NewNotificationWorker(querier TaskQuerier, interval *time.Duration, notifiers ...Notifier) *NotificationWorker {
	intervalToSet := DefaultInterval
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}
	return &NotificationWorker{
		querier:   querier,
		notifiers: notifiers,
		interval:  intervalToSet,
	}
}

func (w *NotificationWorker) WithMetrics(m *metrics.Registry) *NotificationWorker {
	w.metrics = m
	return w
}

func (w *NotificationWorker) Interval() time.Duration {
	return w.interval
}

// Run проверяет задачи сразу и затем на каждом тике, пока не отменён ctx.
// Отмена не прерывает начатый проход, только следующие.
func (w *NotificationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	passCtx := context.WithoutCancel(ctx)
	logger.Info("Worker: Проверка напоминаний запущена", zap.Duration("interval", w.interval))
	w.Check(passCtx)

	for {
		select {
		case <-ticker.C:
			w.Check(passCtx)
		case <-ctx.Done():
			logger.Info("Worker: Проверка напоминаний останавливается")
			return
		}
	}
}

// Start запускает Run в отдельной горутине; повторный вызов ничего не делает
func (w *NotificationWorker) Start(ctx context.Context) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if w.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go func(done chan struct{}) {
		defer close(done)
		w.Run(runCtx)

		// родительский ctx отменён без Stop: воркер остановлен и его можно запустить снова
		w.mtx.Lock()
		if w.done == done {
			w.running = false
		}
		w.mtx.Unlock()
	}(w.done)
}

// Stop отменяет цикл и ждёт его завершения
func (w *NotificationWorker) Stop() {
	w.mtx.Lock()
	if !w.running {
		w.mtx.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.running = false
	w.mtx.Unlock()

	cancel()
	<-done
}

func (w *NotificationWorker) Running() bool {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.running
}

// Check - один проход: ошибки логируются, следующий тик пробует снова
func (w *NotificationWorker) Check(ctx context.Context) {
	start := time.Now()

	dueTomorrow, err := w.querier.GetTasksDueTomorrow(ctx)
	if err != nil {
		w.fail("Worker: Ошибка получения задач на завтра", err)
		return
	}
	overdue, err := w.querier.GetOverdueTasks(ctx)
	if err != nil {
		w.fail("Worker: Ошибка получения просроченных задач", err)
		return
	}

	sent := w.send(ctx, KindDueTomorrow, dueTomorrow) + w.send(ctx, KindOverdue, overdue)

	if w.metrics != nil {
		w.metrics.WorkerRuns.WithLabelValues("ok").Inc()
	}
	logger.Info("Worker: Завершение проверки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("due_tomorrow", len(dueTomorrow)),
		zap.Int("overdue", len(overdue)),
		zap.Int("sent", sent))
}

func (w *NotificationWorker) send(ctx context.Context, kind Kind, tasks []*task.Task) int {
	sent := 0
	for _, t := range tasks {
		n := Notification{Kind: kind, Task: t}
		delivered := false
		for _, notifier := range w.notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				logger.Warn("Worker: Ошибка отправки напоминания",
					zap.Int64("task_id", t.ID),
					zap.String("kind", string(kind)),
					zap.Error(err))
				continue
			}
			sent++
			delivered = true
		}
		if delivered && w.metrics != nil {
			w.metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
		}
	}
	return sent
}

func (w *NotificationWorker) fail(msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	if w.metrics != nil {
		w.metrics.WorkerRuns.WithLabelValues("error").Inc()
	}
}

// ConsoleNotifier печатает напоминания для пользователя консоли
type ConsoleNotifier struct {
	mtx sync.Mutex
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) Notify(ctx context.Context, n Notification) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var err error
	switch n.Kind {
	case KindDueTomorrow:
		_, err = fmt.Fprintf(c.out, "Reminder: Task '%s' is due tomorrow!\n", n.Task.Name)
	case KindOverdue:
		_, err = fmt.Fprintf(c.out, "Alert: Task '%s' is overdue!\n", n.Task.Name)
	default:
		err = fmt.Errorf("неизвестный тип напоминания %q", n.Kind)
	}
	return err
}

// LogNotifier пишет напоминания в журнал сервера
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	fields := []zap.Field{
		zap.Int64("task_id", n.Task.ID),
		zap.String("name", n.Task.Name),
	}
	if n.Task.DueDate != nil {
		fields = append(fields, zap.String("due_date", n.Task.DueDate.String()))
	}

	switch n.Kind {
	case KindDueTomorrow:
		logger.Info("Worker: Срок задачи наступает завтра", fields...)
	case KindOverdue:
		logger.Warn("Worker: Задача просрочена", fields...)
	default:
		return fmt.Errorf("неизвестный тип напоминания %q", n.Kind)
	}
	return nil
}
