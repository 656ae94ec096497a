package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/metrics"
	"todoTracker/internal/middleware"
	"todoTracker/internal/migrations"
	"todoTracker/internal/repository/task/inmemory"
	"todoTracker/internal/repository/task/postgres"
	"todoTracker/internal/repository/task/sqlite"
	"todoTracker/internal/service"
	"todoTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "todo-tracker"

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository // интерфейс!
	service    *service.TaskService
	metrics    *metrics.Registry
	worker     *worker.NotificationWorker
	shutdowns  []func() // функции для graceful shutdown, вызываются в обратном порядке
	now        func() time.Time
}

type Option func(*App)

// WithClock подменяет часы сервиса, от них считаются "сегодня", "завтра" и просрочка
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

func New(cfg *config.Config, options ...Option) *App {
	a := &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
		now:       time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Init поднимает логгер, хранилище, сервис и роутер. Сервер при этом не слушает порт.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Close()
		return nil, err
	}

	repoType := service.RepoType(a.config.Repository.Type)
	a.service = service.NewTaskService(a.repository, repoType, service.WithClock(a.now))
	a.metrics = metrics.New()

	if a.config.Notifier.Enabled {
		interval := a.config.Notifier.Interval
		a.worker = worker.NewNotificationWorker(a.service, &interval, worker.LogNotifier{}).
			WithMetrics(a.metrics)
	}

	a.initRouter()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, serviceName),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr),
		zap.Bool("notifier", a.config.Notifier.Enabled))
	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch service.RepoType(a.config.Repository.Type) {
	case service.InMemoryType:
		a.repository = inmemory.NewTaskStorage()

	case service.DBType:
		url := a.config.Database.URL
		if err := migrations.Up(migrations.Postgres, url); err != nil {
			return fmt.Errorf("миграции postgres: %w", err)
		}
		storage, err := postgres.New(ctx, url, postgres.PoolOptions{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений postgres...")
			storage.Close()
		})

	case service.SQLiteType:
		path := a.config.SQLite.Path
		if err := migrations.Up(migrations.SQLite, path); err != nil {
			return fmt.Errorf("миграции sqlite: %w", err)
		}
		storage, err := sqlite.New(ctx, path)
		if err != nil {
			return fmt.Errorf("открытие sqlite: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие базы sqlite...")
			if err := storage.Close(); err != nil {
				logger.Error("Ошибка закрытия sqlite", err)
			}
		})

	default:
		return fmt.Errorf("неизвестный тип репозитория %q", a.config.Repository.Type)
	}
	return nil
}

func (a *App) initRouter() {
	handler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(a.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit, a.config.Server.RateBurst))

	handlers.RegisterRoutes(r, handler)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	a.router = r
}

func (a *App) Service() *service.TaskService {
	return a.service
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Run блокируется до отмены ctx или ошибки сервера, затем останавливает всё
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("HTTP: Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка http сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close идемпотентен
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
