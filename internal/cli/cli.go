package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"todoTracker/internal/app"
	"todoTracker/internal/config"
	"todoTracker/internal/console"
	"todoTracker/internal/logger"
	"todoTracker/internal/migrations"
	"todoTracker/internal/models/task"
	"todoTracker/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type RootCommand struct {
	cmd        *cobra.Command
	configPath string
	logLevel   string
	config     *config.Config
	appOptions []app.Option
}

func NewRootCommand(options ...app.Option) *RootCommand {
	root := &RootCommand{appOptions: options}

	root.cmd = &cobra.Command{
		Use:   "todo",
		Short: "Todo task tracker",
		Long: `todo - трекер задач с REST API, консольным меню и напоминаниями о сроках.

Конфигурация: config.yml (или --config), затем переменные окружения TODO_*,
например TODO_REPOSITORY_TYPE=sqlite, TODO_SERVER_PORT=9090.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.loadConfig()
		},
	}

	flags := root.cmd.PersistentFlags()
	flags.StringVar(&root.configPath, "config", "", "путь к файлу конфигурации (по умолчанию ./config.yml)")
	flags.StringVar(&root.logLevel, "log-level", "", "уровень логирования (перекрывает logging.level)")

	root.cmd.AddCommand(
		root.newServeCommand(),
		root.newConsoleCommand(),
		root.newMigrateCommand(),
		root.newExportCommand(),
	)
	return root
}

func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.cmd.ExecuteContext(ctx)
}

func (r *RootCommand) loadConfig() error {
	cfg, err := config.LoadFrom(r.configPath)
	if err != nil {
		return err
	}
	if r.logLevel != "" {
		cfg.Logging.Level = r.logLevel
	}
	if err := logger.Init(cfg.Logging.Development, cfg.Logging.Level); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	r.config = cfg
	return nil
}

func (r *RootCommand) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и фоновые напоминания",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(r.config, r.appOptions...).Init(cmd.Context())
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

func (r *RootCommand) newConsoleCommand() *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Интерактивное меню в терминале",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(r.config, r.appOptions...).Init(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// меню и напоминания пишут в один вывод
			out := console.NewSyncWriter(cmd.OutOrStdout())
			if notify {
				interval := r.config.Notifier.Interval
				w := worker.NewNotificationWorker(a.Service(), &interval, worker.NewConsoleNotifier(out)).
					WithMetrics(a.Metrics())
				w.Start(cmd.Context())
				defer w.Stop()
			}

			return console.New(a.Service(), cmd.InOrStdin(), out).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", true, "печатать напоминания о сроках в консоль")
	return cmd
}

func (r *RootCommand) newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции схемы (postgres, sqlite)",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Применить все миграции",
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.withMigrator(cmd.OutOrStdout(), func(mg *migrations.Migrator) error {
					return mg.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Откатить все миграции",
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.withMigrator(cmd.OutOrStdout(), func(mg *migrations.Migrator) error {
					return mg.Down()
				})
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Применить (N>0) или откатить (N<0) N миграций; отрицательное N передаётся после --",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("N должно быть ненулевым целым числом, получено %q", args[0])
				}
				return r.withMigrator(cmd.OutOrStdout(), func(mg *migrations.Migrator) error {
					return mg.Steps(n)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Показать текущую версию схемы",
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.withMigrator(nil, func(mg *migrations.Migrator) error {
					version, dirty, err := mg.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %t\n", version, dirty)
					return nil
				})
			},
		},
	)
	return migrateCmd
}

// withMigrator: out != nil печатает итоговую версию после операции
func (r *RootCommand) withMigrator(out io.Writer, fn func(mg *migrations.Migrator) error) error {
	var (
		mg  *migrations.Migrator
		err error
	)
	switch r.config.Repository.Type {
	case "postgres":
		mg, err = migrations.New(migrations.Postgres, r.config.Database.URL)
	case "sqlite":
		mg, err = migrations.New(migrations.SQLite, r.config.SQLite.Path)
	default:
		return fmt.Errorf("репозиторий %q не использует миграции", r.config.Repository.Type)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mg.Close(); cerr != nil {
			logger.Error("Ошибка закрытия мигратора", cerr)
		}
	}()

	if err := fn(mg); err != nil {
		return err
	}
	if out != nil {
		version, _, err := mg.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "schema version: %d\n", version)
	}
	return nil
}

func (r *RootCommand) newExportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Выгрузить все задачи в JSON или YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("неизвестный формат %q, ожидается json или yaml", format)
			}

			a, err := app.New(r.config, r.appOptions...).Init(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.Service().GetAllTasks(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("Экспорт задач", zap.String("format", format), zap.Int("count", len(tasks)))
			return writeTasks(cmd.OutOrStdout(), format, tasks)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "формат выгрузки: json или yaml")
	return cmd
}

func writeTasks(out io.Writer, format string, tasks []*task.Task) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return fmt.Errorf("кодирование yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("кодирование json: %w", err)
	}
	return nil
}
