package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"todoTracker/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

type Dialect string

const Postgres Dialect = "postgres"
const SQLite Dialect = "sqlite"

// Migrator владеет своим соединением, Close закрывает и его
type Migrator struct {
	m       *migrate.Migrate
	db      *sql.DB
	dialect Dialect
}

func New(dialect Dialect, dsn string) (*Migrator, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("открытие соединения для миграций: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case Postgres:
		driver, err = migratepg.WithInstance(db, &migratepg.Config{})
	case SQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("неизвестный диалект %q", dialect)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}

	source, err := iofs.New(migrationsFS, string(dialect))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}

	return &Migrator{m: m, db: db, dialect: dialect}, nil
}

func (mg *Migrator) Up() error {
	logger.Info("Migrations: Применение миграций", zap.String("dialect", string(mg.dialect)))
	return mg.handle("применение миграций", mg.m.Up())
}

func (mg *Migrator) Down() error {
	logger.Info("Migrations: Откат миграций", zap.String("dialect", string(mg.dialect)))
	return mg.handle("откат миграций", mg.m.Down())
}

// Steps: n > 0 применяет n миграций, n < 0 откатывает
func (mg *Migrator) Steps(n int) error {
	return mg.handle("пошаговая миграция", mg.m.Steps(n))
}

// Version возвращает 0 для пустой базы
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("версия миграций: %w", err)
	}
	return version, dirty, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	_ = mg.db.Close()
	if srcErr != nil {
		return fmt.Errorf("закрытие источника миграций: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("закрытие базы миграций: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) handle(op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("Migrations: Изменений нет", zap.String("op", op))
		return nil
	}
	if err != nil {
		logger.Error("Migrations: Ошибка миграции", err, zap.String("op", op))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("Migrations: Готово", zap.String("op", op))
	return nil
}

// Up открывает базу, применяет все миграции и закрывает соединение
func Up(dialect Dialect, dsn string) error {
	mg, err := New(dialect, dsn)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
