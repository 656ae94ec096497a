// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TODO"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"gte=0"` // запросов в минуту с одного IP, 0 - без ограничения
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int32         `mapstructure:"min_connections" validate:"gte=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=inmemory postgres sqlite"`
}

type NotifierConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// Load читает config.yml из рабочей директории, если он есть
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom: пустой path ищет config.yml в текущей директории и не считает его отсутствие ошибкой.
// Переменные окружения TODO_* (и .env) перекрывают файл.
func LoadFrom(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфига: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("sqlite.path", "todo.db")

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")

	v.SetDefault("repository.type", "inmemory")

	v.SetDefault("notifier.enabled", true)
	v.SetDefault("notifier.interval", time.Hour)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("неверная конфигурация: %w", err)
	}
	switch c.Repository.Type {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("неверная конфигурация: database.url обязателен для postgres")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return errors.New("неверная конфигурация: sqlite.path обязателен для sqlite")
		}
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return errors.New("неверная конфигурация: min_connections больше max_connections")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
