package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Intake       IntakeConfig       `mapstructure:"intake"`
	Transition   TransitionConfig   `mapstructure:"transition"`
	Notification NotificationConfig `mapstructure:"notification"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Events       EventsConfig       `mapstructure:"events"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type IntakeConfig struct {
	TrackingPrefix string        `mapstructure:"tracking_prefix"`
	CodeAttempts   int           `mapstructure:"code_attempts"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
}

type TransitionConfig struct {
	Attempts int `mapstructure:"attempts"`
}

type NotificationConfig struct {
	Attempts int `mapstructure:"attempts"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EventsConfig struct {
	Brokers []string      `mapstructure:"brokers"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether lifecycle events should be published.
func (c EventsConfig) Enabled() bool {
	for _, broker := range c.Brokers {
		if strings.TrimSpace(broker) != "" {
			return true
		}
	}
	return false
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	cfg.Events.Brokers = splitBrokers(cfg.Events.Brokers)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.Bool("events_enabled", cfg.Events.Enabled()),
	)

	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}
	if !domain.ValidTrackingPrefix(cfg.Intake.TrackingPrefix) {
		return fmt.Errorf("intake.tracking_prefix %q must be uppercase letters or digits", cfg.Intake.TrackingPrefix)
	}
	if cfg.Intake.CodeAttempts < 1 {
		return errors.New("intake.code_attempts must be at least 1")
	}
	if cfg.Transition.Attempts < 1 {
		return errors.New("transition.attempts must be at least 1")
	}
	if cfg.Notification.Attempts < 2 {
		return errors.New("notification.attempts must be at least 2")
	}
	switch strings.ToLower(cfg.Cache.Driver) {
	case "sqlite", "none", "":
	case "redis":
		if strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
			return errors.New("cache.redis.addr is required when cache.driver is redis")
		}
	default:
		return fmt.Errorf("cache.driver %q is not supported", cfg.Cache.Driver)
	}
	if cfg.Events.Enabled() && strings.TrimSpace(cfg.Events.Topic) == "" {
		return errors.New("events.topic is required when events.brokers is set")
	}
	return nil
}

// splitBrokers accepts both a YAML list and a comma separated env value.
func splitBrokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "civicdesk")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".civicdesk/civicdesk.sqlite")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("intake.tracking_prefix", domain.DefaultTrackingPrefix)
	v.SetDefault("intake.code_attempts", 5)
	v.SetDefault("intake.resolve_timeout", "2s")
	v.SetDefault("transition.attempts", 3)
	v.SetDefault("notification.attempts", 2)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "civicdesk.complaints")
	v.SetDefault("events.timeout", "3s")
}
