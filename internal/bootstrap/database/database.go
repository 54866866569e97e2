package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"civicdesk/internal/bootstrap/config"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
)

const sqliteBusyTimeoutPragma = "_pragma=busy_timeout(5000)"

func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))
	gormCfg := &gorm.Config{
		TranslateError: true,
		// Lookups report a missing row as ErrRecordNotFound, which callers map
		// to a not-found kind.
		Logger: gormlogger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}

	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		if err := ensureSQLiteDirectory(logCtx, cfg.DSN); err != nil {
			return nil, errs.Wrap(err, "ensure sqlite directory")
		}

		db, err := gorm.Open(gormsqlite.Open(sqliteDSN(cfg.DSN)), gormCfg)
		if err != nil {
			return nil, errs.Wrap(err, "open sqlite db")
		}
		// SQLite allows one writer; a single connection turns concurrent
		// transactions into a queue instead of SQLITE_BUSY failures.
		if err := setMaxOpenConns(db, 1); err != nil {
			return nil, err
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", cfg.DSN))
		return db, nil
	case "postgres", "postgresql":
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, errs.Wrap(err, "open postgres db")
		}
		if cfg.MaxOpenConns > 0 {
			if err := setMaxOpenConns(db, cfg.MaxOpenConns); err != nil {
				return nil, err
			}
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "postgres"), slog.Int("max_open_conns", cfg.MaxOpenConns))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func setMaxOpenConns(db *gorm.DB, n int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	sqlDB.SetMaxOpenConns(n)
	return nil
}

// sqliteDSN adds a busy timeout unless the caller already set one.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteBusyTimeoutPragma
	}
	return dsn + "?" + sqliteBusyTimeoutPragma
}

func ensureSQLiteDirectory(ctx context.Context, dsn string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	candidate := strings.TrimSpace(dsn)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = strings.TrimPrefix(candidate, "file:")
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.database")), "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
