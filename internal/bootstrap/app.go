package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"civicdesk/internal/bootstrap/config"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/persistence/sqlstore/model"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
	Logger *slog.Logger
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
