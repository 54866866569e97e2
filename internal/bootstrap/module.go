package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"civicdesk/internal/bootstrap/config"
	"civicdesk/internal/bootstrap/database"
	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	cacheinfra "civicdesk/internal/infrastructure/cache"
	"civicdesk/internal/infrastructure/events"
	sqlrepo "civicdesk/internal/infrastructure/persistence/sqlstore/repository"
	sqluow "civicdesk/internal/infrastructure/persistence/sqlstore/uow"
	"civicdesk/internal/ports"
	"civicdesk/internal/usecase/catalog"
	"civicdesk/internal/usecase/complaint"
	"civicdesk/internal/usecase/notification"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideLogger),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqlrepo.NewComplaintRepository,
			fx.As(new(ports.ComplaintRepository)),
		),
		fx.Annotate(
			sqlrepo.NewNotificationRepository,
			fx.As(new(ports.NotificationRepository)),
		),
		fx.Annotate(
			sqlrepo.NewCatalogRepository,
			fx.As(new(ports.CatalogRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqluow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideDispatcher),
	fx.Provide(provideEventHandlers),
	fx.Provide(provideComplaintService),
	fx.Provide(notification.NewService),
	fx.Provide(catalog.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideLogger(cfg config.Config) (*slog.Logger, error) {
	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, errs.Wrap(err, "build logger")
	}
	return logger.With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)), nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB, logger *slog.Logger) *App {
	return &App{
		Config: cfg,
		DB:     db,
		Logger: logger,
	}
}

// provideCache returns nil when caching is disabled; the services treat a
// nil cache as a permanent miss.
func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	switch strings.ToLower(cfg.Cache.Driver) {
	case "none":
		return nil, nil
	case "redis":
		cache, err := cacheinfra.NewRedisCache(ctx, cacheinfra.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.App.Name + ":",
		})
		if err != nil {
			return nil, errs.Wrap(err, "connect redis cache")
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return cache.Close()
			},
		})
		return cache, nil
	default:
		return cacheinfra.NewSQLCache(db), nil
	}
}

func provideDispatcher(repo ports.NotificationRepository, cfg config.Config) *notification.Dispatcher {
	return notification.NewDispatcher(repo, cfg.Notification.Attempts)
}

func provideEventHandlers(lc fx.Lifecycle, ctx context.Context, cfg config.Config, dispatcher *notification.Dispatcher) ([]ports.ComplaintEventHandler, error) {
	handlers := []ports.ComplaintEventHandler{dispatcher}
	if !cfg.Events.Enabled() {
		return handlers, nil
	}

	publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
		Timeout: cfg.Events.Timeout,
	})
	if err != nil {
		return nil, errs.Wrap(err, "create kafka publisher")
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"complaint events publisher enabled",
		slog.String("topic", cfg.Events.Topic),
		slog.Any("brokers", cfg.Events.Brokers),
	)
	return append(handlers, publisher), nil
}

type complaintServiceParams struct {
	fx.In

	Config   config.Config
	Repo     ports.ComplaintRepository
	UOW      ports.UnitOfWork
	Catalog  ports.CatalogRepository
	Cache    ports.Cache
	Handlers []ports.ComplaintEventHandler
}

func provideComplaintService(p complaintServiceParams) *complaint.Service {
	return complaint.NewService(
		p.Repo,
		p.UOW,
		p.Catalog,
		p.Catalog,
		p.Cache,
		complaint.Options{
			TrackingPrefix:     p.Config.Intake.TrackingPrefix,
			CodeAttempts:       p.Config.Intake.CodeAttempts,
			TransitionAttempts: p.Config.Transition.Attempts,
			ResolveTimeout:     p.Config.Intake.ResolveTimeout,
			PublicViewTTL:      p.Config.Cache.TTL,
		},
		p.Handlers,
	)
}
