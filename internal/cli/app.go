package cli

import (
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"recurring-planner/internal/config"
	"recurring-planner/internal/repository"
	"recurring-planner/internal/service"
)

// app holds the wired service graph shared by the commands.
type app struct {
	cfg       config.Config
	log       *slog.Logger
	db        *gorm.DB
	store     *repository.Store
	areas     *service.AreaService
	tasks     *service.TaskService
	recurring *service.Recurring
	reminders *service.ReminderService
}

func newApp(opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	log := newLogger(cfg, logOut)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)
	recurring := service.NewRecurring(store, log, cfg.Now)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		store:     store,
		areas:     service.NewAreaService(store.Areas),
		tasks:     service.NewTaskService(store, recurring.Materializer(), log),
		recurring: recurring,
		reminders: service.NewReminderService(store, recurring),
	}, nil
}

func (a *app) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
