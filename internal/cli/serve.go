package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"recurring-planner/internal/bot"
	"recurring-planner/internal/service"
)

const jobTimeout = 5 * time.Minute

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and scheduled jobs",
		Long: `Start the Telegram bot together with the cron jobs: a nightly
materialization pass at MATERIALIZE_AT, an optional pass every
MATERIALIZE_INTERVAL_MINUTES, and summaries every REPORT_INTERVAL_HOURS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Services{
		Users:     a.store.Users,
		Areas:     a.areas,
		Tasks:     a.tasks,
		Recurring: a.recurring,
		Reminders: a.reminders,
	}, a.cfg, a.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(ctx, a.cfg.Location, jobTimeout, a.log)
	materializeJob := func(jobCtx context.Context) error {
		total, err := a.recurring.MaterializeAll(jobCtx, time.Time{})
		a.log.Info("scheduled materialize", "spawned", total)
		return err
	}

	if _, err := scheduler.ScheduleDaily("materialize", a.cfg.MaterializeAt, materializeJob); err != nil {
		return err
	}
	if a.cfg.MaterializeInterval > 0 {
		if _, err := scheduler.ScheduleInterval("materialize-interval", a.cfg.MaterializeInterval, materializeJob); err != nil {
			return err
		}
	}
	if a.cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval("report", a.cfg.ReportInterval, telegramBot.SendDailyReports); err != nil {
			return err
		}
	}

	// Catch up on anything that became due while the process was down.
	scheduler.Run("materialize-startup", materializeJob)

	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info("planner bot started", "jobs", scheduler.Entries(), "materialize_at", a.cfg.MaterializeAt)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
