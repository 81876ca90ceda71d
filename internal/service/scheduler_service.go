package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. It must respect ctx cancellation.
type Job func(ctx context.Context) error

// SchedulerService runs named jobs on cron schedules. Each run gets its own
// timeout derived from the scheduler's base context.
type SchedulerService struct {
	cron    *cron.Cron
	log     *slog.Logger
	base    context.Context
	timeout time.Duration
}

// NewSchedulerService creates a scheduler; a job still running when its next
// tick arrives is skipped rather than run twice.
func NewSchedulerService(ctx context.Context, loc *time.Location, timeout time.Duration, log *slog.Logger) *SchedulerService {
	if log == nil {
		log = slog.Default()
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:     log,
		base:    ctx,
		timeout: timeout,
	}
}

// ScheduleDaily registers job to run every day at the HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, at string, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(at)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	return s.cron.AddFunc(spec, func() { s.Run(name, job) })
}

// ScheduleInterval registers job to run every interval, rounded to seconds.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job Job) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("schedule %s: interval must be positive", name)
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() { s.Run(name, job) })
}

// Run executes job once, synchronously, with the per-run timeout. Errors are
// logged, not returned; cancellation of the base context is not an error.
func (s *SchedulerService) Run(name string, job Job) {
	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	err := job(ctx)
	switch {
	case err == nil:
		s.log.Info("job done", "job", name, "took", time.Since(started))
	case errors.Is(err, context.Canceled):
		s.log.Info("job canceled", "job", name)
	default:
		s.log.Error("job failed", "job", name, "err", err, "took", time.Since(started))
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

// Stop halts the cron loop and waits for running jobs.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func buildDailySpec(timeStr string) (string, error) {
	hh, mm, ok := strings.Cut(timeStr, ":")
	if !ok || strings.Contains(mm, ":") {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
