package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/goalvault/savings-engine/internal/config"
	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/pkg/logger"
)

type ruleRunner interface {
	RunCategory(ctx context.Context, category engine.Category) error
}

type progressMonitor interface {
	CheckProgress(ctx context.Context) error
	WeeklyReport(ctx context.Context) error
}

// Scheduler owns the engine's periodic triggers: six rule cadences, the
// daily progress check and the weekly report. Each fires independently;
// there is no ordering guarantee between triggers, and a single scheduler
// instance is assumed to own all of them.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func New(log *slog.Logger, runner ruleRunner, monitor progressMonitor, schedules config.Schedules) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  log,
	}

	triggers := []struct {
		name string
		expr string
		job  func(ctx context.Context) error
	}{
		{"daily_rules", schedules.Daily, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryDaily)
		}},
		{"weekly_rules", schedules.Weekly, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryWeekly)
		}},
		{"monthly_rules", schedules.Monthly, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryMonthly)
		}},
		{"payday_rules", schedules.Payday, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryPayday)
		}},
		{"roundup_rules", schedules.RoundUp, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryRoundUp)
		}},
		{"custom_trigger_rules", schedules.Custom, func(ctx context.Context) error {
			return runner.RunCategory(ctx, engine.CategoryCustom)
		}},
		{"goal_progress", schedules.Progress, monitor.CheckProgress},
		{"weekly_report", schedules.WeeklyReport, monitor.WeeklyReport},
	}

	for _, t := range triggers {
		if _, err := s.cron.AddFunc(t.expr, s.wrap(t.name, t.job)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// wrap gives each firing its own run id and request-style logger, and keeps
// a trigger's error from escaping into cron.
func (s *Scheduler) wrap(name string, job func(ctx context.Context) error) func() {
	return func() {
		log := s.log.With("trigger", name, "run_id", uuid.New().String())
		ctx := logger.ToContext(context.Background(), log)

		start := time.Now()
		log.Info("trigger fired")
		if err := job(ctx); err != nil {
			log.Error("trigger run failed", "error", err, "duration", time.Since(start).String())
			return
		}
		log.Info("trigger run finished", "duration", time.Since(start).String())
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "trigger_count", len(s.cron.Entries()))
}

// Stop halts new firings and waits for in-flight runs; an outstanding
// transfer is allowed to finish rather than being abandoned mid-flight.
// ctx bounds how long to wait.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with runs in flight")
		return ctx.Err()
	}
}
