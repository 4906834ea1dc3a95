package engine

import (
	"context"
	"time"

	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/logger"
)

// nearCompletionQueryRatio is the coarse store pre-filter; the notification
// gate below it is deliberately stricter. Do not collapse the two.
const (
	nearCompletionQueryRatio = 0.90
	nearCompletionNotifyPct  = 95.0
)

type monitorGoalStore interface {
	ListNearCompletion(ctx context.Context, minRatio float64) ([]*models.SavingsGoal, error)
	ListAll(ctx context.Context) ([]*models.SavingsGoal, error)
}

type monitorTransactionStore interface {
	SumCompletedSince(ctx context.Context, uid, goalID string, since time.Time) (float64, error)
}

type monitorNotifier interface {
	NotifyGoalNearCompletion(ctx context.Context, goal *models.SavingsGoal, progress float64)
	NotifyWeeklyReport(ctx context.Context, goal *models.SavingsGoal, weeklyAmount, monthlyAmount float64)
}

// Monitor recomputes goal progress on its own cadence, independent of rule
// processing, and decides which goals warrant a notification.
type Monitor struct {
	goals    monitorGoalStore
	txs      monitorTransactionStore
	notifier monitorNotifier
	metrics  *metrics.Metrics
	clockNow func() time.Time
}

func NewMonitor(goals monitorGoalStore, txs monitorTransactionStore, notifier monitorNotifier, m *metrics.Metrics) *Monitor {
	return &Monitor{
		goals:    goals,
		txs:      txs,
		notifier: notifier,
		metrics:  m,
		clockNow: time.Now,
	}
}

// CheckProgress notifies owners of goals whose recomputed progress is at or
// past the notification gate. The store query uses the looser pre-filter, so
// a goal can be returned here and still not notify.
func (m *Monitor) CheckProgress(ctx context.Context) error {
	log := logger.FromContext(ctx)

	goals, err := m.goals.ListNearCompletion(ctx, nearCompletionQueryRatio)
	if err != nil {
		return err
	}

	for _, goal := range goals {
		progress := goal.ProgressRatio() * 100
		if progress < nearCompletionNotifyPct {
			continue
		}
		m.notifier.NotifyGoalNearCompletion(ctx, goal, progress)
		m.metrics.Notifications.WithLabelValues("near_completion").Inc()
		log.Info("goal near completion", "goal_id", goal.GoalID, "progress_pct", progress)
	}
	return nil
}

// WeeklyReport publishes per-goal saved totals over the trailing week and
// month. A failure on one goal is logged and the rest still report.
func (m *Monitor) WeeklyReport(ctx context.Context) error {
	log := logger.FromContext(ctx)

	goals, err := m.goals.ListAll(ctx)
	if err != nil {
		return err
	}

	now := m.clockNow()
	for _, goal := range goals {
		weekly, err := m.txs.SumCompletedSince(ctx, goal.UID, goal.GoalID, now.AddDate(0, 0, -7))
		if err != nil {
			log.Error("weekly sum failed", "goal_id", goal.GoalID, "error", err)
			continue
		}
		monthly, err := m.txs.SumCompletedSince(ctx, goal.UID, goal.GoalID, now.AddDate(0, 0, -30))
		if err != nil {
			log.Error("monthly sum failed", "goal_id", goal.GoalID, "error", err)
			continue
		}
		m.notifier.NotifyWeeklyReport(ctx, goal, weekly, monthly)
		m.metrics.Notifications.WithLabelValues("weekly_report").Inc()
	}
	return nil
}
