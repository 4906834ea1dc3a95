package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/logger"
)

// Publisher emits notification events on NATS subjects. All methods are
// fire-and-forget: a publish failure is logged and never propagated, so a
// broken notification path cannot stall rule processing.
type Publisher struct {
	conn     *nats.Conn
	clockNow func() time.Time
}

func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{
		conn:     conn,
		clockNow: time.Now,
	}
}

func (p *Publisher) NotifyRuleTriggered(ctx context.Context, rule *models.SavingsRule, goal *models.SavingsGoal, tx *models.Transaction) {
	p.publish(ctx, SubjectRuleTriggered, RuleTriggeredEvent{
		UID:           rule.UID,
		RuleID:        rule.RuleID,
		RuleName:      rule.Name,
		GoalID:        goal.GoalID,
		GoalName:      goal.Name,
		TransactionID: tx.TransactionID,
		Amount:        tx.Amount,
		CurrentAmount: goal.CurrentAmount,
		TargetAmount:  goal.TargetAmount,
		OccurredAt:    p.clockNow(),
	})
}

func (p *Publisher) NotifyGoalNearCompletion(ctx context.Context, goal *models.SavingsGoal, progress float64) {
	p.publish(ctx, SubjectGoalNearCompletion, GoalNearCompletionEvent{
		UID:           goal.UID,
		GoalID:        goal.GoalID,
		GoalName:      goal.Name,
		CurrentAmount: goal.CurrentAmount,
		TargetAmount:  goal.TargetAmount,
		Progress:      progress,
		OccurredAt:    p.clockNow(),
	})
}

func (p *Publisher) NotifyGoalCompleted(ctx context.Context, goal *models.SavingsGoal) {
	p.publish(ctx, SubjectGoalCompleted, GoalCompletedEvent{
		UID:          goal.UID,
		GoalID:       goal.GoalID,
		GoalName:     goal.Name,
		SavedAmount:  goal.CurrentAmount,
		TargetAmount: goal.TargetAmount,
		TargetDate:   goal.TargetDate,
		OccurredAt:   p.clockNow(),
	})
}

func (p *Publisher) NotifyWeeklyReport(ctx context.Context, goal *models.SavingsGoal, weeklyAmount, monthlyAmount float64) {
	p.publish(ctx, SubjectWeeklyReport, WeeklyReportEvent{
		UID:           goal.UID,
		GoalID:        goal.GoalID,
		GoalName:      goal.Name,
		CurrentAmount: goal.CurrentAmount,
		TargetAmount:  goal.TargetAmount,
		WeeklyAmount:  weeklyAmount,
		MonthlyAmount: monthlyAmount,
		OccurredAt:    p.clockNow(),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, event any) {
	log := logger.FromContext(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to encode notification event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Error("failed to publish notification event", "subject", subject, "error", err)
		return
	}
	log.Debug("notification event published", "subject", subject)
}
