package notify

import (
	"time"
)

// Subjects for outbound notification events. Downstream consumers own the
// delivery channel and message formatting; the engine only publishes facts.
const (
	SubjectRuleTriggered      = "notify.rule.triggered"
	SubjectGoalNearCompletion = "notify.goal.near_completion"
	SubjectGoalCompleted      = "notify.goal.completed"
	SubjectWeeklyReport       = "notify.report.weekly"
)

type RuleTriggeredEvent struct {
	UID           string    `json:"uid"`
	RuleID        string    `json:"ruleId"`
	RuleName      string    `json:"ruleName"`
	GoalID        string    `json:"goalId"`
	GoalName      string    `json:"goalName"`
	TransactionID string    `json:"transactionId"`
	Amount        float64   `json:"amount"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetAmount  float64   `json:"targetAmount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type GoalNearCompletionEvent struct {
	UID           string    `json:"uid"`
	GoalID        string    `json:"goalId"`
	GoalName      string    `json:"goalName"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetAmount  float64   `json:"targetAmount"`
	Progress      float64   `json:"progress"` // percentage
	OccurredAt    time.Time `json:"occurredAt"`
}

type GoalCompletedEvent struct {
	UID          string    `json:"uid"`
	GoalID       string    `json:"goalId"`
	GoalName     string    `json:"goalName"`
	SavedAmount  float64   `json:"savedAmount"`
	TargetAmount float64   `json:"targetAmount"`
	TargetDate   string    `json:"targetDate,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type WeeklyReportEvent struct {
	UID           string    `json:"uid"`
	GoalID        string    `json:"goalId"`
	GoalName      string    `json:"goalName"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetAmount  float64   `json:"targetAmount"`
	WeeklyAmount  float64   `json:"weeklyAmount"`
	MonthlyAmount float64   `json:"monthlyAmount"`
	OccurredAt    time.Time `json:"occurredAt"`
}
