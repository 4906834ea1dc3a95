package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/logger"
)

type executorTransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Update(ctx context.Context, tx *models.Transaction) error
}

type executorGoalStore interface {
	Get(ctx context.Context, uid, goalID string) (*models.SavingsGoal, error)
	Update(ctx context.Context, goal *models.SavingsGoal) error
}

type executorAccountStore interface {
	Get(ctx context.Context, uid, accountID string) (*models.BankAccount, error)
}

type executorBank interface {
	Transfer(ctx context.Context, source, destination *models.BankAccount, amount float64) (bool, error)
}

type executorNotifier interface {
	NotifyRuleTriggered(ctx context.Context, rule *models.SavingsRule, goal *models.SavingsGoal, tx *models.Transaction)
	NotifyGoalCompleted(ctx context.Context, goal *models.SavingsGoal)
}

// Executor turns an approved proposal into a recorded, status-tracked
// transaction. The only component that creates transactions or mutates a
// goal's saved amount.
type Executor struct {
	txs      executorTransactionStore
	goals    executorGoalStore
	accounts executorAccountStore
	bank     executorBank
	notifier executorNotifier
	metrics  *metrics.Metrics
	locks    *goalLocks
	clockNow func() time.Time
}

func NewExecutor(txs executorTransactionStore, goals executorGoalStore, accounts executorAccountStore, bank executorBank, notifier executorNotifier, m *metrics.Metrics) *Executor {
	return &Executor{
		txs:      txs,
		goals:    goals,
		accounts: accounts,
		bank:     bank,
		notifier: notifier,
		metrics:  m,
		locks:    newGoalLocks(),
		clockNow: time.Now,
	}
}

// Execute persists a pending transaction, attempts the transfer, resolves
// the terminal status and, on completion, credits the goal. rule may be nil
// for a manual transfer. A provider non-success or transport error yields a
// failed transaction and a nil error: the failed record is the outcome, not
// something to rethrow. There is no retry.
func (x *Executor) Execute(ctx context.Context, goal *models.SavingsGoal, source *models.BankAccount, rule *models.SavingsRule, amount decimal.Decimal, description string) (*models.Transaction, error) {
	log := logger.FromContext(ctx)

	destination, err := x.accounts.Get(ctx, goal.UID, goal.DestinationAccountID)
	if err != nil {
		return nil, err
	}

	now := x.clockNow()
	tx := &models.Transaction{
		TransactionID:   uuid.New().String(),
		UID:             goal.UID,
		GoalID:          goal.GoalID,
		SourceAccountID: source.AccountID,
		Amount:          amount.InexactFloat64(),
		Description:     description,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rule != nil {
		tx.RuleID = rule.RuleID
		if rule.Type == models.RuleCustomTrigger {
			tx.Merchant = rule.Params.Merchant
		}
	}

	if err := x.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	success, transferErr := x.bank.Transfer(ctx, source, destination, tx.Amount)
	if transferErr != nil {
		log.Warn("transfer errored", "transaction_id", tx.TransactionID, "error", transferErr)
	}

	if success {
		tx.Status = models.StatusCompleted
		x.creditGoal(ctx, goal, tx.Amount)
		x.metrics.Transfers.WithLabelValues(string(models.StatusCompleted)).Inc()
	} else {
		tx.Status = models.StatusFailed
		x.metrics.Transfers.WithLabelValues(string(models.StatusFailed)).Inc()
		log.Warn("transfer failed, recording failed transaction",
			"transaction_id", tx.TransactionID, "goal_id", goal.GoalID, "amount", tx.Amount)
	}

	if err := x.txs.Update(ctx, tx); err != nil {
		log.Error("failed to persist final transaction status",
			"transaction_id", tx.TransactionID, "status", tx.Status, "error", err)
	}

	if tx.Status == models.StatusCompleted && rule != nil {
		x.notifier.NotifyRuleTriggered(ctx, rule, goal, tx)
	}
	return tx, nil
}

// creditGoal applies the completed amount to the goal under its lock. The
// goal is re-read inside the critical section so concurrent completions on
// other cadences never lose an increment.
func (x *Executor) creditGoal(ctx context.Context, goal *models.SavingsGoal, amount float64) {
	log := logger.FromContext(ctx)

	unlock := x.locks.Lock(goal.GoalID)
	defer unlock()

	fresh, err := x.goals.Get(ctx, goal.UID, goal.GoalID)
	if err != nil {
		log.Error("failed to reload goal for credit", "goal_id", goal.GoalID, "error", err)
		return
	}

	wasComplete := fresh.CurrentAmount >= fresh.TargetAmount
	fresh.CurrentAmount += amount
	if err := x.goals.Update(ctx, fresh); err != nil {
		log.Error("failed to persist goal credit", "goal_id", goal.GoalID, "error", err)
		return
	}
	*goal = *fresh

	if !wasComplete && fresh.CurrentAmount >= fresh.TargetAmount {
		x.notifier.NotifyGoalCompleted(ctx, fresh)
		x.metrics.Notifications.WithLabelValues("completed").Inc()
		log.Info("goal completed", "goal_id", fresh.GoalID, "saved", fresh.CurrentAmount)
	}
}
