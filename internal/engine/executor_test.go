package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/goalvault/savings-engine/internal/errs"
	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/helpers"
)

type execFakeTxStore struct {
	created []*models.Transaction
	updated []*models.Transaction
}

func (f *execFakeTxStore) Create(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	f.created = append(f.created, &cp)
	return nil
}

func (f *execFakeTxStore) Update(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	f.updated = append(f.updated, &cp)
	return nil
}

type execFakeGoalStore struct {
	goals map[string]*models.SavingsGoal
}

func (f *execFakeGoalStore) Get(_ context.Context, _, goalID string) (*models.SavingsGoal, error) {
	goal, ok := f.goals[goalID]
	if !ok {
		return nil, errs.NewNotFoundError("goal not found")
	}
	cp := *goal
	return &cp, nil
}

func (f *execFakeGoalStore) Update(_ context.Context, goal *models.SavingsGoal) error {
	cp := *goal
	f.goals[goal.GoalID] = &cp
	return nil
}

type execFakeAccountStore struct {
	accounts map[string]*models.BankAccount
}

func (f *execFakeAccountStore) Get(_ context.Context, _, accountID string) (*models.BankAccount, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, errs.NewNotFoundError("bank account not found")
	}
	return account, nil
}

type execFakeBank struct {
	success   bool
	err       error
	transfers []float64
}

func (f *execFakeBank) Transfer(_ context.Context, _, _ *models.BankAccount, amount float64) (bool, error) {
	f.transfers = append(f.transfers, amount)
	return f.success, f.err
}

type fakeNotifier struct {
	ruleTriggered []string
	goalCompleted []string
	nearComplete  []string
	weeklyReports int
}

func (f *fakeNotifier) NotifyRuleTriggered(_ context.Context, rule *models.SavingsRule, _ *models.SavingsGoal, _ *models.Transaction) {
	f.ruleTriggered = append(f.ruleTriggered, rule.RuleID)
}

func (f *fakeNotifier) NotifyGoalCompleted(_ context.Context, goal *models.SavingsGoal) {
	f.goalCompleted = append(f.goalCompleted, goal.GoalID)
}

func (f *fakeNotifier) NotifyGoalNearCompletion(_ context.Context, goal *models.SavingsGoal, _ float64) {
	f.nearComplete = append(f.nearComplete, goal.GoalID)
}

func (f *fakeNotifier) NotifyWeeklyReport(_ context.Context, _ *models.SavingsGoal, _, _ float64) {
	f.weeklyReports++
}

type executorFixture struct {
	txs      *execFakeTxStore
	goals    *execFakeGoalStore
	accounts *execFakeAccountStore
	bank     *execFakeBank
	notifier *fakeNotifier
	executor *Executor
}

func newExecutorFixture(transferSucceeds bool) *executorFixture {
	f := &executorFixture{
		txs: &execFakeTxStore{},
		goals: &execFakeGoalStore{goals: map[string]*models.SavingsGoal{
			"g1": {GoalID: "g1", UID: "uid-1", Name: "Vacation", TargetAmount: 1000, CurrentAmount: 0, DestinationAccountID: "acc-save"},
		}},
		accounts: &execFakeAccountStore{accounts: map[string]*models.BankAccount{
			"acc-save": {AccountID: "acc-save", UID: "uid-1", Name: "Savings"},
		}},
		bank:     &execFakeBank{success: transferSucceeds},
		notifier: &fakeNotifier{},
	}
	f.executor = NewExecutor(f.txs, f.goals, f.accounts, f.bank, f.notifier, metrics.New(prometheus.NewRegistry()))
	f.executor.clockNow = func() time.Time { return evalNow }
	return f
}

func TestExecuteCompletedTransfer(t *testing.T) {
	f := newExecutorFixture(true)
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}
	rule := &models.SavingsRule{RuleID: "r1", Type: models.RuleFixedAmount, Params: models.RuleParams{Cadence: models.CadenceDaily, Amount: 50}}

	tx, err := f.executor.Execute(helpers.TestCtx(), goal, source, rule, decimal.NewFromInt(50), "Automated daily savings")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if tx.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", tx.Status)
	}
	if tx.RuleID != "r1" {
		t.Fatalf("ruleId = %q, want r1", tx.RuleID)
	}
	if len(f.txs.created) != 1 || f.txs.created[0].Status != models.StatusPending {
		t.Fatalf("expected one pending create, got %+v", f.txs.created)
	}
	if len(f.txs.updated) != 1 || f.txs.updated[0].Status != models.StatusCompleted {
		t.Fatalf("expected one completed update, got %+v", f.txs.updated)
	}
	if stored := f.goals.goals["g1"]; stored.CurrentAmount != 50 {
		t.Fatalf("goal currentAmount = %v, want 50", stored.CurrentAmount)
	}
	if goal.CurrentAmount != 50 {
		t.Fatalf("caller's goal not refreshed, currentAmount = %v", goal.CurrentAmount)
	}
	if len(f.notifier.ruleTriggered) != 1 || f.notifier.ruleTriggered[0] != "r1" {
		t.Fatalf("expected rule trigger notification, got %v", f.notifier.ruleTriggered)
	}
	if len(f.notifier.goalCompleted) != 0 {
		t.Fatalf("goal should not be complete yet, got %v", f.notifier.goalCompleted)
	}
}

func TestExecuteFailedTransfer(t *testing.T) {
	f := newExecutorFixture(false)
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}

	tx, err := f.executor.Execute(helpers.TestCtx(), goal, source, nil, decimal.NewFromInt(50), "Manual transfer")
	if err != nil {
		t.Fatalf("a failed transfer is an outcome, not an error: %v", err)
	}

	if tx.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", tx.Status)
	}
	if tx.RuleID != "" {
		t.Fatalf("manual transfer should have no ruleId, got %q", tx.RuleID)
	}
	if stored := f.goals.goals["g1"]; stored.CurrentAmount != 0 {
		t.Fatalf("failed transfer must not credit the goal, currentAmount = %v", stored.CurrentAmount)
	}
	if len(f.notifier.ruleTriggered) != 0 {
		t.Fatalf("failed transfer must not notify, got %v", f.notifier.ruleTriggered)
	}
	if len(f.txs.updated) != 1 || f.txs.updated[0].Status != models.StatusFailed {
		t.Fatalf("expected single transition to failed, got %+v", f.txs.updated)
	}
}

func TestExecuteTransferTransportError(t *testing.T) {
	f := newExecutorFixture(false)
	f.bank.err = errors.New("gateway timeout")
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}

	tx, err := f.executor.Execute(helpers.TestCtx(), goal, source, nil, decimal.NewFromInt(25), "Manual transfer")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if tx.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", tx.Status)
	}
}

func TestExecuteGoalCompletion(t *testing.T) {
	f := newExecutorFixture(true)
	f.goals.goals["g1"].CurrentAmount = 980
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}
	rule := &models.SavingsRule{RuleID: "r1", Type: models.RuleFixedAmount, Params: models.RuleParams{Cadence: models.CadenceDaily, Amount: 50}}

	_, err := f.executor.Execute(helpers.TestCtx(), goal, source, rule, decimal.NewFromInt(50), "Automated daily savings")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if len(f.notifier.goalCompleted) != 1 || f.notifier.goalCompleted[0] != "g1" {
		t.Fatalf("expected one goal completion notification, got %v", f.notifier.goalCompleted)
	}

	// A further transfer onto an already complete goal must not re-notify.
	_, err = f.executor.Execute(helpers.TestCtx(), goal, source, rule, decimal.NewFromInt(50), "Automated daily savings")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(f.notifier.goalCompleted) != 1 {
		t.Fatalf("completion must notify once, got %v", f.notifier.goalCompleted)
	}
}

func TestExecuteMissingDestination(t *testing.T) {
	f := newExecutorFixture(true)
	f.goals.goals["g1"].DestinationAccountID = "acc-gone"
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}

	_, err := f.executor.Execute(helpers.TestCtx(), goal, source, nil, decimal.NewFromInt(50), "Manual transfer")
	if _, ok := err.(*errs.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(f.txs.created) != 0 {
		t.Fatalf("no transaction may be created before the destination resolves, got %d", len(f.txs.created))
	}
	if len(f.bank.transfers) != 0 {
		t.Fatalf("no transfer may be attempted, got %v", f.bank.transfers)
	}
}

func TestExecuteCustomTriggerRecordsMerchant(t *testing.T) {
	f := newExecutorFixture(true)
	goal, _ := f.goals.Get(helpers.TestCtx(), "uid-1", "g1")
	source := &models.BankAccount{AccountID: "acc-check", UID: "uid-1"}
	rule := &models.SavingsRule{
		RuleID: "r1", Type: models.RuleCustomTrigger,
		Params: models.RuleParams{Merchant: "Starbucks", Amount: 5},
	}

	tx, err := f.executor.Execute(helpers.TestCtx(), goal, source, rule, decimal.NewFromInt(5), "Triggered savings")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if tx.Merchant != "Starbucks" {
		t.Fatalf("merchant = %q, want Starbucks", tx.Merchant)
	}
}
