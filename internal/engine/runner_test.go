package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goalvault/savings-engine/internal/dto"
	"github.com/goalvault/savings-engine/internal/errs"
	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/helpers"
)

func (f *execFakeAccountStore) UpdateBalance(_ context.Context, _, accountID string, balance float64) error {
	if account, ok := f.accounts[accountID]; ok {
		account.Balance = balance
	}
	return nil
}

type runnerFakeRuleStore struct {
	byCadence map[models.Cadence][]*models.SavingsRule
	byType    map[models.RuleType][]*models.SavingsRule
	err       error
	errOn     models.Cadence
	selected  []string
}

func (f *runnerFakeRuleStore) ListActiveByCadence(_ context.Context, cadence models.Cadence) ([]*models.SavingsRule, error) {
	f.selected = append(f.selected, string(cadence))
	if f.err != nil && (f.errOn == "" || f.errOn == cadence) {
		return nil, f.err
	}
	return f.byCadence[cadence], nil
}

func (f *runnerFakeRuleStore) ListActiveByType(_ context.Context, ruleType models.RuleType) ([]*models.SavingsRule, error) {
	f.selected = append(f.selected, string(ruleType))
	return f.byType[ruleType], nil
}

// fullFakeBank backs the whole evaluate -> guard -> execute path in one fake.
type fullFakeBank struct {
	balance    float64
	balanceErr error
	history    []dto.BankTransaction
	historyErr error
	transferOK bool
	transfers  []float64
}

func (f *fullFakeBank) GetBalance(_ context.Context, _ *models.BankAccount) (float64, error) {
	return f.balance, f.balanceErr
}

func (f *fullFakeBank) GetTransactionsSince(_ context.Context, _ *models.BankAccount, _ time.Time) ([]dto.BankTransaction, error) {
	return f.history, f.historyErr
}

func (f *fullFakeBank) Transfer(_ context.Context, _, _ *models.BankAccount, amount float64) (bool, error) {
	f.transfers = append(f.transfers, amount)
	return f.transferOK, nil
}

type runnerFixture struct {
	rules    *runnerFakeRuleStore
	goals    *execFakeGoalStore
	accounts *execFakeAccountStore
	txs      *execFakeTxStore
	bank     *fullFakeBank
	notifier *fakeNotifier
	runner   *Runner
}

func newRunnerFixture(balance float64) *runnerFixture {
	f := &runnerFixture{
		rules: &runnerFakeRuleStore{
			byCadence: map[models.Cadence][]*models.SavingsRule{},
			byType:    map[models.RuleType][]*models.SavingsRule{},
		},
		goals: &execFakeGoalStore{goals: map[string]*models.SavingsGoal{
			"g1": {GoalID: "g1", UID: "uid-1", Name: "Vacation", TargetAmount: 1000, DestinationAccountID: "acc-save"},
		}},
		accounts: &execFakeAccountStore{accounts: map[string]*models.BankAccount{
			"acc-check": {AccountID: "acc-check", UID: "uid-1", Name: "Checking"},
			"acc-save":  {AccountID: "acc-save", UID: "uid-1", Name: "Savings"},
		}},
		txs:      &execFakeTxStore{},
		bank:     &fullFakeBank{balance: balance, transferOK: true},
		notifier: &fakeNotifier{},
	}
	m := metrics.New(prometheus.NewRegistry())
	eval := NewEvaluator(f.bank)
	eval.clockNow = func() time.Time { return evalNow }
	exec := NewExecutor(f.txs, f.goals, f.accounts, f.bank, f.notifier, m)
	exec.clockNow = func() time.Time { return evalNow }
	f.runner = NewRunner(f.rules, f.goals, f.accounts, f.bank, eval, exec, m)
	return f
}

func dailyFixedRule(id string, amount float64) *models.SavingsRule {
	return &models.SavingsRule{
		RuleID: id, UID: "uid-1", GoalID: "g1", SourceAccountID: "acc-check",
		Name: "Daily save", Type: models.RuleFixedAmount, Active: true,
		Params: models.RuleParams{Cadence: models.CadenceDaily, Amount: amount},
	}
}

func TestRunCategoryFixedAmount(t *testing.T) {
	f := newRunnerFixture(500)
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{dailyFixedRule("r1", 50)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("RunCategory returned error: %v", err)
	}

	if len(f.txs.updated) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(f.txs.updated))
	}
	tx := f.txs.updated[0]
	if tx.Status != models.StatusCompleted || tx.Amount != 50 {
		t.Fatalf("transaction = %+v, want completed for 50", tx)
	}
	if got := f.goals.goals["g1"].CurrentAmount; got != 50 {
		t.Fatalf("goal currentAmount = %v, want 50", got)
	}
	// Stored balance cache refreshed from the provider.
	if got := f.accounts.accounts["acc-check"].Balance; got != 500 {
		t.Fatalf("cached balance = %v, want 500", got)
	}
}

func TestRunCategoryClampsToBalance(t *testing.T) {
	f := newRunnerFixture(40)
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{dailyFixedRule("r1", 50)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("RunCategory returned error: %v", err)
	}

	if len(f.bank.transfers) != 1 || f.bank.transfers[0] != 36 {
		t.Fatalf("transfers = %v, want one of 36.00", f.bank.transfers)
	}
	if got := f.goals.goals["g1"].CurrentAmount; got != 36 {
		t.Fatalf("goal currentAmount = %v, want 36", got)
	}
}

func TestRunCategoryInsufficientBalance(t *testing.T) {
	f := newRunnerFixture(1)
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{dailyFixedRule("r1", 50)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("RunCategory returned error: %v", err)
	}

	if len(f.txs.created) != 0 {
		t.Fatalf("no transaction may be created when balance is insufficient, got %d", len(f.txs.created))
	}
	if len(f.bank.transfers) != 0 {
		t.Fatalf("no transfer may be attempted, got %v", f.bank.transfers)
	}
}

func TestRunCategoryContinuesPastBrokenRule(t *testing.T) {
	f := newRunnerFixture(500)
	broken := dailyFixedRule("r1", 50)
	broken.GoalID = "g-gone"
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{broken, dailyFixedRule("r2", 25)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("RunCategory returned error: %v", err)
	}

	if len(f.txs.updated) != 1 || f.txs.updated[0].RuleID != "r2" {
		t.Fatalf("expected the healthy rule to still execute, got %+v", f.txs.updated)
	}
	if got := f.goals.goals["g1"].CurrentAmount; got != 25 {
		t.Fatalf("goal currentAmount = %v, want 25", got)
	}
}

func TestRunCategorySkipsMalformedRule(t *testing.T) {
	f := newRunnerFixture(500)
	malformed := dailyFixedRule("r1", 0) // no amount
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{malformed, dailyFixedRule("r2", 25)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("RunCategory returned error: %v", err)
	}
	if len(f.txs.updated) != 1 || f.txs.updated[0].RuleID != "r2" {
		t.Fatalf("malformed rule must be skipped, healthy rule must run, got %+v", f.txs.updated)
	}
}

func TestRunCategorySkipsOnBalanceError(t *testing.T) {
	f := newRunnerFixture(0)
	f.bank.balanceErr = errs.NewExternalServiceError("bank", "balance unavailable", true)
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{dailyFixedRule("r1", 50)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("balance errors skip the rule, not the batch: %v", err)
	}
	if len(f.txs.created) != 0 {
		t.Fatalf("expected no transactions, got %d", len(f.txs.created))
	}
}

func TestRunCategorySelectionError(t *testing.T) {
	f := newRunnerFixture(500)
	f.rules.err = errors.New("store unavailable")

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err == nil {
		t.Fatal("expected selection failure to surface")
	}
}

func TestRunAllCoversEveryCategory(t *testing.T) {
	f := newRunnerFixture(500)

	if err := f.runner.RunAll(helpers.TestCtx()); err != nil {
		t.Fatalf("RunAll returned error: %v", err)
	}

	want := []string{"DAILY", "WEEKLY", "MONTHLY", "income_percentage", "round_up", "custom_trigger"}
	if len(f.rules.selected) != len(want) {
		t.Fatalf("selections = %v, want %v", f.rules.selected, want)
	}
	for i, sel := range want {
		if f.rules.selected[i] != sel {
			t.Fatalf("selections = %v, want %v", f.rules.selected, want)
		}
	}
}

func TestRunAllContinuesPastFailedCategory(t *testing.T) {
	f := newRunnerFixture(500)
	f.rules.err = errors.New("store unavailable")
	f.rules.errOn = models.CadenceDaily

	err := f.runner.RunAll(helpers.TestCtx())
	if err == nil {
		t.Fatal("expected the daily failure to surface from RunAll")
	}
	if len(f.rules.selected) != len(allCategories) {
		t.Fatalf("remaining categories must still run, selections = %v", f.rules.selected)
	}
}

type panickingEvaluator struct{}

func (panickingEvaluator) Evaluate(context.Context, *models.SavingsRule, *models.BankAccount) ([]Proposal, error) {
	panic("boom")
}

func TestRunCategoryRecoversFromPanic(t *testing.T) {
	f := newRunnerFixture(500)
	f.runner.eval = panickingEvaluator{}
	f.rules.byCadence[models.CadenceDaily] = []*models.SavingsRule{dailyFixedRule("r1", 50)}

	if err := f.runner.RunCategory(helpers.TestCtx(), CategoryDaily); err != nil {
		t.Fatalf("a rule panic must not escape the batch: %v", err)
	}
	if len(f.txs.created) != 0 {
		t.Fatalf("expected no transactions, got %d", len(f.txs.created))
	}
}

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"daily", "weekly", "monthly", "payday", "roundup", "custom"} {
		if _, err := ParseCategory(name); err != nil {
			t.Fatalf("ParseCategory(%q) returned error: %v", name, err)
		}
	}
	if _, err := ParseCategory("hourly"); err == nil {
		t.Fatal("expected unknown category to be rejected")
	}
}
