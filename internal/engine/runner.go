package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/goalvault/savings-engine/internal/errs"
	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/models"
	"github.com/goalvault/savings-engine/pkg/logger"
)

// Category names one of the engine's independently scheduled rule batches.
type Category string

const (
	CategoryDaily   Category = "daily"
	CategoryWeekly  Category = "weekly"
	CategoryMonthly Category = "monthly"
	CategoryPayday  Category = "payday"
	CategoryRoundUp Category = "roundup"
	CategoryCustom  Category = "custom"
)

// allCategories in the order a full manual run processes them.
var allCategories = []Category{
	CategoryDaily, CategoryWeekly, CategoryMonthly,
	CategoryPayday, CategoryRoundUp, CategoryCustom,
}

// ParseCategory maps an external category name onto a batch.
func ParseCategory(s string) (Category, error) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errs.NewValidationError("unknown rule category: " + s)
}

type runnerRuleStore interface {
	ListActiveByCadence(ctx context.Context, cadence models.Cadence) ([]*models.SavingsRule, error)
	ListActiveByType(ctx context.Context, ruleType models.RuleType) ([]*models.SavingsRule, error)
}

type runnerGoalStore interface {
	Get(ctx context.Context, uid, goalID string) (*models.SavingsGoal, error)
}

type runnerAccountStore interface {
	Get(ctx context.Context, uid, accountID string) (*models.BankAccount, error)
	UpdateBalance(ctx context.Context, uid, accountID string, balance float64) error
}

type runnerBank interface {
	GetBalance(ctx context.Context, account *models.BankAccount) (float64, error)
}

type ruleEvaluator interface {
	Evaluate(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error)
}

type proposalExecutor interface {
	Execute(ctx context.Context, goal *models.SavingsGoal, source *models.BankAccount, rule *models.SavingsRule, amount decimal.Decimal, description string) (*models.Transaction, error)
}

// Runner drives one batch of rules through evaluate -> guard -> execute.
// One rule's failure never stops the rest of the batch; the scheduled
// trigger and the manual endpoint both go through this exact path.
type Runner struct {
	rules    runnerRuleStore
	goals    runnerGoalStore
	accounts runnerAccountStore
	bank     runnerBank
	eval     ruleEvaluator
	guard    Guard
	exec     proposalExecutor
	metrics  *metrics.Metrics
}

func NewRunner(rules runnerRuleStore, goals runnerGoalStore, accounts runnerAccountStore, bank runnerBank, eval ruleEvaluator, exec proposalExecutor, m *metrics.Metrics) *Runner {
	return &Runner{
		rules:    rules,
		goals:    goals,
		accounts: accounts,
		bank:     bank,
		eval:     eval,
		exec:     exec,
		metrics:  m,
	}
}

// RunCategory selects the category's active rules and processes them
// sequentially.
func (r *Runner) RunCategory(ctx context.Context, category Category) error {
	log := logger.FromContext(ctx)

	rules, err := r.selectRules(ctx, category)
	if err != nil {
		return fmt.Errorf("selecting %s rules: %w", category, err)
	}
	log.Info("processing rule batch", "category", string(category), "rule_count", len(rules))

	for _, rule := range rules {
		if err := r.processRule(ctx, category, rule); err != nil {
			r.metrics.RuleErrors.WithLabelValues(string(category)).Inc()
			log.Error("rule processing failed, continuing batch",
				"category", string(category), "rule_id", rule.RuleID, "error", err)
		}
	}
	return nil
}

// RunAll fires every category through the same per-rule path. A category
// whose selection fails does not stop the remaining categories.
func (r *Runner) RunAll(ctx context.Context) error {
	var errsAll []error
	for _, category := range allCategories {
		if err := r.RunCategory(ctx, category); err != nil {
			errsAll = append(errsAll, err)
		}
	}
	return errors.Join(errsAll...)
}

func (r *Runner) selectRules(ctx context.Context, category Category) ([]*models.SavingsRule, error) {
	switch category {
	case CategoryDaily:
		return r.rules.ListActiveByCadence(ctx, models.CadenceDaily)
	case CategoryWeekly:
		return r.rules.ListActiveByCadence(ctx, models.CadenceWeekly)
	case CategoryMonthly:
		return r.rules.ListActiveByCadence(ctx, models.CadenceMonthly)
	case CategoryPayday:
		return r.rules.ListActiveByType(ctx, models.RuleIncomePercentage)
	case CategoryRoundUp:
		return r.rules.ListActiveByType(ctx, models.RuleRoundUp)
	case CategoryCustom:
		return r.rules.ListActiveByType(ctx, models.RuleCustomTrigger)
	default:
		return nil, errs.NewValidationError("unknown rule category: " + string(category))
	}
}

// processRule is the per-rule failure boundary. A panic or error here is
// reported to the caller, which logs it and moves on.
func (r *Runner) processRule(ctx context.Context, category Category, rule *models.SavingsRule) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic processing rule %s: %v", rule.RuleID, p)
		}
	}()

	log := logger.FromContext(ctx).With("rule_id", rule.RuleID, "rule_type", string(rule.Type))
	ctx = logger.ToContext(ctx, log)
	cat := string(category)

	if err := rule.Validate(); err != nil {
		var malformed *errs.MalformedRuleError
		if errors.As(err, &malformed) {
			r.metrics.RulesSkipped.WithLabelValues(cat, "malformed").Inc()
			log.Warn("skipping malformed rule", "error", err)
			return nil
		}
		return err
	}

	goal, err := r.goals.Get(ctx, rule.UID, rule.GoalID)
	if err != nil {
		return r.skipIfNotFound(log, cat, err, "goal missing for rule")
	}
	account, err := r.accounts.Get(ctx, rule.UID, rule.SourceAccountID)
	if err != nil {
		return r.skipIfNotFound(log, cat, err, "source account missing for rule")
	}

	// Fresh balance for the whole rule; the stored copy is only a cache.
	balanceValue, err := r.bank.GetBalance(ctx, account)
	if err != nil {
		r.metrics.RulesSkipped.WithLabelValues(cat, "balance_unavailable").Inc()
		log.Warn("skipping rule, balance unavailable", "error", err)
		return nil
	}
	if cacheErr := r.accounts.UpdateBalance(ctx, account.UID, account.AccountID, balanceValue); cacheErr != nil {
		log.Warn("failed to refresh cached balance", "account_id", account.AccountID, "error", cacheErr)
	}
	balance := decimal.NewFromFloat(balanceValue)

	proposals, err := r.eval.Evaluate(ctx, rule, account)
	if err != nil {
		return err
	}
	if len(proposals) == 0 {
		r.metrics.RulesSkipped.WithLabelValues(cat, "no_proposal").Inc()
		log.Debug("rule produced no proposals")
		return nil
	}

	executed := 0
	for _, proposal := range proposals {
		approved, err := r.guard.Approve(balance, proposal.Amount)
		if err != nil {
			var insufficient *errs.InsufficientBalanceError
			if errors.As(err, &insufficient) {
				r.metrics.RulesSkipped.WithLabelValues(cat, "insufficient_balance").Inc()
				log.Warn("skipping proposal, insufficient balance",
					"proposed", proposal.Amount.StringFixed(2), "balance", balance.StringFixed(2))
				continue
			}
			return err
		}
		if approved.LessThan(proposal.Amount) {
			log.Warn("transfer amount clamped to available balance",
				"proposed", proposal.Amount.StringFixed(2), "approved", approved.StringFixed(2))
		}

		if _, err := r.exec.Execute(ctx, goal, account, rule, approved, proposal.Description); err != nil {
			return err
		}
		// Later proposals in the same batch see the drained balance.
		balance = balance.Sub(approved)
		executed++
	}

	if executed > 0 {
		r.metrics.RulesProcessed.WithLabelValues(cat).Inc()
	}
	return nil
}

func (r *Runner) skipIfNotFound(log *slog.Logger, category string, err error, msg string) error {
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		r.metrics.RulesSkipped.WithLabelValues(category, "not_found").Inc()
		log.Warn(msg, "error", err)
		return nil
	}
	return err
}
