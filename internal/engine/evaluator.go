package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalvault/savings-engine/internal/dto"
	"github.com/goalvault/savings-engine/internal/models"
)

// Proposal is a candidate transfer produced by rule evaluation, before
// balance guarding and execution.
type Proposal struct {
	Amount      decimal.Decimal
	Description string
}

// minProposal is the floor below which percentage-style proposals are
// dropped rather than moving pennies.
var minProposal = decimal.NewFromInt(1)

// incomeKeywords mark a credit as income when its description contains one
// of them, case-insensitive.
var incomeKeywords = []string{"salary", "payroll", "direct deposit"}

// evaluatorBank is the provider surface evaluation needs: history only.
type evaluatorBank interface {
	GetTransactionsSince(ctx context.Context, account *models.BankAccount, since time.Time) ([]dto.BankTransaction, error)
}

// Evaluator turns a rule plus its supporting bank data into zero or more
// proposals. It never persists anything.
type Evaluator struct {
	bank     evaluatorBank
	clockNow func() time.Time
}

func NewEvaluator(bank evaluatorBank) *Evaluator {
	return &Evaluator{
		bank:     bank,
		clockNow: time.Now,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	switch rule.Type {
	case models.RuleFixedAmount:
		return e.evaluateFixedAmount(rule), nil
	case models.RuleRoundUp:
		return e.evaluateRoundUp(ctx, rule, account)
	case models.RuleIncomePercentage:
		return e.evaluateIncomePercentage(ctx, rule, account)
	case models.RuleSpendingCategory:
		return e.evaluateSpendingCategory(ctx, rule, account)
	default: // models.RuleCustomTrigger, Validate rejects everything else
		return e.evaluateCustomTrigger(ctx, rule, account)
	}
}

func (e *Evaluator) evaluateFixedAmount(rule *models.SavingsRule) []Proposal {
	return []Proposal{{
		Amount:      decimal.NewFromFloat(rule.Params.Amount),
		Description: fmt.Sprintf("Automated %s savings: %s", strings.ToLower(string(rule.Params.Cadence)), rule.Name),
	}}
}

// evaluateRoundUp sums, over yesterday's debits, the gap between each debit
// and the next whole dollar.
func (e *Evaluator) evaluateRoundUp(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error) {
	dayStart := startOfDay(e.clockNow())
	yesterdayStart := dayStart.AddDate(0, 0, -1)

	txs, err := e.bank.GetTransactionsSince(ctx, account, yesterdayStart)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	count := 0
	for _, tx := range txs {
		if tx.Type != dto.BankDebit || !tx.Timestamp.Before(dayStart) {
			continue
		}
		spent := decimal.NewFromFloat(tx.Amount).Neg()
		roundUp := spent.Ceil().Sub(spent)
		if roundUp.IsPositive() {
			total = total.Add(roundUp)
			count++
		}
	}

	if !total.IsPositive() {
		return nil, nil
	}
	return []Proposal{{
		Amount:      total.Round(2),
		Description: fmt.Sprintf("Round-up savings from %d transactions", count),
	}}, nil
}

// evaluateIncomePercentage proposes a slice of each income deposit seen in
// the trailing day, one proposal per deposit.
func (e *Evaluator) evaluateIncomePercentage(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error) {
	since := e.clockNow().Add(-24 * time.Hour)
	txs, err := e.bank.GetTransactionsSince(ctx, account, since)
	if err != nil {
		return nil, err
	}

	percent := decimal.NewFromFloat(rule.Params.Percent)
	var proposals []Proposal
	for _, tx := range txs {
		if tx.Type != dto.BankCredit || tx.Timestamp.Before(since) || !isIncome(tx.Description) {
			continue
		}
		deposit := decimal.NewFromFloat(tx.Amount)
		amount := deposit.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
		if amount.LessThan(minProposal) {
			continue
		}
		proposals = append(proposals, Proposal{
			Amount:      amount,
			Description: fmt.Sprintf("Automatic %v%% from deposit of $%s", rule.Params.Percent, deposit.StringFixed(2)),
		})
	}
	return proposals, nil
}

// evaluateSpendingCategory proposes a percentage of the last week's spend
// whose category or merchant matches the rule's filter.
func (e *Evaluator) evaluateSpendingCategory(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error) {
	since := e.clockNow().AddDate(0, 0, -7)
	txs, err := e.bank.GetTransactionsSince(ctx, account, since)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(rule.Params.Category)
	spend := decimal.Zero
	for _, tx := range txs {
		if tx.Type != dto.BankDebit || tx.Timestamp.Before(since) {
			continue
		}
		if strings.Contains(strings.ToLower(tx.Category), filter) ||
			strings.Contains(strings.ToLower(tx.Merchant), filter) {
			spend = spend.Add(decimal.NewFromFloat(tx.Amount).Neg())
		}
	}
	if !spend.IsPositive() {
		return nil, nil
	}

	percent := decimal.NewFromFloat(rule.Params.Percent)
	amount := spend.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	if amount.LessThan(minProposal) {
		return nil, nil
	}
	return []Proposal{{
		Amount:      amount,
		Description: fmt.Sprintf("Category spending savings (%s): %s", rule.Params.Category, rule.Name),
	}}, nil
}

// evaluateCustomTrigger proposes the rule's amount once if the merchant was
// seen on the account within the trailing hour. Merchant matching is a
// case-insensitive substring test.
func (e *Evaluator) evaluateCustomTrigger(ctx context.Context, rule *models.SavingsRule, account *models.BankAccount) ([]Proposal, error) {
	since := e.clockNow().Add(-time.Hour)
	txs, err := e.bank.GetTransactionsSince(ctx, account, since)
	if err != nil {
		return nil, err
	}

	merchant := strings.ToLower(rule.Params.Merchant)
	for _, tx := range txs {
		if tx.Timestamp.Before(since) {
			continue
		}
		if strings.Contains(strings.ToLower(tx.Merchant), merchant) {
			return []Proposal{{
				Amount:      decimal.NewFromFloat(rule.Params.Amount),
				Description: "Automatic savings triggered by purchase at " + rule.Params.Merchant,
			}}, nil
		}
	}
	return nil, nil
}

func isIncome(description string) bool {
	lower := strings.ToLower(description)
	for _, keyword := range incomeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
