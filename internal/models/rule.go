package models

import (
	"time"

	"github.com/goalvault/savings-engine/internal/errs"
)

type RuleType string

const (
	RuleFixedAmount      RuleType = "fixed_amount"
	RuleRoundUp          RuleType = "round_up"
	RuleIncomePercentage RuleType = "income_percentage"
	RuleSpendingCategory RuleType = "spending_category"
	RuleCustomTrigger    RuleType = "custom_trigger"
)

type Cadence string

const (
	CadenceDaily   Cadence = "DAILY"
	CadenceWeekly  Cadence = "WEEKLY"
	CadenceMonthly Cadence = "MONTHLY"
)

// RuleParams holds the per-type rule parameters as one flat document. Which
// fields are meaningful depends on the rule type; Validate enforces that, so
// a rule that reaches the engine either has a coherent shape or is skipped
// with a malformed-rule error.
type RuleParams struct {
	Cadence  Cadence `firestore:"cadence,omitempty" json:"cadence,omitempty"`   // fixed_amount
	Amount   float64 `firestore:"amount,omitempty" json:"amount,omitempty"`     // fixed_amount, custom_trigger: dollars
	Percent  float64 `firestore:"percent,omitempty" json:"percent,omitempty"`   // income_percentage, spending_category
	Category string  `firestore:"category,omitempty" json:"category,omitempty"` // spending_category: substring filter
	Merchant string  `firestore:"merchant,omitempty" json:"merchant,omitempty"` // custom_trigger
}

// SavingsRule is a user policy for moving money into a goal. Rules are
// created active and evaluated only while Active is set.
type SavingsRule struct {
	RuleID          string     `firestore:"ruleId" json:"ruleId"`
	UID             string     `firestore:"uid" json:"uid"`
	GoalID          string     `firestore:"goalId" json:"goalId"`
	SourceAccountID string     `firestore:"sourceAccountId" json:"sourceAccountId"`
	Name            string     `firestore:"name" json:"name"`
	Type            RuleType   `firestore:"type" json:"type"`
	Params          RuleParams `firestore:"params" json:"params"`
	Active          bool       `firestore:"active" json:"active"`
	CreatedAt       time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

// Validate checks that the params carry what the rule type needs.
func (r *SavingsRule) Validate() error {
	switch r.Type {
	case RuleFixedAmount:
		if r.Params.Amount <= 0 {
			return errs.NewMalformedRuleError("fixed amount rule requires a positive amount")
		}
		switch r.Params.Cadence {
		case CadenceDaily, CadenceWeekly, CadenceMonthly:
		default:
			return errs.NewMalformedRuleError("fixed amount rule requires a DAILY, WEEKLY or MONTHLY cadence")
		}
	case RuleRoundUp:
		// no parameters
	case RuleIncomePercentage:
		if r.Params.Percent <= 0 || r.Params.Percent > 100 {
			return errs.NewMalformedRuleError("income percentage rule requires a percent in (0, 100]")
		}
	case RuleSpendingCategory:
		if r.Params.Category == "" {
			return errs.NewMalformedRuleError("spending category rule requires a category filter")
		}
		if r.Params.Percent <= 0 || r.Params.Percent > 100 {
			return errs.NewMalformedRuleError("spending category rule requires a percent in (0, 100]")
		}
	case RuleCustomTrigger:
		if r.Params.Merchant == "" {
			return errs.NewMalformedRuleError("custom trigger rule requires a merchant")
		}
		if r.Params.Amount <= 0 {
			return errs.NewMalformedRuleError("custom trigger rule requires a positive amount")
		}
	default:
		return errs.NewMalformedRuleError("unknown rule type: " + string(r.Type))
	}
	return nil
}
