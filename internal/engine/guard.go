package engine

import (
	"github.com/shopspring/decimal"

	"github.com/goalvault/savings-engine/internal/errs"
)

// clampFactor caps an over-balance transfer at 90% of what is available,
// leaving headroom rather than draining the account to zero.
var clampFactor = decimal.NewFromFloat(0.9)

// Guard validates a proposed transfer against the source account's current
// balance. Applied uniformly to every rule type: transferring more than is
// available is never valid.
type Guard struct{}

// Approve returns the amount to actually transfer, clamped if needed.
// An InsufficientBalanceError means the rule is skipped for this cycle and
// no transaction is created.
func (Guard) Approve(balance, proposed decimal.Decimal) (decimal.Decimal, error) {
	if !balance.IsPositive() {
		return decimal.Zero, errs.NewInsufficientBalanceError("source account balance is not positive")
	}
	if proposed.LessThanOrEqual(balance) {
		return proposed, nil
	}

	clamped := balance.Mul(clampFactor).Round(2)
	if clamped.LessThan(minProposal) {
		return decimal.Zero, errs.NewInsufficientBalanceError("clamped transfer amount below $1.00 minimum")
	}
	return clamped, nil
}
