package models

import (
	"time"
)

// SavingsGoal tracks money saved toward a target. CurrentAmount is mutated
// only by the transaction executor when a transfer completes; Progress is the
// denormalized CurrentAmount/TargetAmount ratio kept in sync on every update
// so the near-completion pre-filter can run as a single Firestore query.
type SavingsGoal struct {
	GoalID               string    `firestore:"goalId" json:"goalId"`
	UID                  string    `firestore:"uid" json:"uid"`
	Name                 string    `firestore:"name" json:"name"`
	TargetAmount         float64   `firestore:"targetAmount" json:"targetAmount"`
	CurrentAmount        float64   `firestore:"currentAmount" json:"currentAmount"`
	Progress             float64   `firestore:"progress" json:"progress"`
	StartDate            string    `firestore:"startDate" json:"startDate"`   // YYYY-MM-DD
	TargetDate           string    `firestore:"targetDate" json:"targetDate"` // YYYY-MM-DD, optional
	DestinationAccountID string    `firestore:"destinationAccountId" json:"destinationAccountId"`
	CreatedAt            time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// ProgressRatio recomputes completion from the authoritative amounts.
func (g *SavingsGoal) ProgressRatio() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return g.CurrentAmount / g.TargetAmount
}
