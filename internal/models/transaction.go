package models

import (
	"time"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status can no longer change. A transaction
// moves pending -> completed or pending -> failed, never back.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction records one attempted movement of money into a goal. Only the
// transaction executor creates these; a failed transaction stays on record
// for the user rather than being discarded.
type Transaction struct {
	TransactionID   string            `firestore:"transactionId" json:"transactionId"`
	UID             string            `firestore:"uid" json:"uid"`
	GoalID          string            `firestore:"goalId" json:"goalId"`
	SourceAccountID string            `firestore:"sourceAccountId" json:"sourceAccountId"`
	RuleID          string            `firestore:"ruleId,omitempty" json:"ruleId,omitempty"` // empty = manual
	Amount          float64           `firestore:"amount" json:"amount"`
	Description     string            `firestore:"description" json:"description"`
	Merchant        string            `firestore:"merchant,omitempty" json:"merchant,omitempty"`
	Status          TransactionStatus `firestore:"status" json:"status"`
	CreatedAt       time.Time         `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time         `firestore:"updatedAt" json:"updatedAt"`
}
