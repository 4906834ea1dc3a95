package dto

import (
	"time"
)

type BankTransactionType string

const (
	BankCredit BankTransactionType = "credit"
	BankDebit  BankTransactionType = "debit"
)

// BankTransaction is an external transaction as reported by the banking
// provider, normalized so debits carry a negative amount.
type BankTransaction struct {
	Type        BankTransactionType `json:"type"`
	Amount      float64             `json:"amount"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Merchant    string              `json:"merchant"`
	Timestamp   time.Time           `json:"timestamp"`
}
