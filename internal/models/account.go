package models

import (
	"time"
)

// BankAccount is a linked external account. Balance is a cached copy of the
// provider's value; the engine always re-queries before moving money.
type BankAccount struct {
	AccountID     string    `firestore:"accountId" json:"accountId"`
	UID           string    `firestore:"uid" json:"uid"`
	Name          string    `firestore:"name" json:"name"`
	AccountNumber string    `firestore:"accountNumber" json:"accountNumber"`
	Balance       float64   `firestore:"balance" json:"balance"`
	AccessToken   string    `firestore:"accessToken" json:"-"` // KMS-encrypted at rest
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}
