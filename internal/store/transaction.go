package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/goalvault/savings-engine/internal/models"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

func (s *transactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	_, err := s.collection(tx.UID).Doc(tx.TransactionID).Set(ctx, tx)
	return err
}

// Update persists a status change. The executor is the only writer and only
// moves pending transactions to a terminal status.
func (s *transactionStore) Update(ctx context.Context, tx *models.Transaction) error {
	tx.UpdatedAt = time.Now()
	_, err := s.collection(tx.UID).Doc(tx.TransactionID).Set(ctx, tx)
	return err
}

func (s *transactionStore) ListByGoal(ctx context.Context, uid, goalID string) ([]*models.Transaction, error) {
	docs, err := s.collection(uid).
		Where("goalId", "==", goalID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	txs := make([]*models.Transaction, 0, len(docs))
	for _, d := range docs {
		var t models.Transaction
		if err := d.DataTo(&t); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, nil
}

// SumCompletedSince totals completed transaction amounts for a goal from
// since until now, for periodic progress reports.
func (s *transactionStore) SumCompletedSince(ctx context.Context, uid, goalID string, since time.Time) (float64, error) {
	docs, err := s.collection(uid).
		Where("goalId", "==", goalID).
		Where("status", "==", string(models.StatusCompleted)).
		Where("createdAt", ">=", since).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}

	var total float64
	for _, d := range docs {
		var t models.Transaction
		if err := d.DataTo(&t); err != nil {
			return 0, err
		}
		total += t.Amount
	}
	return total, nil
}
