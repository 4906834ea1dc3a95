package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/goalvault/savings-engine/internal/errs"
	"github.com/goalvault/savings-engine/internal/models"
)

// tokenCipher encrypts access tokens at rest.
type tokenCipher interface {
	Encrypt(ctx context.Context, token string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type accountStore struct {
	client *firestore.Client
	cipher tokenCipher
}

func NewAccountStore(client *firestore.Client, cipher tokenCipher) *accountStore {
	return &accountStore{client: client, cipher: cipher}
}

func (s *accountStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *accountStore) Create(ctx context.Context, account *models.BankAccount) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	encrypted, err := s.cipher.Encrypt(ctx, account.AccessToken)
	if err != nil {
		return err
	}
	stored := *account
	stored.AccessToken = encrypted

	_, err = s.collection(account.UID).Doc(account.AccountID).Set(ctx, stored)
	return err
}

// Get returns the account with its access token decrypted for use against
// the banking provider.
func (s *accountStore) Get(ctx context.Context, uid, accountID string) (*models.BankAccount, error) {
	doc, err := s.collection(uid).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("account " + accountID + " not found")
	}
	if err != nil {
		return nil, err
	}

	var a models.BankAccount
	if err := doc.DataTo(&a); err != nil {
		return nil, err
	}
	if a.AccessToken != "" {
		token, err := s.cipher.Decrypt(ctx, a.AccessToken)
		if err != nil {
			return nil, err
		}
		a.AccessToken = token
	}
	return &a, nil
}

func (s *accountStore) List(ctx context.Context, uid string) ([]*models.BankAccount, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	accounts := make([]*models.BankAccount, 0, len(docs))
	for _, d := range docs {
		var a models.BankAccount
		if err := d.DataTo(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

// UpdateBalance refreshes the cached balance copy after a provider query.
func (s *accountStore) UpdateBalance(ctx context.Context, uid, accountID string, balance float64) error {
	_, err := s.collection(uid).Doc(accountID).Update(ctx, []firestore.Update{
		{Path: "balance", Value: balance},
		{Path: "updatedAt", Value: time.Now()},
	})
	return err
}

func (s *accountStore) Delete(ctx context.Context, uid, accountID string) error {
	_, err := s.collection(uid).Doc(accountID).Delete(ctx)
	return err
}
