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

type ruleStore struct {
	client *firestore.Client
}

func NewRuleStore(client *firestore.Client) *ruleStore {
	return &ruleStore{client: client}
}

func (s *ruleStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("rules")
}

func (s *ruleStore) Create(ctx context.Context, rule *models.SavingsRule) error {
	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	_, err := s.collection(rule.UID).Doc(rule.RuleID).Set(ctx, rule)
	return err
}

func (s *ruleStore) Get(ctx context.Context, uid, ruleID string) (*models.SavingsRule, error) {
	doc, err := s.collection(uid).Doc(ruleID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("rule " + ruleID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var r models.SavingsRule
	if err := doc.DataTo(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ruleStore) List(ctx context.Context, uid string) ([]*models.SavingsRule, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return rulesFromDocs(docs)
}

func (s *ruleStore) Update(ctx context.Context, rule *models.SavingsRule) error {
	rule.UpdatedAt = time.Now()
	_, err := s.collection(rule.UID).Doc(rule.RuleID).Set(ctx, rule)
	return err
}

// SetActive toggles a rule without touching the rest of the document.
func (s *ruleStore) SetActive(ctx context.Context, uid, ruleID string, active bool) error {
	_, err := s.collection(uid).Doc(ruleID).Update(ctx, []firestore.Update{
		{Path: "active", Value: active},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundError("rule " + ruleID + " not found")
	}
	return err
}

// Delete removes the rule. Transactions that reference it stay on record.
func (s *ruleStore) Delete(ctx context.Context, uid, ruleID string) error {
	_, err := s.collection(uid).Doc(ruleID).Delete(ctx)
	return err
}

// ListActiveByCadence returns active fixed-amount rules on the given cadence
// across all users.
func (s *ruleStore) ListActiveByCadence(ctx context.Context, cadence models.Cadence) ([]*models.SavingsRule, error) {
	docs, err := s.client.CollectionGroup("rules").
		Where("type", "==", string(models.RuleFixedAmount)).
		Where("params.cadence", "==", string(cadence)).
		Where("active", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return rulesFromDocs(docs)
}

// ListActiveByType returns active rules of the given type across all users.
func (s *ruleStore) ListActiveByType(ctx context.Context, ruleType models.RuleType) ([]*models.SavingsRule, error) {
	docs, err := s.client.CollectionGroup("rules").
		Where("type", "==", string(ruleType)).
		Where("active", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return rulesFromDocs(docs)
}

func rulesFromDocs(docs []*firestore.DocumentSnapshot) ([]*models.SavingsRule, error) {
	rules := make([]*models.SavingsRule, 0, len(docs))
	for _, d := range docs {
		var r models.SavingsRule
		if err := d.DataTo(&r); err != nil {
			return nil, err
		}
		rules = append(rules, &r)
	}
	return rules, nil
}
