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

type goalStore struct {
	client *firestore.Client
}

func NewGoalStore(client *firestore.Client) *goalStore {
	return &goalStore{client: client}
}

func (s *goalStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("goals")
}

func (s *goalStore) Create(ctx context.Context, goal *models.SavingsGoal) error {
	now := time.Now()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now
	goal.Progress = goal.ProgressRatio()
	_, err := s.collection(goal.UID).Doc(goal.GoalID).Set(ctx, goal)
	return err
}

func (s *goalStore) Get(ctx context.Context, uid, goalID string) (*models.SavingsGoal, error) {
	doc, err := s.collection(uid).Doc(goalID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("goal " + goalID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var g models.SavingsGoal
	if err := doc.DataTo(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *goalStore) List(ctx context.Context, uid string) ([]*models.SavingsGoal, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return goalsFromDocs(docs)
}

// Update persists the goal, refreshing the denormalized progress ratio so
// the near-completion pre-filter stays queryable.
func (s *goalStore) Update(ctx context.Context, goal *models.SavingsGoal) error {
	goal.UpdatedAt = time.Now()
	goal.Progress = goal.ProgressRatio()
	_, err := s.collection(goal.UID).Doc(goal.GoalID).Set(ctx, goal)
	return err
}

func (s *goalStore) Delete(ctx context.Context, uid, goalID string) error {
	_, err := s.collection(uid).Doc(goalID).Delete(ctx)
	return err
}

// ListNearCompletion returns goals across all users whose stored progress
// ratio is at least minRatio. Callers must recompute progress before acting
// on it; this is only the coarse query filter.
func (s *goalStore) ListNearCompletion(ctx context.Context, minRatio float64) ([]*models.SavingsGoal, error) {
	docs, err := s.client.CollectionGroup("goals").
		Where("progress", ">=", minRatio).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return goalsFromDocs(docs)
}

// ListAll returns every goal across all users, for periodic reporting.
func (s *goalStore) ListAll(ctx context.Context) ([]*models.SavingsGoal, error) {
	docs, err := s.client.CollectionGroup("goals").Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return goalsFromDocs(docs)
}

func goalsFromDocs(docs []*firestore.DocumentSnapshot) ([]*models.SavingsGoal, error) {
	goals := make([]*models.SavingsGoal, 0, len(docs))
	for _, d := range docs {
		var g models.SavingsGoal
		if err := d.DataTo(&g); err != nil {
			return nil, err
		}
		goals = append(goals, &g)
	}
	return goals, nil
}
