package handlers

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/internal/response"
)

// AutomationRunner is the administrative surface over the rule engine. Both
// entry points reuse the exact scheduled per-rule path.
type AutomationRunner interface {
	RunAll(ctx context.Context) error
	RunCategory(ctx context.Context, category engine.Category) error
}

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	Automation      AutomationRunner
}
