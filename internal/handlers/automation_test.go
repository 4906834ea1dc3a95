package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/internal/errs"
)

type stubAutomationRunner struct {
	runAllCalled bool
	categories   []engine.Category
	err          error
}

func (s *stubAutomationRunner) RunAll(ctx context.Context) error {
	s.runAllCalled = true
	return s.err
}

func (s *stubAutomationRunner) RunCategory(ctx context.Context, category engine.Category) error {
	s.categories = append(s.categories, category)
	return s.err
}

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

func newAutomationFixture() (*automationHandlers, *stubAutomationRunner, *stubResponseHandler) {
	runner := &stubAutomationRunner{}
	rh := &stubResponseHandler{}
	h := NewAutomationHandlers(&Deps{ResponseHandler: rh, Automation: runner})
	return h, runner, rh
}

func TestRunAllHandler(t *testing.T) {
	h, runner, rh := newAutomationFixture()

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	rec := httptest.NewRecorder()
	h.AutomationRoutes().ServeHTTP(rec, req)

	if !runner.runAllCalled {
		t.Fatal("expected RunAll to be invoked")
	}
	if !rh.writeSuccessCalled || rh.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected 200 success, got status %d", rh.writeSuccessStatus)
	}
}

func TestRunCategoryHandler(t *testing.T) {
	h, runner, rh := newAutomationFixture()

	req := httptest.NewRequest(http.MethodPost, "/run/roundup", nil)
	rec := httptest.NewRecorder()
	h.AutomationRoutes().ServeHTTP(rec, req)

	if len(runner.categories) != 1 || runner.categories[0] != engine.CategoryRoundUp {
		t.Fatalf("categories = %v, want [roundup]", runner.categories)
	}
	if !rh.writeSuccessCalled {
		t.Fatal("expected success response")
	}
}

func TestRunCategoryHandlerUnknownCategory(t *testing.T) {
	h, runner, rh := newAutomationFixture()

	req := httptest.NewRequest(http.MethodPost, "/run/hourly", nil)
	rec := httptest.NewRecorder()
	h.AutomationRoutes().ServeHTTP(rec, req)

	if len(runner.categories) != 0 {
		t.Fatalf("runner must not be invoked for an unknown category, got %v", runner.categories)
	}
	if !rh.handleErrorCalled {
		t.Fatal("expected error to be handled")
	}
	if _, ok := rh.handleError.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", rh.handleError)
	}
}

func TestRunAllHandlerPropagatesError(t *testing.T) {
	h, runner, rh := newAutomationFixture()
	runner.err = errors.New("batch failed")

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	rec := httptest.NewRecorder()
	h.AutomationRoutes().ServeHTTP(rec, req)

	if !rh.handleErrorCalled {
		t.Fatal("expected error to be handled")
	}
}
