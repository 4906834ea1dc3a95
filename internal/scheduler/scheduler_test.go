package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goalvault/savings-engine/internal/config"
	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/pkg/logger"
)

type fakeRunner struct {
	mu         sync.Mutex
	categories []engine.Category
}

func (f *fakeRunner) RunCategory(_ context.Context, category engine.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, category)
	return nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.categories)
}

type fakeMonitor struct {
	mu      sync.Mutex
	checks  int
	reports int
}

func (f *fakeMonitor) CheckProgress(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return nil
}

func (f *fakeMonitor) WeeklyReport(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(logger.NewTestHandler(slog.LevelInfo))
}

func defaultSchedules() config.Schedules {
	return config.Schedules{
		Daily:        "0 1 * * *",
		Weekly:       "0 2 * * 1",
		Monthly:      "0 3 1 * *",
		Payday:       "0 4 * * *",
		RoundUp:      "0 5 * * *",
		Custom:       "0 * * * *",
		Progress:     "0 6 * * *",
		WeeklyReport: "0 7 * * 1",
	}
}

func TestNewRegistersAllTriggers(t *testing.T) {
	s, err := New(testLogger(), &fakeRunner{}, &fakeMonitor{}, defaultSchedules())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 8 {
		t.Fatalf("registered triggers = %d, want 8", got)
	}
}

func TestNewRejectsBadExpression(t *testing.T) {
	schedules := defaultSchedules()
	schedules.Daily = "not a cron expression"

	if _, err := New(testLogger(), &fakeRunner{}, &fakeMonitor{}, schedules); err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}
}

func TestTriggerFires(t *testing.T) {
	schedules := defaultSchedules()
	schedules.Daily = "@every 10ms"

	runner := &fakeRunner{}
	s, err := New(testLogger(), runner, &fakeMonitor{}, schedules)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for runner.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("trigger never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.categories[0] != engine.CategoryDaily {
		t.Fatalf("fired category = %s, want daily", runner.categories[0])
	}
}

func TestStopWaitsForCompletion(t *testing.T) {
	s, err := New(testLogger(), &fakeRunner{}, &fakeMonitor{}, defaultSchedules())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
