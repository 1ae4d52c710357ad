package factory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/paradox/internal/dependencies/mocks"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/services/catalog"
	"github.com/mcoot/paradox/internal/services/progression"
	"github.com/mcoot/paradox/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// Events records everything the engine published
	Events *EventRecorder
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, progression.DefaultConfig(), logger)

	events := &EventRecorder{next: app.Broadcaster}
	app.Engine = progression.New(store, mockClock, mockRandom, events, logger, progression.DefaultConfig())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Events:     events,
	}
}

// TestSeed is a small catalog: three levels, hints for the first two and a
// single directory entry
func TestSeed() *catalog.Seed {
	return &catalog.Seed{
		Questions: []catalog.SeedQuestion{
			{Level: 1, MediaReference: "https://cdn.example.com/q1.png", Answer: "paradox"},
			{Level: 2, MediaReference: "https://cdn.example.com/q2.png", Answer: "escher"},
			{Level: 3, MediaReference: "https://cdn.example.com/q3.png", Answer: "penrose"},
		},
		Hints: []catalog.SeedHintSet{
			{Level: 1, Tiers: []string{"think of contradictions", "greek origin", "para + doxa"}},
			{Level: 2, Tiers: []string{"an artist", "impossible staircases", "dutch"}},
		},
		Members: []catalog.SeedMember{
			{ID: "m1", Name: "Ada", Position: "Developer", Category: "core"},
		},
	}
}

// LoadTestCatalog loads TestSeed into the catalog
func (t *TestApp) LoadTestCatalog(ctx context.Context) error {
	return t.Catalog.Load(ctx, TestSeed())
}

// EventRecorder keeps a copy of every event and forwards it to the next
// notifier
type EventRecorder struct {
	mu     sync.Mutex
	events []model.Event
	next   progression.Notifier
}

// Publish implements progression.Notifier
func (r *EventRecorder) Publish(event model.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Publish(event)
	}
}

// Types returns the recorded event types in publish order
func (r *EventRecorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// All returns a copy of the recorded events
func (r *EventRecorder) All() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}
