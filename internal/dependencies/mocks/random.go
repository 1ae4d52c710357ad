package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/paradox/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued UUIDs are consumed in order.
type MockRandom struct {
	mu    sync.Mutex
	uuids []string
	calls int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// UUID returns the next queued UUID. With the queue empty it returns a
// deterministic UUID derived from the call count, so repeated calls still
// produce distinct values.
func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.uuids) == 0 {
		return fmt.Sprintf("%06x00-0000-4000-8000-000000000000", r.calls)
	}
	result := r.uuids[0]
	r.uuids = r.uuids[1:]
	return result
}

// QueueUUID adds values to the UUID result queue
func (r *MockRandom) QueueUUID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuids = append(r.uuids, values...)
}

// Calls returns how many UUIDs have been handed out
func (r *MockRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
