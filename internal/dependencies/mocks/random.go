package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/triviastake/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued values are returned in order; once a queue is drained Intn returns
// 0 and UUID/Token return deterministic sequential values.
type MockRandom struct {
	mu sync.Mutex

	intnResults []int
	uuidResults []string
	tokenResult []string

	uuidCounter  int
	tokenCounter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.intnResults) == 0 {
		return 0
	}
	result := r.intnResults[0]
	r.intnResults = r.intnResults[1:]
	return result
}

// UUID returns the next queued UUID or a sequential placeholder
func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.uuidResults) > 0 {
		result := r.uuidResults[0]
		r.uuidResults = r.uuidResults[1:]
		return result
	}
	r.uuidCounter++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", r.uuidCounter)
}

// Token returns the next queued token or a sequential placeholder
func (r *MockRandom) Token(length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokenResult) > 0 {
		result := r.tokenResult[0]
		r.tokenResult = r.tokenResult[1:]
		return result
	}
	r.tokenCounter++
	return fmt.Sprintf("token-%d", r.tokenCounter)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = append(r.intnResults, values...)
}

// QueueUUID adds values to the UUID result queue
func (r *MockRandom) QueueUUID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuidResults = append(r.uuidResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenResult = append(r.tokenResult, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = nil
	r.uuidResults = nil
	r.tokenResult = nil
	r.uuidCounter = 0
	r.tokenCounter = 0
}
