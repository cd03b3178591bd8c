package domain

import (
	"sync"

	"github.com/google/uuid"
)

// RunState carries per-run diagnostic state. One instance is created for
// each sink run and passed explicitly to the components that report into
// it; nothing is shared across runs or processes.
type RunState struct {
	// RunID identifies this run in log output.
	RunID string

	mu                sync.Mutex
	authErrorResponse string
	processed         int
	failed            int
}

// NewRunState creates a run state with a fresh run ID.
func NewRunState() *RunState {
	return &RunState{RunID: uuid.NewString()}
}

// SetAuthErrorResponse records the raw body of a failed token refresh
// response for later inspection.
func (s *RunState) SetAuthErrorResponse(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authErrorResponse = body
}

// AuthErrorResponse returns the raw body of the last failed token
// refresh response, or empty if none occurred.
func (s *RunState) AuthErrorResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authErrorResponse
}

// RecordProcessed increments the processed-record counter.
func (s *RunState) RecordProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
}

// RecordFailed increments the failed-record counter.
func (s *RunState) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Counts returns the processed and failed record counts.
func (s *RunState) Counts() (processed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.failed
}
