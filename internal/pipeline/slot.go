package pipeline

import (
	"context"
	"sync"
)

type SlotState string

const (
	SlotIdle    SlotState = "idle"
	SlotParsing SlotState = "parsing"
	SlotSuccess SlotState = "success"
	SlotEmpty   SlotState = "empty"
	SlotError   SlotState = "error"
)

// SlotSnapshot is a point-in-time copy of an ImportSlot.
type SlotSnapshot struct {
	State      SlotState
	Generation uint64
	FileName   string
	Result     Result
}

// ImportSlot holds the outcome of the latest import started through it.
// Starting a new import cancels the previous one, and results carrying an
// older generation are dropped.
type ImportSlot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   SlotSnapshot
}

func NewImportSlot() *ImportSlot {
	return &ImportSlot{snap: SlotSnapshot{State: SlotIdle}}
}

// Begin moves the slot to Parsing and returns the context and generation the
// new job must run with.
func (s *ImportSlot) Begin(parent context.Context, fileName string) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.gen++
	s.snap = SlotSnapshot{State: SlotParsing, Generation: s.gen, FileName: fileName}
	return ctx, s.gen
}

// Complete stores res if gen is still current. It reports whether the result
// was kept.
func (s *ImportSlot) Complete(gen uint64, res Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.snap.Result = res
	s.snap.State = stateFor(res.Status)
	return true
}

func (s *ImportSlot) Snapshot() SlotSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset cancels any running job and returns the slot to Idle.
func (s *ImportSlot) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.snap = SlotSnapshot{State: SlotIdle, Generation: s.gen}
}

// Start runs job in its own goroutine. The returned channel is closed once
// the job has returned, whether or not its result was kept.
func (s *ImportSlot) Start(parent context.Context, fileName string, job func(ctx context.Context) Result) <-chan struct{} {
	ctx, gen := s.Begin(parent, fileName)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Complete(gen, job(ctx))
	}()
	return done
}

func stateFor(status Status) SlotState {
	switch status {
	case StatusSuccess:
		return SlotSuccess
	case StatusEmpty:
		return SlotEmpty
	default:
		return SlotError
	}
}
