// Package job implements a work-stealing job system: a fixed pool of workers, each owning a
// mutex-guarded deque, that pull their own work FIFO and steal from the back of busy siblings.
package job

import (
	"context"
	"sync"
	"sync/atomic"
)

// Func is the body of a job. The context is the one passed to Schedule, extended with the worker
// running the job.
type Func func(ctx context.Context)

// State is the completion handle of a scheduled job. It is shared by the submitter and the worker
// that runs the job.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond
	done atomic.Bool
	id   uint64
	name string
	err  error
}

func newState(id uint64, name string) *State {
	s := &State{id: id, name: name}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Wait blocks until the job has run.
func (s *State) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.done.Load() {
		s.cond.Wait()
	}
}

// IsDone reports whether the job has run. It never blocks.
func (s *State) IsDone() bool {
	return s.done.Load()
}

// Err returns the error recovered from a panicking job, or nil if the job returned normally or
// hasn't finished yet.
func (s *State) Err() error {
	if !s.done.Load() {
		return nil
	}
	return s.err
}

// ID returns the monotonic job id assigned at scheduling time.
func (s *State) ID() uint64 { return s.id }

// Name returns the debug name given at scheduling time.
func (s *State) Name() string { return s.name }

// complete marks the job done and wakes every waiter. Must be called with s.mu held.
func (s *State) complete(err error) {
	s.err = err
	s.done.Store(true)
	s.cond.Broadcast()
}

// desc is a unit of work queued on a worker. It is run at most once.
type desc struct {
	fn    Func
	ctx   context.Context //nolint:containedctx // carried from Schedule to the worker
	state *State
	id    uint64
	name  string
}
