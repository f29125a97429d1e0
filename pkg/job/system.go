package job

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/argus-labs/forge/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scheduler is the part of System that consumers such as parallel ECS views depend on.
type Scheduler interface {
	Schedule(ctx context.Context, name string, fn Func) *State
	WorkerCount() int
}

var _ Scheduler = (*System)(nil)

// Options configures a System.
type Options struct {
	Workers int             // Number of worker goroutines, must be at least 1
	Logger  *zerolog.Logger // Defaults to a no-op logger
}

// Stats is a snapshot of the system's counters.
type Stats struct {
	Scheduled uint64 `json:"scheduled"`
	Completed uint64 `json:"completed"`
	Stolen    uint64 `json:"stolen"`
}

// System owns a fixed pool of workers. Jobs are pushed round-robin and balanced afterwards by
// stealing.
type System struct {
	workers []*worker
	group   *errgroup.Group
	log     zerolog.Logger

	next   atomic.Uint64 // Round-robin cursor
	lastID atomic.Uint64

	scheduled atomic.Uint64
	completed atomic.Uint64
	stolen    atomic.Uint64

	paused    atomic.Bool
	closed    atomic.Bool
	terminate sync.Once
	termErr   error
}

// New spawns opts.Workers workers, each aware of all of its siblings.
func New(opts Options) (*System, error) {
	if opts.Workers < 1 {
		return nil, eris.Errorf("worker count must be at least 1, got %d", opts.Workers)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	s := &System{
		workers: make([]*worker, opts.Workers),
		group:   new(errgroup.Group),
		log:     log,
	}
	for i := range s.workers {
		s.workers[i] = newWorker(i, s, log)
	}
	for _, w := range s.workers {
		w.setSiblings(s.workers)
	}
	for _, w := range s.workers {
		s.group.Go(func() error {
			w.run()
			return nil
		})
	}

	s.log.Info().Int("workers", opts.Workers).Msg("job system started")
	return s, nil
}

// Schedule queues fn on the next worker in round-robin order and returns its completion handle.
// Scheduling from inside a job of the same system, or after Terminate, is a programmer error.
func (s *System) Schedule(ctx context.Context, name string, fn Func) *State {
	assert.That(fn != nil, "job %q has a nil function", name)
	assert.That(!s.closed.Load(), "job %q scheduled on a terminated job system", name)
	if w, ok := ctx.Value(workerKey{}).(*worker); ok {
		assert.That(w.owner != s, "job %q scheduled recursively from worker %d", name, w.id)
	}

	id := s.lastID.Add(1)
	state := newState(id, name)
	target := s.workers[(s.next.Add(1)-1)%uint64(len(s.workers))]

	s.scheduled.Add(1)
	target.push(desc{fn: fn, ctx: ctx, state: state, id: id, name: name})
	return state
}

// WaitAll blocks until every worker is idle with an empty deque. A pass that had to wait on any
// worker, or that raced with a new Schedule, is repeated.
func (s *System) WaitAll() {
	for {
		before := s.scheduled.Load()
		clean := true
		for _, w := range s.workers {
			if w.waitIdle() {
				clean = false
			}
		}
		if clean && s.scheduled.Load() == before {
			return
		}
	}
}

// PauseWorkers stops (true) or resumes (false) every worker. Queued jobs stay queued while paused.
func (s *System) PauseWorkers(paused bool) {
	s.paused.Store(paused)
	for _, w := range s.workers {
		w.setPaused(paused)
	}
}

// WorkersPaused reports the last value given to PauseWorkers.
func (s *System) WorkersPaused() bool {
	return s.paused.Load()
}

// WorkerCount returns the number of workers in the pool.
func (s *System) WorkerCount() int {
	return len(s.workers)
}

// Stats returns a snapshot of the scheduled, completed and stolen counters.
func (s *System) Stats() Stats {
	return Stats{
		Scheduled: s.scheduled.Load(),
		Completed: s.completed.Load(),
		Stolen:    s.stolen.Load(),
	}
}

// Terminate stops every worker once its deque is drained and joins them. Jobs already queued still
// run. Calling it again returns the first result.
func (s *System) Terminate() error {
	s.terminate.Do(func() {
		s.closed.Store(true)
		for _, w := range s.workers {
			w.terminate()
		}
		if err := s.group.Wait(); err != nil {
			s.termErr = eris.Wrap(err, "failed to join workers")
		}
		s.log.Info().
			Uint64("scheduled", s.scheduled.Load()).
			Uint64("completed", s.completed.Load()).
			Msg("job system terminated")
	})
	return s.termErr
}
