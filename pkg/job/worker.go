package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// workerKey is the context key under which a running job finds the worker executing it.
type workerKey struct{}

// worker runs a pull/steal loop over its private deque.
//
// Loop per iteration:
//  1. paused: release busy, sleep on wake until unpaused or terminated.
//  2. pop the front of the own deque and run it.
//  3. steal from the back of a busy sibling's deque; first success wins.
//  4. otherwise release busy, broadcast idle and sleep on wake until work, pause or terminate.
//
// The loop exits only when terminated and the own deque is drained.
type worker struct {
	id    int
	owner *System
	log   zerolog.Logger

	mu    sync.Mutex
	queue deque
	wake  *sync.Cond // Signalled on push, pause toggle and terminate
	idle  *sync.Cond // Broadcast whenever the worker stops being busy

	busy       atomic.Bool
	paused     atomic.Bool
	terminated atomic.Bool

	siblings []weak.Pointer[worker]
}

func newWorker(id int, owner *System, log zerolog.Logger) *worker {
	w := &worker{
		id:    id,
		owner: owner,
		log:   log.With().Int("worker", id).Logger(),
		queue: newDeque(defaultDequeCapacity),
	}
	w.wake = sync.NewCond(&w.mu)
	w.idle = sync.NewCond(&w.mu)
	return w
}

// setSiblings gives the worker a weak view of every other worker in the pool.
func (w *worker) setSiblings(all []*worker) {
	w.siblings = make([]weak.Pointer[worker], 0, len(all)-1)
	for _, other := range all {
		if other != w {
			w.siblings = append(w.siblings, weak.Make(other))
		}
	}
}

func (w *worker) run() {
	w.log.Debug().Msg("worker started")
	w.busy.Store(true)

	for {
		if w.paused.Load() && !w.terminated.Load() {
			w.waitUnpaused()
			continue
		}

		if j, ok := w.pop(); ok {
			w.process(j)
			continue
		}

		if w.shouldTerminate() {
			break
		}

		if j, ok := w.steal(); ok {
			w.owner.stolen.Add(1)
			w.process(j)
			continue
		}

		w.sleep()
	}

	w.mu.Lock()
	w.busy.Store(false)
	w.idle.Broadcast()
	w.mu.Unlock()
	w.log.Debug().Msg("worker stopped")
}

func (w *worker) waitUnpaused() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.busy.Store(false)
	w.idle.Broadcast()
	for w.paused.Load() && !w.terminated.Load() {
		w.wake.Wait()
	}
	w.busy.Store(true)
}

func (w *worker) sleep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.canSleep() {
		return
	}
	w.busy.Store(false)
	w.idle.Broadcast()
	for w.canSleep() {
		w.wake.Wait()
	}
	w.busy.Store(true)
}

// canSleep must be called with w.mu held.
func (w *worker) canSleep() bool {
	return w.queue.len() == 0 && !w.terminated.Load() && !w.paused.Load()
}

// halted reports whether the worker must not start new jobs. Paused workers still drain once
// terminated.
func (w *worker) halted() bool {
	return w.paused.Load() && !w.terminated.Load()
}

func (w *worker) push(j desc) {
	w.mu.Lock()
	w.queue.pushBack(j)
	w.wake.Broadcast()
	w.mu.Unlock()
}

func (w *worker) pop() (desc, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.halted() {
		return desc{}, false
	}
	return w.queue.popFront()
}

func (w *worker) shouldTerminate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated.Load() && w.queue.len() == 0
}

// steal scans the siblings linearly and takes the back job of the first busy one that has work.
func (w *worker) steal() (desc, bool) {
	for _, ref := range w.siblings {
		victim := ref.Value()
		if victim == nil || !victim.busy.Load() {
			continue
		}
		if j, ok := w.stealFrom(victim); ok {
			return j, true
		}
	}
	return desc{}, false
}

func (w *worker) stealFrom(victim *worker) (desc, bool) {
	victim.mu.Lock()
	defer victim.mu.Unlock()

	// Checked under the victim's lock so a pause that completed before the job was pushed is seen.
	if w.halted() {
		return desc{}, false
	}
	return victim.queue.popBack()
}

// process runs the job while holding its state lock, then marks it done. A panic is recovered into
// the state's error so the worker survives and waiters are still released.
func (w *worker) process(j desc) {
	ctx := context.WithValue(j.ctx, workerKey{}, w)

	j.state.mu.Lock()
	err := w.invoke(ctx, j)
	j.state.complete(err)
	j.state.mu.Unlock()

	w.owner.completed.Add(1)
}

func (w *worker) invoke(ctx context.Context, j desc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("job %d (%s) panicked: %s", j.id, j.name, fmt.Sprint(r))
			w.log.Error().Uint64("job_id", j.id).Str("job", j.name).Err(err).Msg("job panicked")
		}
	}()
	j.fn(ctx)
	return nil
}

// waitIdle blocks until the worker is not busy and has an empty deque. It reports whether it had
// to wait.
func (w *worker) waitIdle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	waited := false
	for w.busy.Load() || w.queue.len() > 0 {
		w.idle.Wait()
		waited = true
	}
	return waited
}

func (w *worker) setPaused(paused bool) {
	w.mu.Lock()
	w.paused.Store(paused)
	w.wake.Broadcast()
	w.mu.Unlock()
}

func (w *worker) terminate() {
	w.mu.Lock()
	w.terminated.Store(true)
	w.wake.Broadcast()
	w.mu.Unlock()
}
