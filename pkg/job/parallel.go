package job

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// batchesPerWorker is the default number of batches handed to each worker by ParallelFor.
const batchesPerWorker = 4

// ParallelFor splits [0, n) into batches of at most batch indices, runs fn on each batch as a
// separate job and blocks until all of them finish. A batch <= 0 picks a size that gives every
// worker a few batches to steal. With a nil scheduler the batches run inline.
//
// The first error recovered from a panicking batch is returned.
func ParallelFor(ctx context.Context, js Scheduler, name string, n, batch int, fn func(ctx context.Context, start, end int)) error {
	if n <= 0 {
		return nil
	}

	if js == nil {
		fn(ctx, 0, n)
		return nil
	}

	if batch <= 0 {
		batch = max(1, ceilDiv(n, js.WorkerCount()*batchesPerWorker))
	}

	states := make([]*State, 0, ceilDiv(n, batch))
	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		states = append(states, js.Schedule(ctx, fmt.Sprintf("%s[%d:%d]", name, start, end), func(ctx context.Context) {
			fn(ctx, start, end)
		}))
	}

	var firstErr error
	for _, state := range states {
		state.Wait()
		if err := state.Err(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return eris.Wrapf(firstErr, "parallel %s failed", name)
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
