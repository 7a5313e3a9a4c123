// Package runner drives work items through a fixed-size pool of concurrent
// workers and collects the results as they complete.
package runner

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Result is one generated output record: a mapping of output field name to
// value. A nil Result means the item failed or yielded nothing usable and is
// dropped, never propagated as an error.
type Result = map[string]any

// Handler maps one work item to a Result or nil. It is invoked at most once
// per item, from any worker, and must never panic by contract; a panic is
// treated as a dropped item so one bad sample cannot sink the batch.
type Handler[T any] func(ctx context.Context, item T) Result

// Options configures a Run.
type Options struct {
	// Workers caps the number of concurrently executing handler
	// invocations. Values below 1 are treated as 1.
	Workers int

	// Offset is the number of items already completed in a prior run. It
	// only shifts the progress reporting so resumed runs show true overall
	// progress.
	Offset int

	// Total overrides the progress denominator. Zero means Offset plus the
	// number of items submitted to this run.
	Total int

	// OnProgress, when set, is called from the collector after every task
	// completion with a monotonically increasing completed count.
	OnProgress func(completed, total int)
}

// Run schedules one handler invocation per item on a pool of at most
// opts.Workers concurrent workers and returns the non-nil results in
// completion order. It never returns an error: cancellation stops scheduling
// and returns whatever has accumulated so far, so callers can always persist
// partial output. The pool is fully drained on every exit path.
func Run[T any](ctx context.Context, items []T, handler Handler[T], opts Options) []Result {
	results := make([]Result, 0, len(items))
	if len(items) == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	total := opts.Total
	if total <= 0 {
		total = opts.Offset + len(items)
	}

	taskChan := make(chan T, workers)
	resultChan := make(chan Result, workers)

	g, ctx := errgroup.WithContext(ctx)

	// Feeder. Closing taskChan is the only way workers exit, so it must
	// close on the cancellation path too.
	g.Go(func() error {
		defer close(taskChan)
		for _, item := range items {
			select {
			case taskChan <- item:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for item := range taskChan {
				if ctx.Err() != nil {
					// Stop picking up queued work once cancelled;
					// the feeder drains via its own select.
					continue
				}
				resultChan <- invoke(ctx, handler, item)
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(resultChan)
	}()

	completed := opts.Offset
	for result := range resultChan {
		completed++
		if result != nil {
			results = append(results, result)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(completed, total)
		}
	}

	return results
}

// invoke runs a single handler call behind a panic boundary. A panicking
// handler is logged distinctly from one that deliberately returned nil, so
// real bugs stay visible even though both outcomes drop the item.
func invoke[T any](ctx context.Context, handler Handler[T], item T) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Interface("panic", r).
				Msg("task handler panicked; dropping item")
			result = nil
		}
	}()

	result = handler(ctx, item)
	if result == nil {
		log.Debug().Msg("task handler returned no result; dropping item")
	}
	return result
}
