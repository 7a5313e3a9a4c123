package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCollectsEveryItemOnce(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results := Run(context.Background(), items, func(ctx context.Context, item int) Result {
		return Result{"id": item}
	}, Options{Workers: 8})

	require.Len(t, results, len(items))

	seen := make(map[int]bool)
	for _, result := range results {
		id := result["id"].(int)
		assert.False(t, seen[id], "item %d appeared twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, len(items))
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 3

	var inFlight, peak atomic.Int64
	handler := func(ctx context.Context, item int) Result {
		current := inFlight.Add(1)
		for {
			max := peak.Load()
			if current <= max || peak.CompareAndSwap(max, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return Result{"id": item}
	}

	items := make([]int, 30)
	for i := range items {
		items[i] = i
	}

	results := Run(context.Background(), items, handler, Options{Workers: workers})

	assert.Len(t, results, len(items))
	assert.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestRunDropsNilResults(t *testing.T) {
	items := []string{"a", "b", "c"}

	results := Run(context.Background(), items, func(ctx context.Context, item string) Result {
		return nil
	}, Options{Workers: 2})

	assert.Empty(t, results)
}

func TestRunSurvivesHandlerPanic(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}

	results := Run(context.Background(), items, func(ctx context.Context, item int) Result {
		if item%2 == 0 {
			panic("bad sample")
		}
		return Result{"id": item}
	}, Options{Workers: 4})

	require.Len(t, results, 5)
	for _, result := range results {
		assert.Equal(t, 1, result["id"].(int)%2)
	}
}

func TestRunReportsMonotonicProgress(t *testing.T) {
	const offset = 7

	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	var reported []int
	var totals []int

	Run(context.Background(), items, func(ctx context.Context, item int) Result {
		if item%3 == 0 {
			return nil // dropped items still count as completed
		}
		return Result{"id": item}
	}, Options{
		Workers: 4,
		Offset:  offset,
		OnProgress: func(completed, total int) {
			mu.Lock()
			reported = append(reported, completed)
			totals = append(totals, total)
			mu.Unlock()
		},
	})

	require.Len(t, reported, len(items))
	for i, completed := range reported {
		assert.Equal(t, offset+i+1, completed)
		assert.Equal(t, offset+len(items), totals[i])
	}
}

func TestRunReturnsPartialResultsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	var cancelOnce sync.Once
	handler := func(ctx context.Context, item int) Result {
		if item == 0 {
			return Result{"id": item}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(10 * time.Second):
			return Result{"id": item}
		}
	}

	start := time.Now()
	results := Run(ctx, items, handler, Options{
		Workers: 2,
		OnProgress: func(completed, total int) {
			cancelOnce.Do(cancel)
		},
	})

	// The run must come back promptly with whatever completed, not hang on
	// the unscheduled items.
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), len(items))

	seen := make(map[int]bool)
	for _, result := range results {
		id := result["id"].(int)
		assert.False(t, seen[id], "item %d appeared twice", id)
		seen[id] = true
	}
}

func TestRunEmptyInput(t *testing.T) {
	results := Run(context.Background(), nil, func(ctx context.Context, item int) Result {
		t.Fatal("handler must not be invoked")
		return nil
	}, Options{Workers: 4})

	assert.Empty(t, results)
}

func TestRunClampsWorkerCount(t *testing.T) {
	// Workers below 1 and above the item count must both work.
	for _, workers := range []int{0, -3, 100} {
		results := Run(context.Background(), []int{1, 2, 3}, func(ctx context.Context, item int) Result {
			return Result{"id": item}
		}, Options{Workers: workers})
		assert.Len(t, results, 3, "workers=%d", workers)
	}
}
