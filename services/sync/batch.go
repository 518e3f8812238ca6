package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	gosync "sync"

	"github.com/sourcegraph/conc/pool"
)

// Progress is invoked after every completed chunk with the number of items
// processed so far and the total.
type Progress func(processed, total int)

// BatchError aggregates per-item failures from a concurrent batch. The chunk
// an item belongs to always runs to completion before the error surfaces, so
// Failed reports the full picture for that chunk.
type BatchError struct {
	Total  int
	Failed map[int]error
}

func (e *BatchError) Error() string {
	idxs := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d items failed:", len(e.Failed), e.Total)
	for _, i := range idxs {
		fmt.Fprintf(&b, " [%d] %v;", i, e.Failed[i])
	}
	return strings.TrimSuffix(b.String(), ";")
}

// RunBulk partitions items into contiguous chunks of at most size and hands
// each whole chunk to fn, strictly one after another. The first chunk error
// aborts the run.
func RunBulk[T any](ctx context.Context, items []T, size int, fn func(context.Context, []T) error, progress Progress) error {
	if size < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", size)
	}

	total := len(items)
	processed := 0
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		if err := fn(ctx, items[start:end]); err != nil {
			return err
		}
		processed = end
		if progress != nil {
			progress(processed, total)
		}
	}
	return nil
}

// RunConcurrent partitions items into contiguous chunks of at most size and
// invokes fn once per item, all items of a chunk concurrently. A chunk always
// drains before the next chunk starts, bounding in-flight work at size.
// Failures within a chunk do not cancel its remaining items; they are
// aggregated into a *BatchError returned after the chunk completes.
func RunConcurrent[T any](ctx context.Context, items []T, size int, fn func(context.Context, T) error, progress Progress) error {
	if size < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", size)
	}

	total := len(items)
	processed := 0
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		chunk := items[start:end]

		failed := make(map[int]error)
		var mu gosync.Mutex

		workers := pool.New().WithMaxGoroutines(size)
		for i, item := range chunk {
			idx := start + i
			item := item
			workers.Go(func() {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					failed[idx] = err
					mu.Unlock()
				}
			})
		}
		workers.Wait()

		processed = end
		if progress != nil {
			progress(processed, total)
		}

		if len(failed) > 0 {
			return &BatchError{Total: total, Failed: failed}
		}
	}
	return nil
}
