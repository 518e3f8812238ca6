package sync_test

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"testing"

	syncsvc "flixhaven/services/sync"
)

func TestRunBulkChunkCountAndOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	var chunks [][]int

	err := syncsvc.RunBulk(context.Background(), items, 3, func(_ context.Context, chunk []int) error {
		copied := make([]int, len(chunk))
		copy(copied, chunk)
		chunks = append(chunks, copied)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected ceil(7/3)=3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 3 || len(chunks[1]) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunk sizes: %v", chunks)
	}
	if chunks[2][0] != 7 {
		t.Fatalf("expected last chunk to hold trailing item, got %v", chunks[2])
	}
}

func TestRunBulkAbortsOnFirstError(t *testing.T) {
	calls := 0
	wantErr := errors.New("sink failed")

	err := syncsvc.RunBulk(context.Background(), []int{1, 2, 3, 4}, 2, func(_ context.Context, chunk []int) error {
		calls++
		if calls == 1 {
			return wantErr
		}
		return nil
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no further chunks after failure, got %d calls", calls)
	}
}

func TestRunBulkRejectsBatchSizeBelowOne(t *testing.T) {
	err := syncsvc.RunBulk(context.Background(), []int{1}, 0, func(_ context.Context, _ []int) error {
		return nil
	}, nil)
	if err == nil {
		t.Fatalf("expected error for batch size 0")
	}
}

func TestRunConcurrentChunkBarrier(t *testing.T) {
	// 6 items, size 2 => 3 chunks. Track the highest chunk index seen while
	// each item runs; an item of chunk N must never observe chunk N+1 active.
	items := []int{0, 1, 2, 3, 4, 5}
	var active int32
	var maxActive int32

	err := syncsvc.RunConcurrent(context.Background(), items, 2, func(_ context.Context, item int) error {
		cur := atomic.AddInt32(&active, 1)
		for {
			max := atomic.LoadInt32(&maxActive)
			if cur <= max || atomic.CompareAndSwapInt32(&maxActive, max, cur) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := atomic.LoadInt32(&maxActive); got > 2 {
		t.Fatalf("expected at most 2 items in flight, saw %d", got)
	}
}

func TestRunConcurrentProgressPerChunk(t *testing.T) {
	var mu gosync.Mutex
	var reports [][2]int

	err := syncsvc.RunConcurrent(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, _ int) error {
		return nil
	}, func(processed, total int) {
		mu.Lock()
		reports = append(reports, [2]int{processed, total})
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if len(reports) != len(want) {
		t.Fatalf("expected %d progress reports, got %v", len(want), reports)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Fatalf("unexpected progress at %d: got %v want %v", i, reports[i], want[i])
		}
	}
}

func TestRunConcurrentAggregatesChunkFailures(t *testing.T) {
	completed := make([]bool, 4)
	var mu gosync.Mutex

	err := syncsvc.RunConcurrent(context.Background(), []int{0, 1, 2, 3}, 4, func(_ context.Context, item int) error {
		mu.Lock()
		completed[item] = true
		mu.Unlock()
		if item == 1 || item == 3 {
			return fmt.Errorf("item %d failed", item)
		}
		return nil
	}, nil)

	var batchErr *syncsvc.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if len(batchErr.Failed) != 2 {
		t.Fatalf("expected 2 failed items, got %v", batchErr.Failed)
	}
	if _, ok := batchErr.Failed[1]; !ok {
		t.Fatalf("expected item 1 in failures: %v", batchErr.Failed)
	}

	// The whole chunk drains even when some items fail.
	for i, done := range completed {
		if !done {
			t.Fatalf("item %d was not run to completion", i)
		}
	}
}

func TestRunConcurrentStopsAfterFailedChunk(t *testing.T) {
	var calls int32

	err := syncsvc.RunConcurrent(context.Background(), []int{0, 1, 2, 3}, 2, func(_ context.Context, item int) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("always fails")
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected only first chunk to run, got %d calls", got)
	}
}
