package asyncx_test

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/konnected/identity/pkg/asyncx"
)

func TestPool_PreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results, err := asyncx.Pool(context.Background(), 8, items,
		func(ctx context.Context, n int) (string, error) {
			return strconv.Itoa(n), nil
		})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r != strconv.Itoa(i) {
			t.Fatalf("result %d out of order: %q", i, r)
		}
	}
}

func TestPool_MoreWorkersThanItems(t *testing.T) {
	results, err := asyncx.Pool(context.Background(), 16, []int{1, 2},
		func(ctx context.Context, n int) (int, error) { return n * 2, nil })
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(results) != 2 || results[0] != 2 || results[1] != 4 {
		t.Fatalf("unexpected results: %v", results)
	}
}

func TestPool_ZeroWorkers(t *testing.T) {
	results, err := asyncx.Pool(context.Background(), 0, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) { return n, nil })
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestPool_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")

	_, err := asyncx.Pool(context.Background(), 2, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return n, nil
		})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPool_EmptyInput(t *testing.T) {
	results, err := asyncx.Pool(context.Background(), 4, nil,
		func(ctx context.Context, n int) (int, error) { return n, nil })
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := asyncx.Pool(ctx, 2, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) { return n, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32

	err := asyncx.Retry(context.Background(), 5, time.Millisecond, func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	var calls int

	err := asyncx.Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return errors.New("attempt " + strconv.Itoa(calls))
	})
	if err == nil || err.Error() != "attempt 3" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := asyncx.Retry(ctx, 10, 50*time.Millisecond, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
