package taskpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunCoversEveryIndex(t *testing.T) {
	const n = 1000
	var seen [n]int32
	p := New(4)
	err := p.Run(context.Background(), n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	p := New(4)
	want := errors.New("boom")
	err := p.Run(context.Background(), 100, func(lo, hi int) error {
		if lo == 0 {
			return want
		}
		return nil
	})
	if !errors.Is(err, want) {
		t.Fatalf("Run error = %v, want %v", err, want)
	}
}

func TestRunZeroN(t *testing.T) {
	p := New(4)
	if err := p.Run(context.Background(), 0, func(lo, hi int) error {
		t.Fatal("work should not run for n=0")
		return nil
	}); err != nil {
		t.Fatalf("Run(0) = %v, want nil", err)
	}
}

func TestNewDefaultsToTaskLimit(t *testing.T) {
	p := New(0)
	if p.limit != TaskLimit() {
		t.Fatalf("New(0).limit = %d, want %d", p.limit, TaskLimit())
	}
}

func TestRunSmallerThanLimit(t *testing.T) {
	p := New(100)
	var count int64
	err := p.Run(context.Background(), 3, func(lo, hi int) error {
		atomic.AddInt64(&count, int64(hi-lo))
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("total work = %d, want 3", count)
	}
}
