// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kidflix/internal/kvstore"
)

// ErrStorageDown is returned by FailingKV writes while failing.
var ErrStorageDown = errors.New("storage unavailable")

// SeqIDs returns an id generator yielding prefix-1, prefix-2, ...
func SeqIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// StepClock returns a clock starting at start that advances by step on
// every call, so successive entities get strictly increasing timestamps.
func StepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

// FailingKV wraps an in-memory store whose writes can be switched to fail.
type FailingKV struct {
	*kvstore.Memory
	failing atomic.Bool
	writes  atomic.Int64
}

// NewFailingKV returns a FailingKV that succeeds until Fail is called.
func NewFailingKV() *FailingKV {
	return &FailingKV{Memory: kvstore.NewMemory()}
}

// Fail toggles write failures.
func (f *FailingKV) Fail(on bool) { f.failing.Store(on) }

// Writes reports how many Set calls succeeded.
func (f *FailingKV) Writes() int64 { return f.writes.Load() }

func (f *FailingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failing.Load() {
		return ErrStorageDown
	}
	if err := f.Memory.Set(ctx, key, value); err != nil {
		return err
	}
	f.writes.Add(1)
	return nil
}

func (f *FailingKV) Driver() string { return "failing" }
