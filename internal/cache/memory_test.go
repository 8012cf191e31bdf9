package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	memory := NewMemory(1 * time.Second)
	err := memory.Set(t.Context(), "k1", "v1", time.Nanosecond)
	assert.NoError(t, err)

	time.Sleep(time.Millisecond)

	// should be expired as TTL is 1 nanosecond
	_, err = memory.Get(t.Context(), "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = memory.Set(t.Context(), "k2", "v2", NoExpiration)
	assert.NoError(t, err)

	v, err := memory.Get(t.Context(), "k2")
	assert.NoError(t, err)
	assert.Equal(t, "v2", v)

	_, err = memory.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetOrSet(t *testing.T) {
	memory := NewMemory(NoExpiration)

	v, err := memory.GetOrSet(t.Context(), "d1", func(ctx context.Context) (any, error) {
		return "v1", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "v1", v)

	// the value function is not called again once the entry exists
	v, err = memory.GetOrSet(t.Context(), "d1", func(ctx context.Context) (any, error) {
		return "v2", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "v1", v)

	_, err = memory.GetOrSet(t.Context(), "d2", func(ctx context.Context) (any, error) {
		return nil, fmt.Errorf("expected error")
	})
	assert.Error(t, err)

	// errors are not cached
	v, err = memory.GetOrSet(t.Context(), "d2", func(ctx context.Context) (any, error) {
		return "recovered", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestMemoryGetOrSetSingleInitialization(t *testing.T) {
	memory := NewMemory(NoExpiration)
	calls := new(atomic.Int64)
	release := make(chan struct{})

	wg := new(sync.WaitGroup)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := memory.GetOrSet(t.Context(), "table", func(ctx context.Context) (any, error) {
				calls.Add(1)
				<-release
				return "table", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "table", v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}
