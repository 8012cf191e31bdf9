package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/superdango/pv-carbon/internal/must"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("cache: key not found")

// NoExpiration keeps an entry for the whole process lifetime.
const NoExpiration time.Duration = 0

type entry struct {
	expiresAt time.Time
	v         any
}

func (e *entry) isExpired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Since(e.expiresAt) > 0
}

// Memory is an in-process cache. Concurrent GetOrSet calls for the same key
// share a single call to the value function.
type Memory struct {
	m          *sync.Map
	group      *singleflight.Group
	defaultTTL time.Duration
}

// NewMemory returns a cache whose entries live defaultTTL. A ttl of
// NoExpiration keeps entries forever.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		m:          new(sync.Map),
		group:      new(singleflight.Group),
		defaultTTL: defaultTTL,
	}
}

func (m *Memory) Set(ctx context.Context, k string, v any, ttl ...time.Duration) error {
	defaultTTL := m.defaultTTL
	if len(ttl) > 0 {
		defaultTTL = ttl[0]
	}

	e := &entry{v: v}
	if defaultTTL > 0 {
		e.expiresAt = time.Now().Add(defaultTTL)
	}
	m.m.Store(k, e)

	slog.Debug("new cache entry", "key", k, "ttl", defaultTTL)
	return nil
}

func (m *Memory) Get(ctx context.Context, k string) (v any, err error) {
	v, found := m.m.Load(k)
	if !found {
		return nil, ErrNotFound
	}

	entry, ok := v.(*entry)
	must.Assert(ok, "loaded value is not an entry")

	if entry.isExpired() {
		slog.Debug("cache expired", "key", k)
		m.m.Delete(k)
		return nil, ErrNotFound
	}

	return entry.v, nil
}

// GetOrSet returns the cached value of key or computes it with valueFunc. Only
// one valueFunc runs at a time for a given key, other callers wait for its
// result. Errors are not cached.
func (m *Memory) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (any, error), ttl ...time.Duration) (v any, err error) {
	v, err = m.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	v, err, shared := m.group.Do(key, func() (any, error) {
		// another caller may have filled the entry while we were waiting
		if v, err := m.Get(ctx, key); err == nil {
			return v, nil
		}

		v, err := valueFunc(ctx)
		if err != nil {
			return nil, err
		}

		if err := m.Set(ctx, key, v, ttl...); err != nil {
			return nil, err
		}
		return v, nil
	})
	if shared {
		slog.Debug("cache value shared between callers", "key", key)
	}

	return v, err
}
