// Package cache keeps query results in memory and applies optimistic mutations with exact rollback.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/metrics"
)

// Status of the last fetch of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Lookup outcomes reported to metrics.
const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupStale = "stale"
)

// Entry is the observable state of a cached query.
type Entry struct {
	Key         Key
	Data        any
	HasData     bool
	Status      Status
	Err         error
	FetchedAt   time.Time
	Invalidated bool
}

type item struct {
	Entry
	// version counts writes; invalidations counts Invalidate calls.
	version       uint64
	invalidations uint64
}

// Fetcher loads the data of one query.
type Fetcher func(ctx context.Context) (any, error)

// ReadOption tunes a single Read.
type ReadOption func(*readOptions)

type readOptions struct {
	staleAfter time.Duration
}

// WithStaleAfter overrides the default staleness of the cache for one query.
func WithStaleAfter(d time.Duration) ReadOption {
	return func(o *readOptions) { o.staleAfter = d }
}

// Cache is an LRU of query entries. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	items      *lru.Cache[string, *item]
	group      singleflight.Group
	staleAfter time.Duration
	now        func() time.Time
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// New returns a cache holding at most size entries. log and m may be nil.
func New(size int, staleAfter time.Duration, log *zap.Logger, m *metrics.Metrics) (*Cache, error) {
	items, err := lru.New[string, *item](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{items: items, staleAfter: staleAfter, now: time.Now, log: logger.OrNop(log), metrics: m}, nil
}

func (c *Cache) stale(it *item, staleAfter time.Duration) bool {
	if it.Invalidated {
		return true
	}
	return staleAfter >= 0 && c.now().Sub(it.FetchedAt) > staleAfter
}

// Read returns fresh cached data or fetches it. Concurrent reads of one key share a fetch.
// A failed fetch keeps the previous data and marks the entry with the error.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher, opts ...ReadOption) (any, error) {
	o := readOptions{staleAfter: c.staleAfter}
	for _, opt := range opts {
		opt(&o)
	}
	id := key.String()

	c.mu.Lock()
	it, ok := c.items.Get(id)
	switch {
	case ok && it.HasData && !c.stale(it, o.staleAfter):
		data := it.Data
		c.mu.Unlock()
		c.metrics.CacheLookup(lookupHit)
		return data, nil
	case ok && it.HasData:
		c.metrics.CacheLookup(lookupStale)
	default:
		c.metrics.CacheLookup(lookupMiss)
	}
	if !ok {
		it = &item{Entry: Entry{Key: key}}
		c.items.Add(id, it)
	}
	it.Status = StatusLoading
	version, invalidations := it.version, it.invalidations
	c.mu.Unlock()

	v, err, _ := c.group.Do(id, func() (any, error) { return fetch(ctx) })
	return c.settle(id, key, version, invalidations, v, err)
}

// settle stores a fetch result unless the entry was written since the fetch began,
// in which case the written data wins. An invalidation during the fetch keeps the
// stored result marked stale.
func (c *Cache) settle(id string, key Key, version, invalidations uint64, v any, err error) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items.Get(id)
	if !ok {
		it = &item{Entry: Entry{Key: key}}
		c.items.Add(id, it)
	}
	if err != nil {
		it.Status = StatusError
		it.Err = err
		c.log.Debug("cache fetch failed", zap.String("key", id), zap.Error(err))
		return nil, err
	}
	if it.version != version && it.HasData {
		it.Status = StatusIdle
		return it.Data, nil
	}
	it.Data, it.HasData = v, true
	it.Status, it.Err = StatusIdle, nil
	it.FetchedAt = c.now()
	it.Invalidated = it.invalidations != invalidations
	it.version++
	return v, nil
}

// Peek returns cached data without fetching or touching recency.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items.Peek(key.String())
	if !ok || !it.HasData {
		return nil, false
	}
	return it.Data, true
}

// Entry returns a copy of the entry state.
func (c *Cache) Entry(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items.Peek(key.String())
	if !ok {
		return Entry{}, false
	}
	return it.Entry, true
}

// Keys lists the keys under prefix; an empty prefix lists all.
func (c *Cache) Keys(prefix Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keysLocked(prefix)
}

func (c *Cache) keysLocked(prefix Key) []Key {
	var out []Key
	for _, id := range c.items.Keys() {
		it, ok := c.items.Peek(id)
		if ok && it.Key.HasPrefix(prefix) {
			out = append(out, it.Key)
		}
	}
	return out
}

// Write stores data as a fresh result and returns the prior state.
func (c *Cache) Write(key Key, data any) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, func(e *Entry) bool {
		e.Data, e.HasData = data, true
		e.Status, e.Err = StatusIdle, nil
		e.FetchedAt = c.now()
		e.Invalidated = false
		return true
	})
}

// Patch replaces the data of key with fn(old, ok); fn returning false leaves the entry alone.
// The returned snapshot restores the prior state.
func (c *Cache) Patch(key Key, fn func(old any, ok bool) (any, bool)) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patchLocked(key, fn)
}

// PatchPrefix patches every entry with data under prefix.
func (c *Cache) PatchPrefix(prefix Key, fn func(key Key, old any) (any, bool)) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Snapshot
	for _, k := range c.keysLocked(prefix) {
		k := k
		s = s.Add(c.patchLocked(k, func(old any, ok bool) (any, bool) {
			if !ok {
				return nil, false
			}
			return fn(k, old)
		}))
	}
	return s
}

func (c *Cache) patchLocked(key Key, fn func(old any, ok bool) (any, bool)) Snapshot {
	var old any
	var had bool
	if it, ok := c.items.Peek(key.String()); ok && it.HasData {
		old, had = it.Data, true
	}
	next, apply := fn(old, had)
	if !apply {
		return Snapshot{}
	}
	return c.setLocked(key, func(e *Entry) bool {
		e.Data, e.HasData = next, true
		return true
	})
}

// setLocked records the prior state of key and applies mut to it.
func (c *Cache) setLocked(key Key, mut func(e *Entry) bool) Snapshot {
	id := key.String()
	it, existed := c.items.Peek(id)
	var s Snapshot
	if existed {
		s.saved = append(s.saved, saved{id: id, existed: true, entry: it.Entry})
	} else {
		s.saved = append(s.saved, saved{id: id, entry: Entry{Key: key}})
		it = &item{Entry: Entry{Key: key}}
	}
	if mut(&it.Entry) {
		it.version++
		c.items.Add(id, it)
	}
	return s
}

// Invalidate marks key stale so the next Read fetches.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items.Peek(key.String()); ok {
		it.Invalidated = true
		it.invalidations++
	}
}

// InvalidatePrefix marks every entry under prefix stale.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.keysLocked(prefix) {
		if it, ok := c.items.Peek(k.String()); ok {
			it.Invalidated = true
			it.invalidations++
		}
	}
}

// Remove drops key and returns its prior state.
func (c *Cache) Remove(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := key.String()
	it, ok := c.items.Peek(id)
	if !ok {
		return Snapshot{}
	}
	c.items.Remove(id)
	return Snapshot{saved: []saved{{id: id, existed: true, entry: it.Entry}}}
}

// Restore puts every entry recorded in s back exactly as it was.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(s.saved) - 1; i >= 0; i-- {
		sv := s.saved[i]
		if !sv.existed {
			c.items.Remove(sv.id)
			continue
		}
		var version uint64
		if cur, ok := c.items.Peek(sv.id); ok {
			version = cur.version
		}
		c.items.Add(sv.id, &item{Entry: sv.entry, version: version + 1})
	}
}

// Len is the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}
