package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type saved struct {
	id      string
	existed bool
	entry   Entry
}

// Snapshot is the prior state of the entries touched by a write.
type Snapshot struct {
	saved []saved
}

// Add merges o into s; the earliest recorded state of a key wins on restore.
func (s Snapshot) Add(o Snapshot) Snapshot {
	out := Snapshot{saved: make([]saved, 0, len(s.saved)+len(o.saved))}
	out.saved = append(out.saved, s.saved...)
	out.saved = append(out.saved, o.saved...)
	return out
}

// Empty reports whether nothing was recorded.
func (s Snapshot) Empty() bool { return len(s.saved) == 0 }

// Mutation outcomes reported to metrics.
const (
	mutationCommitted  = "committed"
	mutationRolledBack = "rolled_back"
)

// Mutation describes one server call with its optimistic cache effects.
type Mutation[R any] struct {
	// Name labels logs.
	Name string
	// Optimistic patches the cache before the call and returns what it overwrote.
	Optimistic func(c *Cache) Snapshot
	// Call performs the server request.
	Call func(ctx context.Context) (R, error)
	// Reconcile writes the server result into the cache after success.
	Reconcile func(c *Cache, result R)
	// Invalidate lists key prefixes marked stale after success.
	Invalidate []Key
}

// Mutate runs m: optimistic patch, call, then reconcile on success or exact restore on failure.
// The call error is returned unchanged.
func Mutate[R any](ctx context.Context, c *Cache, m Mutation[R]) (R, error) {
	var snap Snapshot
	if m.Optimistic != nil {
		snap = m.Optimistic(c)
	}

	start := time.Now()
	res, err := m.Call(ctx)
	if err != nil {
		c.Restore(snap)
		c.metrics.Mutation(mutationRolledBack)
		c.log.Debug("mutation rolled back",
			zap.String("method", m.Name),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return res, err
	}

	if m.Reconcile != nil {
		m.Reconcile(c, res)
	}
	for _, p := range m.Invalidate {
		c.InvalidatePrefix(p)
	}
	c.metrics.Mutation(mutationCommitted)
	c.log.Debug("mutation committed", zap.String("method", m.Name), zap.Duration("dur", time.Since(start)))
	return res, nil
}
