package limiter

import (
	"context"
	"sync"
	"time"
)

type attempts struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory keeps counters in process memory.
type Memory struct {
	mu   sync.Mutex
	cfg  Config
	now  func() time.Time
	byID map[string]*attempts
}

var _ Limiter = (*Memory)(nil)

// NewMemory returns an in-process limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, now: time.Now, byID: map[string]*attempts{}}
}

func memKey(identifier string, ipHash []byte) string { return identifier + "\x00" + string(ipHash) }

func (l *Memory) Allow(_ context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.byID[memKey(identifier, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); a.blockedUntil.After(now) {
		return false, a.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

func (l *Memory) Success(_ context.Context, identifier string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byID, memKey(identifier, ipHash))
	return nil
}

func (l *Memory) Failure(_ context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := memKey(identifier, ipHash)
	a, ok := l.byID[k]
	if !ok {
		a = &attempts{}
		l.byID[k] = a
	}
	if now.Sub(a.updatedAt) > l.cfg.Window {
		a.fails = 0
	}
	a.fails++
	a.updatedAt = now
	if a.fails >= l.cfg.MaxFails {
		a.blockedUntil = now.Add(l.cfg.BlockFor)
		return true, l.cfg.BlockFor, nil
	}
	return false, 0, nil
}
