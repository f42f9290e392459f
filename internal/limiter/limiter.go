// Package limiter throttles login attempts per identifier and client address.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may be tried now, with the remaining block otherwise.
	Allow(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error)
	// Success resets the counters of (identifier, ip).
	Success(ctx context.Context, identifier string, ipHash []byte) error
	// Failure records a failed attempt and reports whether it started a block.
	Failure(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error)
}

// Config is the lockout policy: MaxFails failures inside Window block for BlockFor.
type Config struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// HashIP returns a stable hash of an address so raw IPs are never stored.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}
