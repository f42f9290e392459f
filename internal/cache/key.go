package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached query: an ordered tuple of strings, numbers, bools or string slices.
type Key []any

// K builds a Key.
func K(parts ...any) Key { return Key(parts) }

func encodePart(p any) string {
	switch v := p.(type) {
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64, nil, []string:
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%q", fmt.Sprint(p))
}

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, p := range k {
		out[i] = encodePart(p)
	}
	return out
}

// String is the deterministic encoding used as the storage key.
func (k Key) String() string { return "[" + strings.Join(k.parts(), ",") + "]" }

// HasPrefix reports whether the first len(prefix) parts of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	kp, pp := k.parts(), prefix.parts()
	for i := range pp {
		if kp[i] != pp[i] {
			return false
		}
	}
	return true
}
