package llm

import (
	"strings"
	"sync"
)

// KeyRotator walks an ordered credential pool. The cursor only moves forward;
// a rotated-away key is never handed out again by the same rotator.
type KeyRotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewKeyRotator deduplicates keys, keeping first-seen order, and drops blanks.
func NewKeyRotator(keys []string) *KeyRotator {
	seen := make(map[string]struct{}, len(keys))
	pool := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pool = append(pool, key)
	}
	return &KeyRotator{keys: pool}
}

// Current returns the active key, or false once the pool is exhausted.
func (r *KeyRotator) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.keys) {
		return "", false
	}
	return r.keys[r.cursor], true
}

// Rotate advances to the next key and reports whether one is available.
func (r *KeyRotator) Rotate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor < len(r.keys) {
		r.cursor++
	}
	return r.cursor < len(r.keys)
}

// Exhausted reports whether no key remains.
func (r *KeyRotator) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor >= len(r.keys)
}

// Index is the zero-based position of the active key; it equals Size once exhausted.
func (r *KeyRotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Size is the number of distinct keys in the pool.
func (r *KeyRotator) Size() int {
	return len(r.keys)
}
