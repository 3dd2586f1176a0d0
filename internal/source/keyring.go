package source

import (
	"sync"
)

// KeyRing manages an ordered set of API keys for the video platform and
// rotates away from keys the platform has rejected. A rejected key stays
// out of rotation until Reset, which the scheduler fires once a day when
// upstream quotas renew.
type KeyRing struct {
	mu      sync.Mutex
	keys    []string
	current int
	failed  map[int]bool
	calls   map[int]int
}

// KeyRingStatus is the observable state exposed on the status endpoints.
type KeyRingStatus struct {
	TotalKeys       int         `json:"total_keys"`
	CurrentIndex    int         `json:"current_index"`
	FailedKeys      int         `json:"failed_keys"`
	AvailableKeys   int         `json:"available_keys"`
	AllExhausted    bool        `json:"all_exhausted"`
	SuccessfulCalls map[int]int `json:"successful_calls"`
}

// NewKeyRing builds a ring over the configured keys; empty entries are
// skipped.
func NewKeyRing(keys []string) *KeyRing {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	return &KeyRing{
		keys:   clean,
		failed: map[int]bool{},
		calls:  map[int]int{},
	}
}

// Current returns the active key, or false when none is usable.
func (r *KeyRing) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 || len(r.failed) >= len(r.keys) {
		return "", false
	}
	return r.keys[r.current], true
}

// Rotate marks the active key failed and advances to the next usable one.
// It reports whether any key remains.
func (r *KeyRing) Rotate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return false
	}

	r.failed[r.current] = true

	for range r.keys {
		r.current = (r.current + 1) % len(r.keys)
		if !r.failed[r.current] {
			return true
		}
	}
	return false
}

// RecordSuccess bumps the per-key success counter for the status endpoint.
func (r *KeyRing) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return
	}
	r.calls[r.current]++
}

// Exhausted reports whether every key has been rejected.
func (r *KeyRing) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys) == 0 || len(r.failed) >= len(r.keys)
}

// Reset clears failure marks and counters; quotas renew daily upstream.
func (r *KeyRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = map[int]bool{}
	r.calls = map[int]int{}
	r.current = 0
}

// Status snapshots the ring state.
func (r *KeyRing) Status() KeyRingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make(map[int]int, len(r.calls))
	for k, v := range r.calls {
		calls[k] = v
	}

	available := len(r.keys) - len(r.failed)
	currentIndex := 0
	if len(r.keys) > 0 {
		currentIndex = r.current + 1
	}
	return KeyRingStatus{
		TotalKeys:       len(r.keys),
		CurrentIndex:    currentIndex,
		FailedKeys:      len(r.failed),
		AvailableKeys:   available,
		AllExhausted:    available <= 0,
		SuccessfulCalls: calls,
	}
}
