package proxy

import (
	"sync"

	"go.uber.org/zap"
)

// Rotator hands out proxies round-robin. Failed proxies stay in rotation;
// the failure set only counts them, and is cleared as a whole once every
// proxy in the pool has failed.
type Rotator struct {
	mu      sync.Mutex
	pool    []Entry
	enabled bool
	cursor  int
	failed  map[Entry]struct{}
	resets  int
	logger  *zap.Logger
}

func NewRotator(pool []Entry, enabled bool, logger *zap.Logger) *Rotator {
	cp := make([]Entry, len(pool))
	copy(cp, pool)
	return &Rotator{
		pool:    cp,
		enabled: enabled,
		failed:  make(map[Entry]struct{}),
		logger:  logger,
	}
}

// Next returns the proxy to use for the next request. ok is false when
// proxies are disabled or the pool is empty, meaning connect directly.
func (r *Rotator) Next() (Entry, bool) {
	if r == nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || len(r.pool) == 0 {
		return "", false
	}

	if len(r.failed) >= len(r.pool) {
		r.failed = make(map[Entry]struct{})
		r.resets++
		r.logger.Info("all proxies failed, resetting blacklist", zap.Int("pool", len(r.pool)))
	}

	e := r.pool[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.pool)
	return e, true
}

// MarkFailed records a proxy as failed. The empty entry (direct connection)
// is ignored.
func (r *Rotator) MarkFailed(e Entry) {
	if r == nil || e == "" {
		return
	}

	r.mu.Lock()
	r.failed[e] = struct{}{}
	n := len(r.failed)
	r.mu.Unlock()

	r.logger.Warn("proxy marked failed", zap.String("proxy", e.Masked()), zap.Int("failed", n))
}

func (r *Rotator) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failed)
}

func (r *Rotator) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

func (r *Rotator) Len() int {
	return len(r.pool)
}

func (r *Rotator) Enabled() bool {
	return r != nil && r.enabled && len(r.pool) > 0
}
