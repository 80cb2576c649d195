package detector

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultWindow    = 10
	DefaultThreshold = 0.15
)

// Detector keeps a bounded price window per token and flags moves of at
// least threshold between the oldest retained sample and the newest one.
type Detector struct {
	threshold float64
	window    int
	now       func() time.Time

	globalMu sync.RWMutex
	tokens   map[string]*tokenWindow
}

type tokenWindow struct {
	mu      sync.Mutex
	samples []Sample // oldest first, len <= window
	base    float64
	hasBase bool
}

func New(threshold float64, window int) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window < 2 {
		window = DefaultWindow
	}
	return &Detector{
		threshold: threshold,
		window:    window,
		now:       time.Now,
		tokens:    make(map[string]*tokenWindow),
	}
}

func (d *Detector) Window() int        { return d.window }
func (d *Detector) Threshold() float64 { return d.threshold }

func (d *Detector) get(token string) (*tokenWindow, bool) {
	d.globalMu.RLock()
	defer d.globalMu.RUnlock()
	w, ok := d.tokens[token]
	return w, ok
}

func (d *Detector) getOrCreate(token string) *tokenWindow {
	if w, ok := d.get(token); ok {
		return w
	}

	d.globalMu.Lock()
	defer d.globalMu.Unlock()
	w, ok := d.tokens[token]
	if !ok {
		w = &tokenWindow{samples: make([]Sample, 0, d.window)}
		d.tokens[token] = w
	}
	return w
}

// Update records price for token and reports an impulse when the change
// from the oldest retained sample reaches the threshold in either direction.
func (d *Detector) Update(token string, price float64) (Impulse, bool) {
	w := d.getOrCreate(token)
	now := d.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) == d.window {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, Sample{Time: now, Price: price})

	if len(w.samples) < 2 {
		return Impulse{}, false
	}

	oldest := w.samples[0].Price
	if oldest <= 0 {
		return Impulse{}, false
	}

	change := (price - oldest) / oldest
	if math.Abs(change) < d.threshold {
		return Impulse{}, false
	}

	w.base = oldest
	w.hasBase = true
	return Impulse{
		Token:        token,
		Change:       change,
		BasePrice:    oldest,
		ImpulsePrice: price,
		DetectedAt:   now,
	}, true
}

// BasePrice returns the baseline stored by the token's latest impulse.
func (d *Detector) BasePrice(token string) (float64, bool) {
	w, ok := d.get(token)
	if !ok {
		return 0, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base, w.hasBase
}

// RecentPrices returns a copy of the token's window, oldest first.
func (d *Detector) RecentPrices(token string) []Sample {
	w, ok := d.get(token)
	if !ok {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	cp := make([]Sample, len(w.samples))
	copy(cp, w.samples)
	return cp
}

// Last returns the newest sample for token.
func (d *Detector) Last(token string) (Sample, bool) {
	w, ok := d.get(token)
	if !ok {
		return Sample{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}
