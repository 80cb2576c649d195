package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/detector"
	"impulsetracker/internal/exchange"
	"impulsetracker/internal/fetch"
	"impulsetracker/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedFetcher struct {
	mu     sync.Mutex
	script []map[string]float64 // one price table per cycle; last one repeats
	cycle  int
	delay  time.Duration
}

func (f *scriptedFetcher) NewSession() *fetch.Session { return fetch.NewSession(1, time.Second) }

func (f *scriptedFetcher) DexPrices(ctx context.Context, sess *fetch.Session, tokens []config.Token) []exchange.Quote {
	f.mu.Lock()
	i := f.cycle
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.cycle++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	out := make([]exchange.Quote, len(tokens))
	for j, tok := range tokens {
		p, ok := f.script[i][tok.Symbol]
		out[j] = exchange.Quote{Token: tok.Symbol, Price: p, OK: ok}
	}
	return out
}

type recordingLauncher struct {
	mu     sync.Mutex
	events []detector.Impulse
}

func (r *recordingLauncher) Launch(_ context.Context, ev detector.Impulse) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

type impulseSink struct {
	mu       sync.Mutex
	impulses []records.Impulse
}

func (s *impulseSink) WriteImpulse(_ context.Context, r records.Impulse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impulses = append(s.impulses, r)
	return nil
}
func (s *impulseSink) WriteCheck(context.Context, records.Check) error { return nil }

var tokens = []config.Token{{Symbol: "BONK", Address: "a"}, {Symbol: "WIF", Address: "b"}}

// go test -v --run TestRunCycleDetects
func TestRunCycleDetects(t *testing.T) {
	f := &scriptedFetcher{script: []map[string]float64{
		{"BONK": 1.00, "WIF": 2.0},
		{"BONK": 1.00},
		{"BONK": 1.20, "WIF": 2.0},
	}}
	launcher := &recordingLauncher{}
	sink := &impulseSink{}
	l := New(tokens, time.Second, f, detector.New(0.15, 10), launcher, sink, nil, zap.NewNop())

	r1 := l.RunCycle(context.Background())
	assert.Equal(t, 2, r1.Priced)
	assert.Zero(t, r1.Impulses)

	r2 := l.RunCycle(context.Background())
	assert.Equal(t, 1, r2.Priced)

	r3 := l.RunCycle(context.Background())
	assert.Equal(t, 1, r3.Impulses)

	require.Len(t, launcher.events, 1)
	ev := launcher.events[0]
	assert.Equal(t, "BONK", ev.Token)
	assert.Equal(t, 1.00, ev.BasePrice)
	assert.Equal(t, 1.20, ev.ImpulsePrice)

	require.Len(t, sink.impulses, 1)
	assert.Equal(t, 20.0, sink.impulses[0].ChangePercent)
}

// go test -v --run TestRunStopsAndCounts
func TestRunStopsAndCounts(t *testing.T) {
	f := &scriptedFetcher{script: []map[string]float64{
		{"BONK": 1.0, "WIF": 1.0},
		{"BONK": 2.0, "WIF": 1.0},
		{"BONK": 2.0, "WIF": 1.0},
	}}
	l := New(tokens, 10*time.Millisecond, f, detector.New(0.15, 2), &recordingLauncher{}, &impulseSink{}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	stats := l.Run(ctx)
	assert.GreaterOrEqual(t, stats.Cycles, 3)
	assert.Equal(t, 1, stats.Impulses)
	assert.GreaterOrEqual(t, stats.Uptime, 75*time.Millisecond)
}

// A cycle slower than the cadence is followed immediately by the next one.
// go test -v --run TestRunSelfCorrectingCadence
func TestRunSelfCorrectingCadence(t *testing.T) {
	f := &scriptedFetcher{
		script: []map[string]float64{{"BONK": 1.0}},
		delay:  30 * time.Millisecond,
	}
	l := New(tokens, 20*time.Millisecond, f, detector.New(0.15, 10), &recordingLauncher{}, &impulseSink{}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	stats := l.Run(ctx)
	assert.GreaterOrEqual(t, stats.Cycles, 3)
}
