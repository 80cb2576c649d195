package detector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestUpdateScenario
func TestUpdateScenario(t *testing.T) {
	d := New(0.15, 10)

	_, ok := d.Update("BONK", 1.00)
	assert.False(t, ok)
	_, ok = d.Update("BONK", 1.00)
	assert.False(t, ok)

	ev, ok := d.Update("BONK", 1.20)
	require.True(t, ok)
	assert.Equal(t, "BONK", ev.Token)
	assert.Equal(t, 1.00, ev.BasePrice)
	assert.Equal(t, 1.20, ev.ImpulsePrice)
	assert.InDelta(t, 0.20, ev.Change, 1e-9)

	base, ok := d.BasePrice("BONK")
	require.True(t, ok)
	assert.Equal(t, 1.00, base)
}

// go test -v --run TestUpdateTwoSamples
func TestUpdateTwoSamples(t *testing.T) {
	d := New(0.10, 5)
	_, _ = d.Update("A", 2.0)
	ev, ok := d.Update("A", 1.7)
	require.True(t, ok)
	assert.Equal(t, 2.0, ev.BasePrice)
	assert.Equal(t, 1.7, ev.ImpulsePrice)
	assert.InDelta(t, -0.15, ev.Change, 1e-9)

	d2 := New(0.10, 5)
	_, _ = d2.Update("A", 2.0)
	_, ok = d2.Update("A", 2.1)
	assert.False(t, ok)
	_, ok = d2.BasePrice("A")
	assert.False(t, ok)
}

// go test -v --run TestWindowFIFO
func TestWindowFIFO(t *testing.T) {
	d := New(10, 3) // threshold unreachable
	for i := 1; i <= 7; i++ {
		_, _ = d.Update("T", float64(i))
		got := d.RecentPrices("T")
		assert.LessOrEqual(t, len(got), 3)
	}

	got := d.RecentPrices("T")
	require.Len(t, got, 3)
	assert.Equal(t, []float64{5, 6, 7}, []float64{got[0].Price, got[1].Price, got[2].Price})

	last, ok := d.Last("T")
	require.True(t, ok)
	assert.Equal(t, 7.0, last.Price)
}

// Change is measured from the oldest retained sample, not the previous one.
// go test -v --run TestComparesAgainstOldest
func TestComparesAgainstOldest(t *testing.T) {
	d := New(0.15, 3)
	for _, p := range []float64{1.00, 1.08} {
		_, ok := d.Update("T", p)
		assert.False(t, ok)
	}
	ev, ok := d.Update("T", 1.16) // +7.4% vs previous, +16% vs oldest
	require.True(t, ok)
	assert.Equal(t, 1.00, ev.BasePrice)

	// 1.00 evicted; oldest is now 1.08
	_, ok = d.Update("T", 1.20)
	assert.False(t, ok)
}

// go test -v --run TestZeroOldestGuard
func TestZeroOldestGuard(t *testing.T) {
	d := New(0.15, 10)
	_, _ = d.Update("Z", 0)
	_, ok := d.Update("Z", 5)
	assert.False(t, ok)

	_, _ = d.Update("N", -1)
	_, ok = d.Update("N", 5)
	assert.False(t, ok)
}

// go test -v --run TestDefaults
func TestDefaults(t *testing.T) {
	d := New(0, 0)
	assert.Equal(t, DefaultThreshold, d.Threshold())
	assert.Equal(t, DefaultWindow, d.Window())
	assert.Nil(t, d.RecentPrices("unknown"))
}

// go test -v --run TestBaselineOverwritten
func TestBaselineOverwritten(t *testing.T) {
	d := New(0.15, 2)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	_, _ = d.Update("T", 1.0)
	ev, ok := d.Update("T", 1.5)
	require.True(t, ok)
	assert.Equal(t, fixed, ev.DetectedAt)

	ev, ok = d.Update("T", 3.0)
	require.True(t, ok)
	assert.Equal(t, 1.5, ev.BasePrice)

	base, _ := d.BasePrice("T")
	assert.Equal(t, 1.5, base)
}

// go test -v --run TestConcurrentUpdates
func TestConcurrentUpdates(t *testing.T) {
	d := New(0.5, 4)
	var wg sync.WaitGroup
	for _, tok := range []string{"A", "B", "C"} {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(tok string, i int) {
				defer wg.Done()
				_, _ = d.Update(tok, float64(i+1))
			}(tok, i)
		}
	}
	wg.Wait()

	for _, tok := range []string{"A", "B", "C"} {
		assert.Len(t, d.RecentPrices(tok), 4)
	}
}
