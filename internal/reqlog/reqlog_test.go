package reqlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// go test -v --run TestSummaryCounts
func TestSummaryCounts(t *testing.T) {
	l := New(zap.NewNop())

	assert.Equal(t, Summary{}, l.Summary())

	l.Log(Entry{URL: "https://a/x", Status: 200, Elapsed: time.Millisecond})
	l.Log(Entry{URL: "https://a/x", Status: 304})
	l.Log(Entry{URL: "https://a/x", Status: 403})
	l.Log(Entry{URL: "https://a/x", Status: 429})
	l.Log(Entry{URL: "https://a/x", Kind: KindTimeout, Err: errors.New("deadline")})

	s := l.Summary()
	assert.Equal(t, 2, s.Success)
	assert.Equal(t, 3, s.Failure)
	assert.Equal(t, 5, s.Total)
	assert.InDelta(t, 40.0, s.Rate, 1e-9)
}

// go test -v --run TestEntryOutcome
func TestEntryOutcome(t *testing.T) {
	assert.Equal(t, "200", Entry{Status: 200}.Outcome())
	assert.Equal(t, KindProxyError, Entry{Kind: KindProxyError}.Outcome())
	assert.False(t, Entry{}.Success())
}

// go test -v --run TestShortenURL
func TestShortenURL(t *testing.T) {
	assert.Equal(t, "https://a.b/c", shortenURL("https://a.b/c", 40))
	assert.Equal(t,
		"https://api.dexscreener.com/.../tokenaddress?r=0.5",
		shortenURL("https://api.dexscreener.com/latest/dex/tokens/tokenaddress?r=0.5", 40),
	)
}
