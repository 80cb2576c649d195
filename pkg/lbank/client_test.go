package lbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"impulsetracker/internal/fetch"
	"impulsetracker/internal/proxy"
	"impulsetracker/internal/reqlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(baseURL string) *Client {
	fc := fetch.NewClient(proxy.NewRotator(nil, false, zap.NewNop()), reqlog.New(zap.NewNop()), zap.NewNop())
	return NewClient(baseURL, fc)
}

// go test -v --run TestLatest
func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/ticker.do", r.URL.Path)
		switch r.URL.Query().Get("symbol") {
		case "bonk_usdt":
			_, _ = w.Write([]byte(`{"msg":"Success","result":"true","data":[{"symbol":"bonk_usdt",
				"ticker":{"high":0.00000987,"vol":334882456835,"low":0.00000941,"change":0.21,
				"turnover":3236786.2791,"latest":0.00000949}}],"error_code":0,"ts":1764170058765}`))
		default:
			_, _ = w.Write([]byte(`{"msg":"Invalid Trading Pair","result":"false","error_code":10008,"ts":1}`))
		}
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	sess := fetch.NewSession(10, time.Second)
	defer sess.Close()

	p, err := c.Latest(context.Background(), sess, "bonk_usdt")
	require.NoError(t, err)
	assert.InDelta(t, 0.00000949, p, 1e-15)

	_, err = c.Latest(context.Background(), sess, "nope_usdt")
	assert.ErrorIs(t, err, fetch.ErrNoPrice)
}

// go test -v --run TestCurrencyPairs
func TestCurrencyPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/currencyPairs.do", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"true","data":["bonk_usdt","wif_usdt"],"error_code":0,"ts":1}`))
	}))
	defer srv.Close()

	sess := fetch.NewSession(10, time.Second)
	defer sess.Close()

	pairs, err := newClient(srv.URL).CurrencyPairs(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"bonk_usdt", "wif_usdt"}, pairs)
}

// go test -v --run TestParsePairs
func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]byte(` ["a_usdt","busdt"] `))
	require.NoError(t, err)
	assert.Equal(t, []string{"a_usdt", "busdt"}, pairs)

	_, err = parsePairs([]byte(`{"result":"false","msg":"maintenance"}`))
	assert.ErrorIs(t, err, fetch.ErrMalformed)

	_, err = parsePairs([]byte(`{"result":"true","data":{"x":1}}`))
	assert.ErrorIs(t, err, fetch.ErrMalformed)

	_, err = parsePairs(nil)
	assert.ErrorIs(t, err, fetch.ErrMalformed)
}

// go test -v --run TestLatestPriceStringNumber
func TestLatestPriceStringNumber(t *testing.T) {
	env := Envelope{Result: "true", Data: []byte(`[{"symbol":"x_usdt","ticker":{"latest":"0.25"}}]`)}
	p, err := latestPrice(env)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p)

	env.Data = []byte(`[{"symbol":"x_usdt","ticker":{}}]`)
	_, err = latestPrice(env)
	assert.ErrorIs(t, err, fetch.ErrNoPrice)
}
