package gateio

import (
	"fmt"
	"strconv"
	"strings"

	"impulsetracker/internal/fetch"
)

// Ticker is one row of /spot/tickers or /futures/usdt/tickers. Spot rows
// carry CurrencyPair, futures rows carry Contract; both have Last.
type Ticker struct {
	CurrencyPair string `json:"currency_pair"` // spot, e.g. "BONK_USDT"
	Contract     string `json:"contract"`      // futures, e.g. "BONK_USDT"
	Last         string `json:"last"`          // last traded price
	High24h      string `json:"high_24h"`
	Low24h       string `json:"low_24h"`
	Volume24h    string `json:"volume_24h"`
}

// PairFor maps a canonical symbol to the Gate.io USDT pair / contract name.
func PairFor(symbol string) string {
	return strings.ToUpper(symbol) + "_USDT"
}

// lastPrice takes the last traded price of the first row.
func lastPrice(rows []Ticker) (float64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: empty ticker list", fetch.ErrNoPrice)
	}
	if rows[0].Last == "" {
		return 0, fmt.Errorf("%w: ticker has no last", fetch.ErrNoPrice)
	}
	price, err := strconv.ParseFloat(rows[0].Last, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: last %q: %w", fetch.ErrMalformed, rows[0].Last, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive last %q", fetch.ErrNoPrice, rows[0].Last)
	}
	return price, nil
}
