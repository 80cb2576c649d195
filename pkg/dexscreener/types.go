package dexscreener

import (
	"fmt"
	"strconv"

	"impulsetracker/internal/fetch"
)

// TokenPairsResponse is the body of /latest/dex/tokens/{address}.
// Pairs is null for unknown tokens.
type TokenPairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

type Pair struct {
	ChainID     string  `json:"chainId"`     // e.g. "solana"
	DexID       string  `json:"dexId"`       // e.g. "raydium"
	PairAddress string  `json:"pairAddress"` // pool address
	PriceUsd    *string `json:"priceUsd"`    // decimal string, absent for some pools
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
}

// FirstPrice returns the USD price of the first listed pair.
func (r TokenPairsResponse) FirstPrice() (float64, error) {
	if len(r.Pairs) == 0 {
		return 0, fmt.Errorf("%w: no pairs", fetch.ErrNoPrice)
	}
	p := r.Pairs[0].PriceUsd
	if p == nil || *p == "" {
		return 0, fmt.Errorf("%w: pair %s has no priceUsd", fetch.ErrNoPrice, r.Pairs[0].PairAddress)
	}
	price, err := strconv.ParseFloat(*p, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: priceUsd %q: %w", fetch.ErrMalformed, *p, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive priceUsd %q", fetch.ErrNoPrice, *p)
	}
	return price, nil
}
