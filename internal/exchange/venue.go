package exchange

import (
	"context"
	"fmt"

	"impulsetracker/internal/fetch"
	"impulsetracker/internal/symbols"
	"impulsetracker/pkg/gateio"
	"impulsetracker/pkg/lbank"
)

type Venue string

const (
	VenueDexscreener   Venue = "dexscreener"
	VenueGateIOSpot    Venue = "gateio_spot"
	VenueGateIOFutures Venue = "gateio_futures"
	VenueLBankSpot     Venue = "lbank_spot"
)

// DexSource quotes a token by on-chain address.
type DexSource interface {
	TokenPrice(ctx context.Context, sess *fetch.Session, address string) (float64, error)
}

// CexSource quotes a token by canonical symbol on one centralized venue.
type CexSource interface {
	Venue() Venue
	Price(ctx context.Context, sess *fetch.Session, symbol string) (float64, error)
}

type gateSpot struct{ c *gateio.Client }

func (g gateSpot) Venue() Venue { return VenueGateIOSpot }
func (g gateSpot) Price(ctx context.Context, sess *fetch.Session, symbol string) (float64, error) {
	return g.c.SpotLast(ctx, sess, gateio.PairFor(symbol))
}

type gateFutures struct{ c *gateio.Client }

func (g gateFutures) Venue() Venue { return VenueGateIOFutures }
func (g gateFutures) Price(ctx context.Context, sess *fetch.Session, symbol string) (float64, error) {
	return g.c.FuturesLast(ctx, sess, gateio.PairFor(symbol))
}

type lbankSpot struct {
	c        *lbank.Client
	resolver *symbols.Resolver
}

func (l lbankSpot) Venue() Venue { return VenueLBankSpot }
func (l lbankSpot) Price(ctx context.Context, sess *fetch.Session, symbol string) (float64, error) {
	pair, ok := l.resolver.Resolve(ctx, sess, symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %s not listed", fetch.ErrNoPrice, symbol)
	}
	return l.c.Latest(ctx, sess, pair)
}

// GateIOSources returns the spot and USDT-futures venues of one Gate.io client.
func GateIOSources(c *gateio.Client) []CexSource {
	return []CexSource{gateSpot{c}, gateFutures{c}}
}

// LBankSource resolves symbols through resolver before quoting.
func LBankSource(c *lbank.Client, resolver *symbols.Resolver) CexSource {
	return lbankSpot{c: c, resolver: resolver}
}
