package exchange

import (
	"context"
	"sort"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/fetch"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Quote is one token's DEX price for a cycle. OK is false when the venue
// gave no usable price; Err then carries the reason.
type Quote struct {
	Token string
	Price float64
	OK    bool
	Err   error
}

type Options struct {
	MaxConns     int
	DexTimeout   time.Duration // per request
	CexTimeout   time.Duration // per request
	TokenTimeout time.Duration // outer wall clock per token per cycle
}

// Fetcher fans price requests out over the configured venues. Every venue
// failure is converted to "no price" here; callers never see an error.
type Fetcher struct {
	dex    DexSource
	cex    []CexSource
	opts   Options
	logger *zap.Logger
}

func NewFetcher(dex DexSource, cex []CexSource, opts Options, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		dex:    dex,
		cex:    cex,
		opts:   opts,
		logger: logger,
	}
}

// NewSession opens a DEX session for one scan cycle.
func (f *Fetcher) NewSession() *fetch.Session {
	return fetch.NewSession(f.opts.MaxConns, f.opts.DexTimeout)
}

// Venues lists the configured centralized venues in registration order.
func (f *Fetcher) Venues() []Venue {
	out := make([]Venue, 0, len(f.cex))
	for _, s := range f.cex {
		out = append(out, s.Venue())
	}
	return out
}

// DexPrices quotes every token concurrently and returns once all calls have
// settled. The result follows the order of tokens.
func (f *Fetcher) DexPrices(ctx context.Context, sess *fetch.Session, tokens []config.Token) []Quote {
	quotes := make([]Quote, len(tokens))

	var g errgroup.Group
	for i, tok := range tokens {
		i, tok := i, tok
		g.Go(func() error {
			tctx, cancel := f.tokenContext(ctx)
			defer cancel()

			q := Quote{Token: tok.Symbol}
			price, err := f.dex.TokenPrice(tctx, sess, tok.Address)
			if err != nil {
				q.Err = err
				f.logger.Debug("no dex price", zap.String("token", tok.Symbol), zap.Error(err))
			} else {
				q.Price, q.OK = price, true
			}
			quotes[i] = q
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

// CexPrices quotes symbol on every centralized venue within one session.
// Venues without a price are absent from the result.
func (f *Fetcher) CexPrices(ctx context.Context, symbol string) map[Venue]float64 {
	sess := fetch.NewSession(f.opts.MaxConns, f.opts.CexTimeout)
	defer sess.Close()

	tctx, cancel := f.tokenContext(ctx)
	defer cancel()

	prices := make([]float64, len(f.cex))
	var g errgroup.Group
	for i, src := range f.cex {
		i, src := i, src
		g.Go(func() error {
			p, err := src.Price(tctx, sess, symbol)
			if err != nil {
				f.logger.Debug("no cex price",
					zap.String("token", symbol),
					zap.String("venue", string(src.Venue())),
					zap.Error(err),
				)
				return nil
			}
			prices[i] = p
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[Venue]float64, len(f.cex))
	for i, src := range f.cex {
		if prices[i] > 0 {
			out[src.Venue()] = prices[i]
		}
	}
	return out
}

// Availability returns the venues currently quoting symbol, sorted by name.
func (f *Fetcher) Availability(ctx context.Context, symbol string) []Venue {
	prices := f.CexPrices(ctx, symbol)

	venues := make([]Venue, 0, len(prices))
	for v := range prices {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })
	return venues
}

func (f *Fetcher) tokenContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.opts.TokenTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.opts.TokenTimeout)
}
