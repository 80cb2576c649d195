package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"impulsetracker/internal/detector"
	"impulsetracker/internal/exchange"
	"impulsetracker/internal/records"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PriceSource is the centralized-venue side of the exchange fetcher.
type PriceSource interface {
	Availability(ctx context.Context, symbol string) []exchange.Venue
	CexPrices(ctx context.Context, symbol string) map[exchange.Venue]float64
}

// Coordinator runs at most one follow-up campaign per token. A campaign
// probes venue availability, then samples CEX prices at each configured
// offset from its start and writes one check record per sample.
type Coordinator struct {
	src    PriceSource
	sink   records.Sink
	delays []time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	active map[string]string // token -> campaign id

	wg sync.WaitGroup
}

func New(src PriceSource, sink records.Sink, delays []time.Duration, logger *zap.Logger) *Coordinator {
	d := make([]time.Duration, len(delays))
	copy(d, delays)
	sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })

	return &Coordinator{
		src:    src,
		sink:   sink,
		delays: d,
		logger: logger,
		now:    time.Now,
		active: make(map[string]string),
	}
}

// Launch starts a campaign for ev unless one is already running for the
// token, in which case the event is dropped and false returned. It does not
// wait for the campaign.
func (c *Coordinator) Launch(ctx context.Context, ev detector.Impulse) bool {
	c.mu.Lock()
	if id, busy := c.active[ev.Token]; busy {
		c.mu.Unlock()
		c.logger.Info("campaign already active, impulse dropped",
			zap.String("token", ev.Token),
			zap.String("campaign_id", id),
		)
		return false
	}
	id := uuid.NewString()
	c.active[ev.Token] = id
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(ctx, id, ev)
	return true
}

// Active reports whether token has a running campaign.
func (c *Coordinator) Active(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[token]
	return ok
}

// ActiveCount returns the number of running campaigns.
func (c *Coordinator) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// Wait blocks until every launched campaign has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) release(token string) {
	c.mu.Lock()
	delete(c.active, token)
	c.mu.Unlock()
}

func (c *Coordinator) run(ctx context.Context, id string, ev detector.Impulse) {
	logger := c.logger.With(zap.String("token", ev.Token), zap.String("campaign_id", id))

	defer c.wg.Done()
	defer c.release(ev.Token)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("campaign panicked", zap.Any("panic", r))
		}
	}()

	start := c.now()
	logger.Info("campaign started",
		zap.String("change", fmt.Sprintf("%+.2f%%", ev.Change*100)),
		zap.Float64("base_price", ev.BasePrice),
		zap.Float64("impulse_price", ev.ImpulsePrice),
	)

	venues := c.src.Availability(ctx, ev.Token)
	if len(venues) == 0 {
		logger.Info("token not listed on any cex, campaign aborted")
		return
	}
	logger.Info("available on", zap.String("venues", joinVenues(venues)))

	for _, delay := range c.delays {
		if !c.sleepUntil(ctx, start.Add(delay)) {
			logger.Info("campaign interrupted", zap.Duration("at", delay), zap.Error(ctx.Err()))
			return
		}

		prices := c.src.CexPrices(ctx, ev.Token)
		if len(prices) == 0 {
			logger.Info("no data", zap.Duration("after", delay))
			continue
		}

		rec := records.Check{
			Time:             c.now(),
			CampaignID:       id,
			TimeAfterImpulse: delay.String(),
			Token:            ev.Token,
			DexPrice:         ev.ImpulsePrice,
			BasePrice:        ev.BasePrice,
			CexPrices:        make(map[string]records.VenuePrice, len(prices)),
		}
		fields := []zap.Field{zap.Duration("after", delay)}
		for v, p := range prices {
			vp := records.NewVenuePrice(p, ev.BasePrice, ev.ImpulsePrice)
			rec.CexPrices[string(v)] = vp
			fields = append(fields, zap.String(string(v),
				fmt.Sprintf("%+.2f%% (%+.2f%%)", vp.VsBasePercent, vp.VsImpulsePercent)))
		}

		if err := c.sink.WriteCheck(ctx, rec); err != nil {
			logger.Warn("failed to write check record", zap.Error(err))
		}
		logger.Info("cex check", fields...)
	}

	logger.Info("campaign finished", zap.Duration("elapsed", c.now().Sub(start)))
}

// sleepUntil waits for deadline or ctx, reporting false on cancellation.
// A deadline already in the past returns immediately.
func (c *Coordinator) sleepUntil(ctx context.Context, deadline time.Time) bool {
	wait := deadline.Sub(c.now())
	if wait <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func joinVenues(vs []exchange.Venue) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
