package scanner

import (
	"context"
	"fmt"
	"math"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/detector"
	"impulsetracker/internal/exchange"
	"impulsetracker/internal/fetch"
	"impulsetracker/internal/records"
	"impulsetracker/internal/reqlog"

	"go.uber.org/zap"
)

// notableMove is the per-cycle move, in percent, that gets its own status line.
const notableMove = 0.5

type PriceFetcher interface {
	NewSession() *fetch.Session
	DexPrices(ctx context.Context, sess *fetch.Session, tokens []config.Token) []exchange.Quote
}

type Launcher interface {
	Launch(ctx context.Context, ev detector.Impulse) bool
}

// CycleResult summarises one scan.
type CycleResult struct {
	Priced   int
	Impulses int
	Duration time.Duration
}

// Stats are the run totals returned when the loop stops.
type Stats struct {
	Uptime   time.Duration
	Cycles   int
	Impulses int
}

type Loop struct {
	tokens   []config.Token
	cadence  time.Duration
	fetcher  PriceFetcher
	detector *detector.Detector
	launcher Launcher
	sink     records.Sink
	reqLog   *reqlog.Logger
	logger   *zap.Logger
}

func New(
	tokens []config.Token,
	cadence time.Duration,
	fetcher PriceFetcher,
	det *detector.Detector,
	launcher Launcher,
	sink records.Sink,
	reqLog *reqlog.Logger,
	logger *zap.Logger,
) *Loop {
	return &Loop{
		tokens:   tokens,
		cadence:  cadence,
		fetcher:  fetcher,
		detector: det,
		launcher: launcher,
		sink:     sink,
		reqLog:   reqLog,
		logger:   logger,
	}
}

// Run scans until ctx is cancelled. Each cycle is followed by a sleep of
// cadence minus the cycle's duration, so slow cycles do not drift.
func (l *Loop) Run(ctx context.Context) Stats {
	start := time.Now()
	var stats Stats

	l.logger.Info("scan loop started",
		zap.Int("tokens", len(l.tokens)),
		zap.Duration("cadence", l.cadence),
	)

	for ctx.Err() == nil {
		res := l.RunCycle(ctx)
		stats.Cycles++
		stats.Impulses += res.Impulses

		wait := l.cadence - res.Duration
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	stats.Uptime = time.Since(start)
	return stats
}

// RunCycle fetches every token's DEX price, feeds the detector in token
// order, and hands each impulse to the launcher without waiting on it.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()

	sess := l.fetcher.NewSession()
	quotes := l.fetcher.DexPrices(ctx, sess, l.tokens)
	sess.Close()

	var res CycleResult
	for _, q := range quotes {
		if !q.OK {
			l.logger.Info("no data", zap.String("token", q.Token))
			continue
		}
		res.Priced++

		prev, hadPrev := l.detector.Last(q.Token)
		ev, ok := l.detector.Update(q.Token, q.Price)
		if !ok {
			l.logStatus(q, prev, hadPrev)
			continue
		}

		res.Impulses++
		l.logger.Info("impulse detected",
			zap.String("token", ev.Token),
			zap.String("change", fmt.Sprintf("%+.2f%%", ev.Change*100)),
			zap.Float64("base_price", ev.BasePrice),
			zap.Float64("impulse_price", ev.ImpulsePrice),
		)

		rec := records.Impulse{
			Time:          ev.DetectedAt,
			Token:         ev.Token,
			BasePrice:     ev.BasePrice,
			ImpulsePrice:  ev.ImpulsePrice,
			ChangePercent: records.Percent(ev.ImpulsePrice, ev.BasePrice),
		}
		if err := l.sink.WriteImpulse(ctx, rec); err != nil {
			l.logger.Warn("failed to write impulse record", zap.String("token", ev.Token), zap.Error(err))
		}

		l.launcher.Launch(ctx, ev)
	}

	res.Duration = time.Since(start)
	l.logger.Info("cycle done",
		zap.String("priced", fmt.Sprintf("%d/%d", res.Priced, len(l.tokens))),
		zap.Int("impulses", res.Impulses),
		zap.Duration("took", res.Duration),
	)
	if l.reqLog != nil {
		l.reqLog.LogSummary()
	}
	return res
}

func (l *Loop) logStatus(q exchange.Quote, prev detector.Sample, hadPrev bool) {
	fields := []zap.Field{zap.String("token", q.Token), zap.String("price", fmt.Sprintf("%.8f", q.Price))}
	if !hadPrev || prev.Price <= 0 {
		l.logger.Debug("price", fields...)
		return
	}

	move := (q.Price - prev.Price) / prev.Price * 100
	if math.Abs(move) < notableMove {
		l.logger.Debug("price", fields...)
		return
	}
	l.logger.Info("price moved", append(fields, zap.String("move", fmt.Sprintf("%+.2f%%", move)))...)
}
