// Package analyzer summarises persisted impulse and check records after a
// run: how long each venue took to follow a DEX impulse and where the
// price gap was wide enough to trade.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"impulsetracker/internal/records"

	"go.uber.org/zap"
)

const (
	// DelayThreshold is the |vs_base| move, in percent, at which a venue is
	// considered to have followed the impulse.
	DelayThreshold = 1.0
	// OpportunityThreshold is the |vs_base| gap, in percent, counted as an
	// arbitrage opportunity.
	OpportunityThreshold = 2.0
)

type Opportunity struct {
	Venue       string
	Delay       time.Duration
	DiffPercent float64
	CexPrice    float64
	BasePrice   float64
	Time        time.Time
}

type Report struct {
	Impulses      int
	Checks        int
	Skipped       int
	MedianDelay   map[string]time.Duration
	Opportunities map[string][]Opportunity // by token
	FastestVenue  string
	FastestDelay  time.Duration
}

// Total returns the number of opportunities across tokens.
func (r Report) Total() int {
	n := 0
	for _, o := range r.Opportunities {
		n += len(o)
	}
	return n
}

// Load reads the record files in dir and analyzes them.
func Load(dir string) (Report, error) {
	impulses, skippedI, err := records.ReadImpulses(dir)
	if err != nil {
		return Report{}, err
	}
	checks, skippedC, err := records.ReadChecks(dir)
	if err != nil {
		return Report{}, err
	}

	r := Analyze(impulses, checks)
	r.Skipped = skippedI + skippedC
	return r, nil
}

func Analyze(impulses []records.Impulse, checks []records.Check) Report {
	r := Report{
		Impulses:      len(impulses),
		Checks:        len(checks),
		MedianDelay:   make(map[string]time.Duration),
		Opportunities: make(map[string][]Opportunity),
	}

	delays := make(map[string][]time.Duration)
	for _, c := range checks {
		d, err := c.Delay()
		if err != nil {
			r.Skipped++
			continue
		}

		for _, venue := range sortedVenues(c.CexPrices) {
			vp := c.CexPrices[venue]
			diff := math.Abs(vp.VsBasePercent)
			if diff >= DelayThreshold {
				delays[venue] = append(delays[venue], d)
			}
			if diff >= OpportunityThreshold {
				r.Opportunities[c.Token] = append(r.Opportunities[c.Token], Opportunity{
					Venue:       venue,
					Delay:       d,
					DiffPercent: vp.VsBasePercent,
					CexPrice:    vp.Price,
					BasePrice:   c.BasePrice,
					Time:        c.Time,
				})
			}
		}
	}

	for venue, ds := range delays {
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		r.MedianDelay[venue] = ds[len(ds)/2]
	}

	for _, venue := range sortedKeys(r.MedianDelay) {
		d := r.MedianDelay[venue]
		if r.FastestVenue == "" || d < r.FastestDelay {
			r.FastestVenue, r.FastestDelay = venue, d
		}
	}
	return r
}

// LogReport writes the report through logger.
func LogReport(logger *zap.Logger, r Report) {
	logger.Info("record summary",
		zap.Int("impulses", r.Impulses),
		zap.Int("cex_checks", r.Checks),
		zap.Int("skipped_lines", r.Skipped),
	)

	for _, venue := range sortedKeys(r.MedianDelay) {
		logger.Info("median dex to cex delay", zap.String("venue", venue), zap.Duration("delay", r.MedianDelay[venue]))
	}

	if len(r.Opportunities) == 0 {
		logger.Info("no arbitrage opportunities found")
		return
	}

	tokens := make([]string, 0, len(r.Opportunities))
	for t := range r.Opportunities {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	for _, t := range tokens {
		opps := r.Opportunities[t]
		examples := make([]string, 0, 2)
		for _, o := range opps[:min(2, len(opps))] {
			examples = append(examples, fmt.Sprintf("%s (%s): %+.2f%%", o.Venue, o.Delay, o.DiffPercent))
		}
		logger.Info("arbitrage opportunities",
			zap.String("token", t),
			zap.Int("count", len(opps)),
			zap.Strings("examples", examples),
		)
	}

	fields := []zap.Field{zap.Int("tokens", len(r.Opportunities)), zap.Int("opportunities", r.Total())}
	if r.FastestVenue != "" {
		fields = append(fields, zap.String("fastest_venue", r.FastestVenue), zap.Duration("fastest_delay", r.FastestDelay))
	}
	logger.Info("arbitrage totals", fields...)
}

func sortedVenues(m map[string]records.VenuePrice) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]time.Duration) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
