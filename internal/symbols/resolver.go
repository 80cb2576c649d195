package symbols

import (
	"context"
	"sort"
	"strings"
	"sync"

	"impulsetracker/internal/fetch"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogSource lists every tradable pair on a venue.
type CatalogSource interface {
	CurrencyPairs(ctx context.Context, sess *fetch.Session) ([]string, error)
}

// Resolver maps canonical token symbols to LBank-native pair ids. The pair
// catalog is fetched once per process; a failed fetch is retried on the
// next call.
type Resolver struct {
	src     CatalogSource
	mapping map[string]string
	logger  *zap.Logger

	group singleflight.Group

	mu      sync.RWMutex
	catalog map[string]struct{}
}

func NewResolver(src CatalogSource, mapping map[string]string, logger *zap.Logger) *Resolver {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[strings.ToUpper(k)] = v
	}
	return &Resolver{
		src:     src,
		mapping: m,
		logger:  logger,
	}
}

// ListAll returns the memoized pair catalog, fetching it on first use.
// Concurrent first callers share a single fetch.
func (r *Resolver) ListAll(ctx context.Context, sess *fetch.Session) (map[string]struct{}, error) {
	r.mu.RLock()
	cat := r.catalog
	r.mu.RUnlock()
	if cat != nil {
		return cat, nil
	}

	v, err, _ := r.group.Do("catalog", func() (any, error) {
		r.mu.RLock()
		cached := r.catalog
		r.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		pairs, err := r.src.CurrencyPairs(ctx, sess)
		if err != nil {
			r.logger.Warn("failed to load pair catalog", zap.Error(err))
			return nil, err
		}

		loaded := make(map[string]struct{}, len(pairs))
		for _, p := range pairs {
			loaded[p] = struct{}{}
		}

		r.mu.Lock()
		r.catalog = loaded
		r.mu.Unlock()

		r.logger.Info("loaded pair catalog", zap.Int("count", len(loaded)))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]struct{}), nil
}

// Resolve returns the venue pair for symbol, or false when neither the
// mapping nor any fallback variant exists in the catalog.
func (r *Resolver) Resolve(ctx context.Context, sess *fetch.Session, symbol string) (string, bool) {
	catalog, err := r.ListAll(ctx, sess)
	if err != nil {
		return "", false
	}

	pair, ok := Lookup(symbol, r.mapping, catalog)
	if !ok {
		r.logger.Debug("symbol not listed", zap.String("symbol", symbol))
	}
	return pair, ok
}

// Lookup applies the resolution order: a mapping entry that exists in the
// catalog, then {lower}_usdt, {lower}usdt and {lower}.
func Lookup(symbol string, mapping map[string]string, catalog map[string]struct{}) (string, bool) {
	if mapped, ok := mapping[strings.ToUpper(symbol)]; ok {
		if _, listed := catalog[mapped]; listed {
			return mapped, true
		}
	}

	for _, candidate := range Variants(symbol) {
		if _, listed := catalog[candidate]; listed {
			return candidate, true
		}
	}
	return "", false
}

// Variants lists the fallback pair ids tried for symbol, in order.
func Variants(symbol string) []string {
	lower := strings.ToLower(symbol)
	return []string{lower + "_usdt", lower + "usdt", lower}
}

// CheckAll resolves every symbol and splits them into found (symbol -> pair)
// and missing. Missing is sorted.
func (r *Resolver) CheckAll(ctx context.Context, sess *fetch.Session, symbols []string) (map[string]string, []string, error) {
	if _, err := r.ListAll(ctx, sess); err != nil {
		return nil, nil, err
	}

	found := make(map[string]string, len(symbols))
	var missing []string
	for _, s := range symbols {
		if pair, ok := r.Resolve(ctx, sess, s); ok {
			found[s] = pair
		} else {
			missing = append(missing, s)
		}
	}
	sort.Strings(missing)
	return found, missing, nil
}

// MappedSymbols returns the symbols of the static mapping table, sorted.
func (r *Resolver) MappedSymbols() []string {
	out := make([]string, 0, len(r.mapping))
	for s := range r.mapping {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
