package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"impulsetracker/config"
	"impulsetracker/internal/analyzer"
	"impulsetracker/internal/detector"
	"impulsetracker/internal/exchange"
	"impulsetracker/internal/fetch"
	"impulsetracker/internal/proxy"
	"impulsetracker/internal/records"
	"impulsetracker/internal/reqlog"
	"impulsetracker/internal/scanner"
	"impulsetracker/internal/symbols"
	"impulsetracker/internal/tracker"
	"impulsetracker/pkg/dexscreener"
	"impulsetracker/pkg/gateio"
	"impulsetracker/pkg/lbank"
	natspub "impulsetracker/pkg/pubsub/nats"
	"impulsetracker/pkg/storage/postgres"
	"impulsetracker/pkg/storage/redis"

	"go.uber.org/zap"
)

// App holds the wired tracker pipeline.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	rotator     *proxy.Rotator
	reqLog      *reqlog.Logger
	resolver    *symbols.Resolver
	fetcher     *exchange.Fetcher
	coordinator *tracker.Coordinator
	loop        *scanner.Loop

	db    *postgres.PostgresClient
	redis *redis.Client
	nats  *natspub.Publisher
}

// New builds every component from cfg. Only record storage setup can fail.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	a.rotator = proxy.NewRotator(a.loadProxies(), cfg.Proxy.Enabled, logger.Named("proxy"))
	a.reqLog = reqlog.New(logger.Named("requests"))
	httpClient := fetch.NewClient(a.rotator, a.reqLog, logger.Named("http"))

	lbankClient := lbank.NewClient(cfg.LBank.BaseURL, httpClient)
	a.resolver = symbols.NewResolver(lbankClient, cfg.LBank.Mapping(), logger.Named("symbols"))

	sources := append(
		exchange.GateIOSources(gateio.NewClient(cfg.GateIO.BaseURL, httpClient)),
		exchange.LBankSource(lbankClient, a.resolver),
	)
	a.fetcher = exchange.NewFetcher(
		dexscreener.NewClient(cfg.Dexscreener.BaseURL, httpClient),
		sources,
		exchange.Options{
			MaxConns:     cfg.Scan.MaxConns,
			DexTimeout:   cfg.Scan.RequestTimeout,
			CexTimeout:   cfg.Tracking.RequestTimeout,
			TokenTimeout: cfg.Scan.TokenTimeout,
		},
		logger.Named("exchange"),
	)

	sink, err := a.buildSink()
	if err != nil {
		return nil, err
	}

	a.coordinator = tracker.New(a.fetcher, sink, cfg.Tracking.Delays, logger.Named("tracker"))
	a.loop = scanner.New(
		cfg.Tokens,
		cfg.Scan.Cadence,
		a.fetcher,
		detector.New(cfg.Detector.Threshold, cfg.Detector.Window),
		a.coordinator,
		sink,
		a.reqLog,
		logger.Named("scanner"),
	)
	return a, nil
}

func (a *App) loadProxies() []proxy.Entry {
	if !a.cfg.Proxy.Enabled {
		return nil
	}

	entries, skipped, err := proxy.LoadFile(a.cfg.Proxy.File, a.cfg.Proxy.DefaultPort)
	if err != nil {
		a.logger.Warn("proxies unavailable, using direct connections", zap.Error(err))
		return nil
	}
	for _, line := range skipped {
		a.logger.Warn("skipped proxy line", zap.String("line", line))
	}

	masked := make([]string, len(entries))
	for i, e := range entries {
		masked[i] = e.Masked()
	}
	a.logger.Info("loaded proxies", zap.Int("count", len(entries)), zap.Strings("proxies", masked))
	return entries
}

func (a *App) buildSink() (records.Sink, error) {
	if a.cfg.Records.ClearOnStart {
		if err := records.Clear(a.cfg.Records.Dir); err != nil {
			a.logger.Warn("failed to clear old records", zap.Error(err))
		} else {
			a.logger.Info("cleared old records", zap.String("dir", a.cfg.Records.Dir))
		}
	}

	jsonl, err := records.NewJSONLWriter(a.cfg.Records.Dir)
	if err != nil {
		return nil, err
	}
	sinks := records.Multi{jsonl}

	if a.cfg.Postgres.Enabled {
		db, err := postgres.InitializeAndMigrate(a.cfg.Postgres, a.cfg.Log.Environment, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		a.db = db
		sinks = append(sinks, db)
		a.logger.Info("mirroring records to postgres", zap.String("dbname", a.cfg.Postgres.DBName))
	}

	if a.cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Redis.DialTimeout+time.Second)
		rc, err := redis.New(ctx, a.cfg.Redis)
		cancel()
		if err != nil {
			return nil, err
		}
		a.redis = rc
		sinks = append(sinks, rc)
		a.logger.Info("mirroring records to redis streams", zap.String("impulses", rc.ImpulseStream()))
	}

	if a.cfg.NATS.Enabled {
		pub, err := natspub.Connect(a.cfg.NATS, a.logger.Named("nats"))
		if err != nil {
			return nil, err
		}
		a.nats = pub
		sinks = append(sinks, pub)
	}

	if len(sinks) == 1 {
		return jsonl, nil
	}
	return sinks, nil
}

// Run checks LBank listings if configured, then scans until ctx is done.
// On exit it waits for running campaigns, logs run totals and the record
// report.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting tracker",
		zap.Duration("cadence", a.cfg.Scan.Cadence),
		zap.String("threshold", fmt.Sprintf("%.2f%%", a.cfg.Detector.Threshold*100)),
		zap.Int("cex_venues", len(a.fetcher.Venues())),
		zap.Bool("proxies", a.rotator.Enabled()),
	)

	if a.cfg.LBank.CheckOnStart {
		a.CheckLBank(ctx)
	}

	stats := a.loop.Run(ctx)

	a.logger.Info("stopping, waiting for running campaigns")
	a.coordinator.Wait()

	a.logger.Info("run statistics",
		zap.Duration("uptime", stats.Uptime.Round(100*time.Millisecond)),
		zap.Int("cycles", stats.Cycles),
		zap.Int("impulses", stats.Impulses),
		zap.Int("failed_proxies", a.rotator.Failed()),
		zap.Int("proxy_resets", a.rotator.Resets()),
	)
	a.reqLog.LogSummary()

	report, err := analyzer.Load(a.cfg.Records.Dir)
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	analyzer.LogReport(a.logger.Named("report"), report)
	return nil
}

// CheckLBank logs which mapped symbols LBank lists.
func (a *App) CheckLBank(ctx context.Context) {
	sess := fetch.NewSession(a.cfg.Scan.MaxConns, a.cfg.Tracking.RequestTimeout)
	defer sess.Close()

	found, missing, err := a.resolver.CheckAll(ctx, sess, a.resolver.MappedSymbols())
	if err != nil {
		a.logger.Warn("lbank availability check failed", zap.Error(err))
		return
	}

	for _, s := range a.resolver.MappedSymbols() {
		if pair, ok := found[s]; ok {
			a.logger.Info("lbank listed", zap.String("symbol", s), zap.String("pair", pair))
		}
	}
	a.logger.Info("lbank availability",
		zap.Int("available", len(found)),
		zap.Int("missing", len(missing)),
		zap.Strings("missing_symbols", missing),
	)
}

func (a *App) Close() error {
	var errs []error
	if a.nats != nil {
		errs = append(errs, a.nats.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
