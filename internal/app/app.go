// Package app builds the shared pieces both binaries are made of from config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
	"github.com/azariak/PolymarketDataVisualizer/internal/cache"
	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/config"
	"github.com/azariak/PolymarketDataVisualizer/internal/db"
	"github.com/azariak/PolymarketDataVisualizer/internal/export"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
	"github.com/azariak/PolymarketDataVisualizer/internal/recent"
)

// Deps is everything wired from one Config. Close releases what Open acquired.
type Deps struct {
	Cache      cache.Store
	Client     *dataapi.Client
	Aggregator *portfolio.Aggregator
	Recent     recent.Store
	Exports    *export.Registry
	Options    analytics.Options
	// Checks are readiness probes keyed by backend name.
	Checks map[string]func(context.Context) error

	closers []func() error
}

func Open(cfg config.Config, logger *zap.Logger) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{
		Options: AnalyticsOptions(cfg.Analytics),
		Exports: Exporters(cfg.Export),
		Checks:  map[string]func(context.Context) error{},
	}

	store, err := cache.Open(cache.Options{
		Backend:       cfg.Cache.Backend,
		MaxCost:       cfg.Cache.MaxCost,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	d.Cache = store
	switch s := store.(type) {
	case *cache.RistrettoStore:
		d.closers = append(d.closers, func() error { s.Close(); return nil })
	case *cache.RedisStore:
		d.Checks["cache"] = s.Ping
		d.closers = append(d.closers, s.Client.Close)
	}

	d.Client = dataapi.NewClient(
		&http.Client{Timeout: cfg.DataAPI.Timeout},
		cfg.DataAPI.BaseURL,
		dataapi.WithCache(store, cfg.Cache.TTL),
		dataapi.WithLogger(logger.Named("dataapi")),
	)
	d.Aggregator = &portfolio.Aggregator{
		Client:            d.Client,
		Logger:            logger.Named("aggregator"),
		LeaderboardPeriod: cfg.DataAPI.LeaderboardPeriod,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Recent.Backend)) {
	case "", "memory":
		d.Recent = recent.NewMemoryStore(cfg.Recent.Capacity)
	case "postgres":
		conn, err := db.Open(cfg.DB)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open db: %w", err)
		}
		d.closers = append(d.closers, func() error { return db.Close(conn) })
		if err := db.AutoMigrate(conn); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		d.Recent = recent.NewGormStore(conn.Gorm, cfg.Recent.Capacity)
		d.Checks["recent"] = func(ctx context.Context) error { return conn.SQL.PingContext(ctx) }
	default:
		_ = d.Close()
		return nil, fmt.Errorf("unsupported recent backend: %s", cfg.Recent.Backend)
	}
	return d, nil
}

// Close runs the closers in reverse order and returns the first error.
func (d *Deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}

func AnalyticsOptions(cfg config.AnalyticsConfig) analytics.Options {
	opts := analytics.DefaultOptions()
	if cfg.AllocationCap > 0 {
		opts.AllocationCap = cfg.AllocationCap
	}
	if cfg.WinnersN > 0 {
		opts.WinnersN = cfg.WinnersN
	}
	if cfg.VolumeWindow > 0 {
		opts.VolumeWindow = cfg.VolumeWindow
	}
	if cfg.TimelineLimit > 0 {
		opts.TimelineLimit = cfg.TimelineLimit
	}
	return opts
}

func Exporters(cfg config.ExportConfig) *export.Registry {
	var exporters []export.Exporter
	if cfg.PDFEnabled {
		exporters = append(exporters, export.PDF{})
	}
	if cfg.XLSXEnabled {
		exporters = append(exporters, export.XLSX{})
	}
	return export.NewRegistry(exporters...)
}
