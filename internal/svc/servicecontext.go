// Package svc wires the process-wide service context and exposes the
// consumer-facing contract the routing layer calls into.
package svc

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"sigflow/internal/config"
	"sigflow/pkg/cache"
	"sigflow/pkg/catalog"
	"sigflow/pkg/market"
	"sigflow/pkg/market/binance"
	"sigflow/pkg/market/yahoo"
	"sigflow/pkg/ml"
	"sigflow/pkg/pipeline"
	"sigflow/pkg/signal"
)

// ErrUnknownInstrument signals a symbol outside the catalog.
var ErrUnknownInstrument = errors.New("svc: unknown instrument")

// ErrUnknownTimeframe signals a timeframe outside the fetch matrix.
var ErrUnknownTimeframe = errors.New("svc: unknown timeframe")

// ServiceContext is constructed once at startup. The loaded model artifacts
// are read-only process-wide state; a missing model degrades scoring only,
// acquisition and caching stay fully functional.
type ServiceContext struct {
	Config *config.Config

	Store        *cache.Store
	Resolver     *market.Resolver
	Artifacts    *ml.Artifacts
	Scorer       *signal.Scorer
	Orchestrator *pipeline.Orchestrator
}

// NewServiceContext builds the full dependency graph from configuration.
func NewServiceContext(c *config.Config) (*ServiceContext, error) {
	store, err := cache.NewStore(c.CacheDir)
	if err != nil {
		return nil, err
	}

	primary, secondary, err := buildProviders(c)
	if err != nil {
		return nil, err
	}
	resolver := market.NewResolver(primary, secondary)

	pipeCfg, err := c.Pipeline.ToPipeline()
	if err != nil {
		return nil, err
	}

	artifacts := ml.Load(c.ModelDir)

	svc := &ServiceContext{
		Config:       c,
		Store:        store,
		Resolver:     resolver,
		Artifacts:    artifacts,
		Scorer:       signal.NewScorer(artifacts),
		Orchestrator: pipeline.NewOrchestrator(resolver, store, pipeCfg),
	}
	return svc, nil
}

// buildProviders resolves the provider pair from the market config section,
// falling back to default yahoo/binance clients when no section is present.
func buildProviders(c *config.Config) (market.Provider, market.Provider, error) {
	cfg := c.Market.Value
	if cfg == nil {
		logx.Info("svc: no market config section, using default providers")
		return yahoo.NewClient(), binance.NewProvider(""), nil
	}

	providers, err := cfg.BuildProviders()
	if err != nil {
		return nil, nil, err
	}
	primary, ok := providers[cfg.Primary]
	if !ok {
		return nil, nil, fmt.Errorf("svc: primary provider %q not built", cfg.Primary)
	}
	var secondary market.Provider
	if cfg.Secondary != "" {
		secondary = providers[cfg.Secondary]
	}
	return primary, secondary, nil
}

// ListInstruments returns the catalog instruments of one category.
func (s *ServiceContext) ListInstruments(cat catalog.Category) []catalog.Instrument {
	return catalog.Instruments(cat)
}

// GetCachedSeries reads one cached series and flags its staleness. A cache
// miss surfaces as cache.ErrCacheMiss, not as a fatal condition.
func (s *ServiceContext) GetCachedSeries(symbol, timeframe string) (market.Series, bool, error) {
	if _, ok := catalog.Lookup(symbol); !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	if _, ok := catalog.ResolveTimeframe(timeframe); !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownTimeframe, timeframe)
	}
	series, err := s.Store.Read(symbol, timeframe)
	if err != nil {
		return nil, false, err
	}
	return series, s.Store.IsStale(symbol, timeframe), nil
}

// Score evaluates the trained model for one cached (instrument, timeframe)
// series. Failures are typed: signal.ErrNotReady when artifacts are missing,
// features.ErrInsufficientData on short series, cache.ErrCacheMiss when the
// pipeline has not populated the entry.
func (s *ServiceContext) Score(symbol, timeframe string) (*signal.Prediction, error) {
	inst, ok := catalog.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	if _, ok := catalog.ResolveTimeframe(timeframe); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimeframe, timeframe)
	}
	series, err := s.Store.Read(symbol, timeframe)
	if err != nil {
		return nil, err
	}
	return s.Scorer.Score(inst, series)
}

// RunPipeline executes one full acquisition run.
func (s *ServiceContext) RunPipeline(ctx context.Context) (*pipeline.RunSummary, error) {
	return s.Orchestrator.Run(ctx)
}

// CacheSummary reports cache health for operational introspection.
func (s *ServiceContext) CacheSummary() (*cache.Summary, error) {
	return s.Store.Summary()
}

// LatestPrice fetches the most recent traded price with a short live lookup,
// bypassing the cache.
func (s *ServiceContext) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	inst, ok := catalog.Lookup(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	series, err := s.Resolver.Resolve(ctx, inst, catalog.Timeframe{
		Name: "1m", Interval: "1m", LookbackDays: 1,
	})
	if err != nil {
		return 0, err
	}
	last, ok := series.Last()
	if !ok {
		return 0, fmt.Errorf("svc: no price data for %s", symbol)
	}
	return last.Close, nil
}

// Close releases held resources.
func (s *ServiceContext) Close() {
	if s.Artifacts != nil {
		s.Artifacts.Close()
	}
}
