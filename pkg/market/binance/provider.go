// Package binance implements the secondary (fallback) market data provider on
// Binance spot klines. It exists to recover volume-bearing data for
// categories where the primary source omits trade volume.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gobinance "github.com/adshao/go-binance/v2"

	"sigflow/pkg/market"
)

// Spot klines are capped per request; older history is out of reach for a
// single call and the pipeline does not page.
const maxKlineLimit = 1000

// Interval names on the venue, keyed by canonical name, together with the
// bars-per-day density used to size the request.
var intervalNames = map[string]struct {
	name       string
	barsPerDay int
}{
	"1h": {"1h", 24},
	"4h": {"4h", 6},
	"1d": {"1d", 1},
}

// klineAPI is the slice of the exchange client the provider consumes. Tests
// substitute a fake; production wires the real spot client.
type klineAPI interface {
	Klines(ctx context.Context, symbol, interval string, limit int) ([]*gobinance.Kline, error)
}

type spotAPI struct {
	client *gobinance.Client
}

func (s spotAPI) Klines(ctx context.Context, symbol, interval string, limit int) ([]*gobinance.Kline, error) {
	return s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
}

// Provider fetches historical klines from the spot endpoint.
type Provider struct {
	api klineAPI
}

// Option configures a new Provider.
type Option func(*Provider)

// WithKlineAPI injects a custom kline backend.
func WithKlineAPI(api klineAPI) Option {
	return func(p *Provider) {
		if api != nil {
			p.api = api
		}
	}
}

// NewProvider constructs the fallback provider. Historical klines are public
// data, so no API credentials are required.
func NewProvider(baseURL string, opts ...Option) *Provider {
	client := gobinance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	p := &Provider{api: spotAPI{client: client}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements market.Provider.
func (p *Provider) Name() string { return "binance" }

// FetchBars implements market.Provider.
func (p *Provider) FetchBars(ctx context.Context, req market.Request) (market.Series, error) {
	interval, ok := intervalNames[req.Interval]
	if !ok {
		return nil, fmt.Errorf("binance: unsupported interval %q", req.Interval)
	}
	if req.LookbackDays <= 0 {
		return nil, fmt.Errorf("binance: lookback must be positive")
	}

	limit := req.LookbackDays * interval.barsPerDay
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	klines, err := p.api.Klines(ctx, req.Symbol, interval.name, limit)
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s %s: %w", req.Symbol, interval.name, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance: empty kline response for %s %s", req.Symbol, interval.name)
	}

	bars := make(market.Series, 0, len(klines))
	for _, k := range klines {
		bar, err := toBar(k)
		if err != nil {
			return nil, fmt.Errorf("binance: %s %s: %w", req.Symbol, interval.name, err)
		}
		bars = append(bars, bar)
	}

	bars = bars.Normalize()
	if len(bars) == 0 {
		return nil, fmt.Errorf("binance: no usable rows for %s %s", req.Symbol, interval.name)
	}
	return bars, nil
}

func toBar(k *gobinance.Kline) (market.Bar, error) {
	fields := map[string]string{
		"open":   k.Open,
		"high":   k.High,
		"low":    k.Low,
		"close":  k.Close,
		"volume": k.Volume,
	}
	parsed := make(map[string]float64, len(fields))
	for name, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("parse %s %q: %w", name, raw, err)
		}
		parsed[name] = v
	}
	return market.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   parsed["open"],
		High:   parsed["high"],
		Low:    parsed["low"],
		Close:  parsed["close"],
		Volume: parsed["volume"],
	}, nil
}
