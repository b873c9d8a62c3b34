package svc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sigflow/internal/config"
	"sigflow/pkg/cache"
	"sigflow/pkg/catalog"
	"sigflow/pkg/market"
	"sigflow/pkg/signal"
)

func newTestContext(t *testing.T) *ServiceContext {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewServiceContext(&config.Config{
		Env:      "test",
		CacheDir: filepath.Join(dir, "cache"),
		ModelDir: filepath.Join(dir, "models"),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func seedSeries(t *testing.T, store *cache.Store, symbol, timeframe string, n int) {
	t.Helper()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	series := make(market.Series, n)
	for i := range series {
		px := 50.0 + float64(i)
		series[i] = market.Bar{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: px, High: px + 1, Low: px - 1, Close: px, Volume: 10,
		}
	}
	require.NoError(t, store.Write(symbol, timeframe, series))
}

func TestListInstruments(t *testing.T) {
	svc := newTestContext(t)
	forex := svc.ListInstruments(catalog.CategoryForex)
	require.NotEmpty(t, forex)
	for _, inst := range forex {
		require.Equal(t, catalog.CategoryForex, inst.Category)
	}
	require.Empty(t, svc.ListInstruments(catalog.Category("bonds")))
}

func TestGetCachedSeries(t *testing.T) {
	svc := newTestContext(t)
	seedSeries(t, svc.Store, "AAPL", "1h", 30)

	series, stale, err := svc.GetCachedSeries("AAPL", "1h")
	require.NoError(t, err)
	require.Len(t, series, 30)
	require.True(t, stale, "seed data predates the staleness window")

	_, _, err = svc.GetCachedSeries("AAPL", "1d")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	_, _, err = svc.GetCachedSeries("NOPE", "1h")
	require.ErrorIs(t, err, ErrUnknownInstrument)

	_, _, err = svc.GetCachedSeries("AAPL", "15m")
	require.ErrorIs(t, err, ErrUnknownTimeframe)
}

func TestScoreValidation(t *testing.T) {
	svc := newTestContext(t)

	_, err := svc.Score("NOPE", "1h")
	require.ErrorIs(t, err, ErrUnknownInstrument)

	_, err = svc.Score("AAPL", "15m")
	require.ErrorIs(t, err, ErrUnknownTimeframe)

	_, err = svc.Score("AAPL", "1h")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	// With no model artifacts on disk the cache is served but scoring is
	// unavailable.
	seedSeries(t, svc.Store, "AAPL", "1h", 30)
	_, err = svc.Score("AAPL", "1h")
	require.ErrorIs(t, err, signal.ErrNotReady)
}

func TestCacheSummary(t *testing.T) {
	svc := newTestContext(t)
	seedSeries(t, svc.Store, "AAPL", "1h", 30)
	seedSeries(t, svc.Store, "BTC-USD", "1h", 30)
	seedSeries(t, svc.Store, "AAPL", "1d", 30)

	sum, err := svc.CacheSummary()
	require.NoError(t, err)
	require.Equal(t, 3, sum.TotalFiles)
	require.Equal(t, 2, sum.FilesPerTimeframe["1h"])
	require.Equal(t, 1, sum.FilesPerTimeframe["1d"])
}

func TestLatestPriceUnknownInstrument(t *testing.T) {
	svc := newTestContext(t)
	_, err := svc.LatestPrice(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrUnknownInstrument)
}
