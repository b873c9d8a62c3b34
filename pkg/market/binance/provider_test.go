package binance

import (
	"context"
	"errors"
	"testing"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/require"

	"sigflow/pkg/market"
)

type fakeKlineAPI struct {
	klines   []*gobinance.Kline
	err      error
	symbol   string
	interval string
	limit    int
}

func (f *fakeKlineAPI) Klines(ctx context.Context, symbol, interval string, limit int) ([]*gobinance.Kline, error) {
	f.symbol, f.interval, f.limit = symbol, interval, limit
	return f.klines, f.err
}

func kline(openTime time.Time, px string) *gobinance.Kline {
	return &gobinance.Kline{
		OpenTime: openTime.UnixMilli(),
		Open:     px,
		High:     px,
		Low:      px,
		Close:    px,
		Volume:   "42.5",
	}
}

func TestFetchBars(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeKlineAPI{klines: []*gobinance.Kline{
		kline(t0, "100.5"),
		kline(t0.Add(time.Hour), "101.25"),
	}}
	p := NewProvider("", WithKlineAPI(api))

	series, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "BTCUSDT", Interval: "1h", LookbackDays: 30,
	})
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.Equal(t, "BTCUSDT", api.symbol)
	require.Equal(t, "1h", api.interval)
	require.Equal(t, 30*24, api.limit)
	require.Equal(t, t0, series[0].Time)
	require.InDelta(t, 100.5, series[0].Close, 1e-9)
	require.InDelta(t, 42.5, series[0].Volume, 1e-9)
}

func TestFetchBarsLimitCapped(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeKlineAPI{klines: []*gobinance.Kline{kline(t0, "1.0")}}
	p := NewProvider("", WithKlineAPI(api))

	_, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "BTCUSDT", Interval: "1h", LookbackDays: 365,
	})
	require.NoError(t, err)
	require.Equal(t, maxKlineLimit, api.limit)
}

func TestFetchBarsIntervalTable(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeKlineAPI{klines: []*gobinance.Kline{kline(t0, "1.0")}}
	p := NewProvider("", WithKlineAPI(api))

	_, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "ETHUSDT", Interval: "1d", LookbackDays: 90,
	})
	require.NoError(t, err)
	require.Equal(t, "1d", api.interval)
	require.Equal(t, 90, api.limit)

	_, err = p.FetchBars(context.Background(), market.Request{
		Symbol: "ETHUSDT", Interval: "15m", LookbackDays: 90,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported interval")
}

func TestFetchBarsEmptyResponse(t *testing.T) {
	api := &fakeKlineAPI{}
	p := NewProvider("", WithKlineAPI(api))

	_, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "GHOSTUSDT", Interval: "1h", LookbackDays: 30,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty kline response")
}

func TestFetchBarsAPIError(t *testing.T) {
	api := &fakeKlineAPI{err: errors.New("rate limited")}
	p := NewProvider("", WithKlineAPI(api))

	_, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "BTCUSDT", Interval: "1h", LookbackDays: 30,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestFetchBarsMalformedNumber(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bad := kline(t0, "100")
	bad.Close = "not-a-number"
	api := &fakeKlineAPI{klines: []*gobinance.Kline{bad}}
	p := NewProvider("", WithKlineAPI(api))

	_, err := p.FetchBars(context.Background(), market.Request{
		Symbol: "BTCUSDT", Interval: "1h", LookbackDays: 30,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse close")
}
