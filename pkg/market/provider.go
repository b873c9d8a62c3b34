// Package market defines the canonical OHLCV series model and the provider
// boundary the acquisition pipeline fetches through. Providers normalize every
// response into the same Series schema so downstream code never sees which
// source produced a result.
package market

import "context"

// Provider exposes a single historical market data source.
type Provider interface {
	// FetchBars returns normalized OHLCV bars for the request. An empty or
	// malformed upstream payload is an error, never an empty Series.
	FetchBars(ctx context.Context, req Request) (Series, error)
	// Name identifies the provider in logs and run reports.
	Name() string
}
