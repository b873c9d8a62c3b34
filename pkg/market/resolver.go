package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"sigflow/pkg/catalog"
)

// ErrNoFallback marks a resolution that failed on the primary provider for a
// category without a secondary mapping.
var ErrNoFallback = errors.New("market: no fallback provider for category")

// Resolver fetches one instrument's series through an ordered provider chain:
// the primary source first, then the category-specific secondary source with
// the instrument identifier rewritten into that venue's convention. Whichever
// source answers, the result shares one canonical schema.
type Resolver struct {
	primary   Provider
	secondary Provider
}

// NewResolver builds a resolver. Secondary may be nil, in which case every
// primary failure is final.
func NewResolver(primary, secondary Provider) *Resolver {
	return &Resolver{primary: primary, secondary: secondary}
}

// Resolve fetches bars for one (instrument, timeframe) pair. A failure here is
// scoped to the pair; callers record it and move on.
func (r *Resolver) Resolve(ctx context.Context, inst catalog.Instrument, tf catalog.Timeframe) (Series, error) {
	req := Request{Symbol: inst.Symbol, Interval: tf.Interval, LookbackDays: tf.LookbackDays}

	series, primaryErr := r.primary.FetchBars(ctx, req)
	if primaryErr == nil && len(series) > 0 {
		return series, nil
	}
	if primaryErr == nil {
		primaryErr = fmt.Errorf("%s: empty series for %s", r.primary.Name(), inst.Symbol)
	}
	if ctx.Err() != nil {
		return nil, primaryErr
	}

	fallback, ok := FallbackSymbol(inst)
	if !ok || r.secondary == nil {
		return nil, fmt.Errorf("%w %q: %s %s: %v", ErrNoFallback, inst.Category, inst.Symbol, tf.Name, primaryErr)
	}

	logx.Infof("resolver: %s %s failed on %s, retrying as %s on %s",
		inst.Symbol, tf.Name, r.primary.Name(), fallback, r.secondary.Name())

	req.Symbol = fallback
	series, secondaryErr := r.secondary.FetchBars(ctx, req)
	if secondaryErr != nil {
		return nil, fmt.Errorf("market: %s %s failed on both providers: primary: %v; secondary: %w",
			inst.Symbol, tf.Name, primaryErr, secondaryErr)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("market: %s %s failed on both providers: primary: %v; secondary: %s returned no rows",
			inst.Symbol, tf.Name, primaryErr, r.secondary.Name())
	}
	return series, nil
}
