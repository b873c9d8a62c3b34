package yahoo

import (
	"fmt"
	"time"

	"sigflow/pkg/market"
)

// chartResponse mirrors the chart endpoint payload. Only the fields the
// pipeline consumes are declared; adjclose in particular is left undeclared on
// purpose so adjusted prices never leak into the canonical schema.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quoteBlock `json:"quote"`
	} `json:"indicators"`
}

// quoteBlock columns are pointer slices because the endpoint emits explicit
// nulls for rows it has no trade data for.
type quoteBlock struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// series converts the payload into a normalized bar series. Rows with any
// missing OHLC field are dropped.
func (r *chartResponse) series(symbol string) (market.Series, error) {
	if r.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s (%s)", symbol, r.Chart.Error.Description, r.Chart.Error.Code)
	}
	if len(r.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	result := r.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	quote := result.Indicators.Quote[0]
	bars := make(market.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		closePx := at(quote.Close, i)
		if open == nil || high == nil || low == nil || closePx == nil {
			continue
		}
		bar := market.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *open,
			High:  *high,
			Low:   *low,
			Close: *closePx,
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		bars = append(bars, bar)
	}

	bars = bars.Normalize()
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	return bars, nil
}

func at(col []*float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	return col[i]
}
