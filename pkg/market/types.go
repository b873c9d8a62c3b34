package market

import (
	"math"
	"sort"
	"time"
)

// Bar is one OHLCV row at a given timestamp.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// valid reports whether every OHLC field carries a usable value. Volume may
// legitimately be zero (the primary source omits it for some categories).
func (b Bar) valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
			return false
		}
	}
	return !b.Time.IsZero()
}

// Series is an ordered sequence of bars. A normalized series has strictly
// increasing, unique timestamps and no bars with missing OHLC fields.
type Series []Bar

// Normalize sorts bars by timestamp, drops bars with any missing OHLC field,
// and drops duplicate timestamps keeping the first occurrence. It returns a
// fresh slice and never mutates the receiver.
func (s Series) Normalize() Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if b.valid() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	dedup := out[:0]
	for i, b := range out {
		if i > 0 && !b.Time.After(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// Clone returns an independent copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Closes extracts the close prices, oldest first.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Request describes one historical fetch against a provider.
type Request struct {
	Symbol       string
	Interval     string
	LookbackDays int
}
