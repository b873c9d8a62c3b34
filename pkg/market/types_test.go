package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func bar(t time.Time, px float64) Bar {
	return Bar{Time: t, Open: px, High: px + 1, Low: px - 1, Close: px, Volume: 100}
}

func TestNormalizeSortsAndDedups(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		bar(t0.Add(2*time.Hour), 12),
		bar(t0, 10),
		bar(t0.Add(time.Hour), 11),
		bar(t0.Add(time.Hour), 99), // duplicate timestamp, dropped
	}

	out := s.Normalize()
	require.Len(t, out, 3)
	for i := 1; i < len(out); i++ {
		require.True(t, out[i].Time.After(out[i-1].Time), "timestamps must strictly increase")
	}
	require.InDelta(t, 11.0, out[1].Close, 1e-9, "first occurrence wins on duplicates")
}

func TestNormalizeDropsMissingOHLC(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		bar(t0, 10),
		{Time: t0.Add(time.Hour), Open: 0, High: 11, Low: 9, Close: 10, Volume: 1},
		{Time: t0.Add(2 * time.Hour), Open: 10, High: math.NaN(), Low: 9, Close: 10, Volume: 1},
		{Time: t0.Add(3 * time.Hour), Open: 10, High: 11, Low: 9, Close: math.Inf(1), Volume: 1},
		bar(t0.Add(4*time.Hour), 12),
	}

	out := s.Normalize()
	require.Len(t, out, 2)
	require.Equal(t, t0, out[0].Time)
	require.Equal(t, t0.Add(4*time.Hour), out[1].Time)
}

func TestNormalizeKeepsZeroVolume(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := bar(t0, 10)
	b.Volume = 0
	out := Series{b}.Normalize()
	require.Len(t, out, 1)
}

func TestNormalizeDoesNotMutateReceiver(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Series{bar(t0.Add(time.Hour), 11), bar(t0, 10)}
	_ = s.Normalize()
	require.Equal(t, t0.Add(time.Hour), s[0].Time, "receiver order unchanged")
}

func TestCloneIsIndependent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Series{bar(t0, 10)}
	c := s.Clone()
	c[0].Close = 999
	require.InDelta(t, 10.0, s[0].Close, 1e-9)
}

func TestLast(t *testing.T) {
	_, ok := Series{}.Last()
	require.False(t, ok)

	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Series{bar(t0, 10), bar(t0.Add(time.Hour), 11)}
	last, ok := s.Last()
	require.True(t, ok)
	require.InDelta(t, 11.0, last.Close, 1e-9)
}
