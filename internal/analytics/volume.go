package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
)

const dayLayout = "2006-01-02"

type VolumePoint struct {
	Date   string          `json:"date"`
	Volume decimal.Decimal `json:"volume"`
	Trades int             `json:"trades"`
	// SMA is the trailing mean over up to window points ending here.
	SMA float64 `json:"sma"`
}

// DailyVolume buckets trades by UTC calendar day of their timestamp, summing
// |size × price|, and attaches a trailing moving average over the series.
// Days without trades are not part of the series. Trades without a
// timestamp are ignored.
func DailyVolume(trades []dataapi.Trade, window int) []VolumePoint {
	byDay := make(map[string]*VolumePoint)
	for _, t := range trades {
		if t.Timestamp.IsZero() {
			continue
		}
		day := t.Timestamp.UTC().Format(dayLayout)
		pt, ok := byDay[day]
		if !ok {
			pt = &VolumePoint{Date: day, Volume: decimal.Zero}
			byDay[day] = pt
		}
		pt.Volume = pt.Volume.Add(t.Notional())
		pt.Trades++
	}

	out := make([]VolumePoint, 0, len(byDay))
	for _, pt := range byDay {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	values := make([]float64, len(out))
	for i, pt := range out {
		values[i] = pt.Volume.InexactFloat64()
	}
	for i, avg := range MovingAverage(values, window) {
		out[i].SMA = avg
	}
	return out
}

// MovingAverage returns the trailing mean of up to window values ending at
// each index. Near the start the window is clipped to what exists.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		out[i] = stat.Mean(values[lo:i+1], nil)
	}
	return out
}
