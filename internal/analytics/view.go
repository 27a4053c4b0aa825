package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/address"
	"github.com/azariak/PolymarketDataVisualizer/internal/metrics"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

type Options struct {
	AllocationCap int
	WinnersN      int
	VolumeWindow  int
	TimelineLimit int
}

func DefaultOptions() Options {
	return Options{AllocationCap: 10, WinnersN: 5, VolumeWindow: 7, TimelineLimit: 200}
}

// View is everything a dashboard or an export needs for one snapshot.
// Sections whose inputs have not arrived yet are empty; Summary and the
// winners/losers lists stay nil until open and closed positions settle.
type View struct {
	Address    string                                          `json:"address"`
	Short      string                                          `json:"short"`
	Generation uint64                                          `json:"generation"`
	BatchID    string                                          `json:"batch_id"`
	StartedAt  time.Time                                       `json:"started_at"`
	Complete   bool                                            `json:"complete"`
	Status     map[portfolio.Endpoint]portfolio.EndpointStatus `json:"status"`

	Summary    *metrics.Summary `json:"summary"`
	QuickValue *decimal.Decimal `json:"quick_value,omitempty"`

	Allocation []Bucket        `json:"allocation"`
	Winners    []MarketPnL     `json:"winners"`
	Losers     []MarketPnL     `json:"losers"`
	Volume     []VolumePoint   `json:"volume"`
	Timeline   []TimelineEntry `json:"timeline"`

	Positions []PositionRow `json:"positions"`
	Closed    []ClosedRow   `json:"closed"`
	Activity  []ActivityRow `json:"activity"`
}

func BuildView(s portfolio.Snapshot, opts Options) View {
	v := View{
		Address:    s.Address,
		Short:      address.Short(s.Address),
		Generation: s.Generation,
		BatchID:    s.BatchID,
		StartedAt:  s.StartedAt,
		Complete:   s.Complete(),
		Status:     make(map[portfolio.Endpoint]portfolio.EndpointStatus, len(portfolio.AllEndpoints)),
		QuickValue: s.QuickValue,
		Allocation: AllocationFromPositions(s.Active, opts.AllocationCap),
		Volume:     DailyVolume(s.Trades, opts.VolumeWindow),
		Timeline:   Timeline(s.Activity, opts.TimelineLimit),
		Positions:  PositionRows(s.Active),
		Closed:     ClosedRows(s.Closed),
		Activity:   ActivityRows(s.Activity),
	}
	for _, ep := range portfolio.AllEndpoints {
		v.Status[ep] = s.StatusOf(ep)
	}
	if sum, ok := metrics.Compute(s); ok {
		v.Summary = &sum
	}
	if winners, losers, ok := WinnersLosersFor(s, opts.WinnersN); ok {
		v.Winners = winners
		v.Losers = losers
	}
	return v
}
