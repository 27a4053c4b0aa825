// Package metrics derives the headline numbers of a portfolio snapshot.
package metrics

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
	"github.com/azariak/PolymarketDataVisualizer/internal/recent"
)

// RankUnknown is reported while no leaderboard row exists for the address.
const RankUnknown = "unknown"

type Summary struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	// ReturnPct and WinRate are fractions: 0.0316 means 3.16%.
	ReturnPct       float64 `json:"return_pct"`
	WinRate         float64 `json:"win_rate"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Rank            string  `json:"rank"`
	OpenPositions   int     `json:"open_positions"`
	ClosedPositions int     `json:"closed_positions"`
}

// Ready reports whether s holds everything Compute needs.
func Ready(s portfolio.Snapshot) bool {
	return s.Has(portfolio.EndpointOpen, portfolio.EndpointClosed)
}

// Compute returns the summary once open and closed positions have settled and
// ok=false before that. It may be called after every update; the rank fills
// in when the leaderboard lands.
func Compute(s portfolio.Snapshot) (Summary, bool) {
	if !Ready(s) {
		return Summary{}, false
	}
	sum := Summary{
		TotalValue:      decimal.Zero,
		UnrealizedPnL:   decimal.Zero,
		RealizedPnL:     decimal.Zero,
		Rank:            Rank(s),
		OpenPositions:   len(s.Active),
		ClosedPositions: len(s.Closed),
	}
	for _, p := range s.Active {
		sum.TotalValue = sum.TotalValue.Add(p.CurrentValue.Decimal)
		sum.UnrealizedPnL = sum.UnrealizedPnL.Add(p.CashPnl.Decimal)
	}
	for _, p := range s.Closed {
		pnl := p.RealizedPnl.Decimal
		sum.RealizedPnL = sum.RealizedPnL.Add(pnl)
		switch pnl.Sign() {
		case 1:
			sum.Wins++
		case -1:
			sum.Losses++
		}
	}

	costBasis := sum.TotalValue.Sub(sum.UnrealizedPnL)
	if costBasis.IsPositive() {
		sum.ReturnPct = sum.UnrealizedPnL.Add(sum.RealizedPnL).Div(costBasis).InexactFloat64()
	}
	if decided := sum.Wins + sum.Losses; decided > 0 {
		sum.WinRate = float64(sum.Wins) / float64(decided)
	}
	return sum, true
}

// Rank is the first leaderboard row's rank, or RankUnknown.
func Rank(s portfolio.Snapshot) string {
	if len(s.Leaderboard) == 0 {
		return RankUnknown
	}
	rank := strings.TrimSpace(string(s.Leaderboard[0].Rank))
	if rank == "" {
		return RankUnknown
	}
	return rank
}

// RecentSummary condenses a completed snapshot for the recent-address list.
func RecentSummary(s portfolio.Snapshot) *recent.Summary {
	sum, ok := Compute(s)
	if !ok {
		return nil
	}
	return &recent.Summary{
		TotalValue:    sum.TotalValue,
		UnrealizedPnL: sum.UnrealizedPnL,
		RealizedPnL:   sum.RealizedPnL,
		Rank:          sum.Rank,
		UpdatedAt:     s.StartedAt,
	}
}
