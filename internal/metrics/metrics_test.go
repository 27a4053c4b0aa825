package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

const testAddress = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func settled(active []dataapi.Position, closed []dataapi.ClosedPosition, board []dataapi.LeaderboardEntry) portfolio.Snapshot {
	s := portfolio.NewSnapshot(testAddress, 1, "batch", time.Unix(0, 0).UTC())
	s.Active = active
	s.Closed = closed
	s.Leaderboard = board
	for _, ep := range portfolio.AllEndpoints {
		s.Status[ep] = portfolio.StatusLoaded
	}
	return s
}

func TestCompute_Scenario(t *testing.T) {
	s := settled(
		[]dataapi.Position{{CurrentValue: dataapi.NewAmount(1000), CashPnl: dataapi.NewAmount(50)}},
		[]dataapi.ClosedPosition{{RealizedPnl: dataapi.NewAmount(-20), AvgPrice: dataapi.NewAmount(0.5), TotalBought: dataapi.NewAmount(200)}},
		[]dataapi.LeaderboardEntry{},
	)
	sum, ok := Compute(s)
	if !ok {
		t.Fatalf("expected ready")
	}
	if sum.TotalValue.String() != "1000" {
		t.Fatalf("totalValue=%s want=1000", sum.TotalValue)
	}
	if sum.UnrealizedPnL.String() != "50" {
		t.Fatalf("unrealized=%s want=50", sum.UnrealizedPnL)
	}
	if sum.RealizedPnL.String() != "-20" {
		t.Fatalf("realized=%s want=-20", sum.RealizedPnL)
	}
	if sum.WinRate != 0 {
		t.Fatalf("winRate=%v want=0", sum.WinRate)
	}
	if math.Abs(sum.ReturnPct-30.0/950.0) > 1e-9 {
		t.Fatalf("returnPct=%v want=%v", sum.ReturnPct, 30.0/950.0)
	}
	if sum.Rank != RankUnknown {
		t.Fatalf("rank=%q want=%q", sum.Rank, RankUnknown)
	}
}

func TestCompute_WinRateExcludesZeroPnL(t *testing.T) {
	closed := []dataapi.ClosedPosition{
		{RealizedPnl: dataapi.NewAmount(10)},
		{RealizedPnl: dataapi.NewAmount(0)},
		{RealizedPnl: dataapi.NewAmount(0)},
		{RealizedPnl: dataapi.NewAmount(-5)},
		{RealizedPnl: dataapi.NewAmount(3)},
	}
	sum, ok := Compute(settled(nil, closed, nil))
	if !ok {
		t.Fatalf("expected ready")
	}
	if sum.Wins != 2 || sum.Losses != 1 {
		t.Fatalf("wins=%d losses=%d", sum.Wins, sum.Losses)
	}
	if math.Abs(sum.WinRate-2.0/3.0) > 1e-9 {
		t.Fatalf("winRate=%v want=%v", sum.WinRate, 2.0/3.0)
	}
	if sum.ClosedPositions != 5 {
		t.Fatalf("closed=%d want=5", sum.ClosedPositions)
	}
}

func TestCompute_NonPositiveDenominator(t *testing.T) {
	// Value equals PnL: nothing was paid in.
	s := settled([]dataapi.Position{{CurrentValue: dataapi.NewAmount(40), CashPnl: dataapi.NewAmount(40)}}, nil, nil)
	sum, _ := Compute(s)
	if sum.ReturnPct != 0 {
		t.Fatalf("returnPct=%v want=0", sum.ReturnPct)
	}
}

func TestCompute_WaitsForPositions(t *testing.T) {
	s := portfolio.NewSnapshot(testAddress, 1, "batch", time.Now())
	if _, ok := Compute(s); ok {
		t.Fatalf("expected not ready with nothing settled")
	}
	s.Status[portfolio.EndpointOpen] = portfolio.StatusLoaded
	if _, ok := Compute(s); ok {
		t.Fatalf("expected not ready with closed pending")
	}
	s.Status[portfolio.EndpointClosed] = portfolio.StatusFailed
	sum, ok := Compute(s)
	if !ok {
		t.Fatalf("failed endpoint counts as settled")
	}
	if sum.Rank != RankUnknown {
		t.Fatalf("rank=%q while leaderboard pending", sum.Rank)
	}
	// Idempotent.
	again, _ := Compute(s)
	if !again.TotalValue.Equal(sum.TotalValue) || again.WinRate != sum.WinRate {
		t.Fatalf("second call differs")
	}
}

func TestRank(t *testing.T) {
	s := settled(nil, nil, []dataapi.LeaderboardEntry{{Rank: "17"}, {Rank: "3"}})
	if got := Rank(s); got != "17" {
		t.Fatalf("rank=%q want=17", got)
	}
	s = settled(nil, nil, []dataapi.LeaderboardEntry{{Rank: " "}})
	if got := Rank(s); got != RankUnknown {
		t.Fatalf("rank=%q want=%q", got, RankUnknown)
	}
}

func TestRecentSummary(t *testing.T) {
	s := settled([]dataapi.Position{{CurrentValue: dataapi.NewAmount(12), CashPnl: dataapi.NewAmount(2)}}, nil, []dataapi.LeaderboardEntry{{Rank: "9"}})
	got := RecentSummary(s)
	if got == nil || got.TotalValue.String() != "12" || got.Rank != "9" {
		t.Fatalf("summary=%+v", got)
	}
	if RecentSummary(portfolio.NewSnapshot(testAddress, 1, "b", time.Now())) != nil {
		t.Fatalf("expected nil before ready")
	}
}
