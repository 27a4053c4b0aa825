package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

// MarketPnL is the combined open and closed result for one market title.
type MarketPnL struct {
	Market string          `json:"market"`
	URL    string          `json:"url,omitempty"`
	PnL    decimal.Decimal `json:"pnl"`
}

// WinnersLosers sums unrealized PnL of open positions and realized PnL of
// closed ones per market title, drops markets that net to zero, and returns
// the n best positive and n worst negative markets.
func WinnersLosers(active []dataapi.Position, closed []dataapi.ClosedPosition, n int) (winners, losers []MarketPnL) {
	byMarket := make(map[string]int)
	var merged []MarketPnL
	add := func(title, url string, pnl decimal.Decimal) {
		if title == "" {
			title = "Unknown market"
		}
		if i, ok := byMarket[title]; ok {
			merged[i].PnL = merged[i].PnL.Add(pnl)
			if merged[i].URL == "" {
				merged[i].URL = url
			}
			return
		}
		byMarket[title] = len(merged)
		merged = append(merged, MarketPnL{Market: title, URL: url, PnL: pnl})
	}
	for _, p := range active {
		add(p.Title, MarketURL(p.EventSlug, p.Slug), p.CashPnl.Decimal)
	}
	for _, p := range closed {
		add(p.Title, MarketURL(p.EventSlug, p.Slug), p.RealizedPnl.Decimal)
	}

	winners = []MarketPnL{}
	losers = []MarketPnL{}
	for _, m := range merged {
		switch m.PnL.Sign() {
		case 1:
			winners = append(winners, m)
		case -1:
			losers = append(losers, m)
		}
	}
	sort.SliceStable(winners, func(i, j int) bool { return winners[i].PnL.GreaterThan(winners[j].PnL) })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].PnL.LessThan(losers[j].PnL) })
	if n > 0 {
		if len(winners) > n {
			winners = winners[:n]
		}
		if len(losers) > n {
			losers = losers[:n]
		}
	}
	return winners, losers
}

// WinnersLosersFor waits for both open and closed positions to settle.
func WinnersLosersFor(s portfolio.Snapshot, n int) (winners, losers []MarketPnL, ok bool) {
	if !s.Has(portfolio.EndpointOpen, portfolio.EndpointClosed) {
		return nil, nil, false
	}
	winners, losers = WinnersLosers(s.Active, s.Closed, n)
	return winners, losers, true
}
