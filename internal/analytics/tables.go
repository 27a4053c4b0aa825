package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
)

const marketBaseURL = "https://polymarket.com/event/"

// MarketURL links to the market page, preferring the event slug.
func MarketURL(slugs ...string) string {
	for _, s := range slugs {
		if s = strings.TrimSpace(s); s != "" {
			return marketBaseURL + s
		}
	}
	return ""
}

type PositionRow struct {
	Market   string          `json:"market"`
	Outcome  string          `json:"outcome"`
	URL      string          `json:"url,omitempty"`
	Size     decimal.Decimal `json:"size"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	CurPrice decimal.Decimal `json:"cur_price"`
	Value    decimal.Decimal `json:"value"`
	PnL      decimal.Decimal `json:"pnl"`
	PnLPct   decimal.Decimal `json:"pnl_pct"`
	EndDate  string          `json:"end_date,omitempty"`
}

type ClosedRow struct {
	Market      string          `json:"market"`
	Outcome     string          `json:"outcome"`
	URL         string          `json:"url,omitempty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	TotalBought decimal.Decimal `json:"total_bought"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}

type ActivityRow struct {
	Time   time.Time       `json:"time"`
	Kind   string          `json:"kind"`
	Market string          `json:"market"`
	URL    string          `json:"url,omitempty"`
	Side   string          `json:"side,omitempty"`
	Size   decimal.Decimal `json:"size"`
	Price  decimal.Decimal `json:"price"`
	USDC   decimal.Decimal `json:"usdc"`
	TxHash string          `json:"tx_hash,omitempty"`
}

// PositionRows lists open positions by current value, largest first.
func PositionRows(active []dataapi.Position) []PositionRow {
	rows := make([]PositionRow, 0, len(active))
	for _, p := range active {
		rows = append(rows, PositionRow{
			Market:   marketTitle(p.Title, p.Slug),
			Outcome:  p.Outcome,
			URL:      MarketURL(p.EventSlug, p.Slug),
			Size:     p.Size.Decimal,
			AvgPrice: p.AvgPrice.Decimal,
			CurPrice: p.CurPrice.Decimal,
			Value:    p.CurrentValue.Decimal,
			PnL:      p.CashPnl.Decimal,
			PnLPct:   p.PercentPnl.Decimal,
			EndDate:  string(p.EndDate),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value.GreaterThan(rows[j].Value) })
	return rows
}

// ClosedRows lists closed positions, most recently closed first.
func ClosedRows(closed []dataapi.ClosedPosition) []ClosedRow {
	rows := make([]ClosedRow, 0, len(closed))
	for _, p := range closed {
		row := ClosedRow{
			Market:      marketTitle(p.Title, p.Slug),
			Outcome:     p.Outcome,
			URL:         MarketURL(p.EventSlug, p.Slug),
			AvgPrice:    p.AvgPrice.Decimal,
			TotalBought: p.TotalBought.Decimal,
			CostBasis:   p.CostBasis(),
			RealizedPnL: p.RealizedPnl.Decimal,
		}
		if !p.Timestamp.IsZero() {
			ts := p.Timestamp.Time
			row.ClosedAt = &ts
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ClosedAt, rows[j].ClosedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return rows
}

// ActivityRows lists ledger entries newest first.
func ActivityRows(activity []dataapi.Activity) []ActivityRow {
	rows := make([]ActivityRow, 0, len(activity))
	for _, a := range activity {
		rows = append(rows, ActivityRow{
			Time:   a.Timestamp.Time,
			Kind:   KindLabel(a.Type),
			Market: marketTitle(a.Title, a.Slug),
			URL:    MarketURL(a.EventSlug, a.Slug),
			Side:   a.Side,
			Size:   a.Size.Decimal,
			Price:  a.Price.Decimal,
			USDC:   a.UsdcSize.Decimal,
			TxHash: a.TransactionHash,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.After(rows[j].Time) })
	return rows
}

var kindLabels = map[string]string{
	"TRADE":        "Trade",
	"REDEEM":       "Redeem",
	"SPLIT":        "Split",
	"MERGE":        "Merge",
	"REWARD":       "Reward",
	"CONVERSION":   "Conversion",
	"MAKER_REBATE": "Maker rebate",
	"REBATE":       "Rebate",
	"YIELD":        "Yield",
}

// KindLabel names an activity type for display. Unknown types pass through.
func KindLabel(kind string) string {
	if label, ok := kindLabels[strings.ToUpper(strings.TrimSpace(kind))]; ok {
		return label
	}
	return kind
}

func marketTitle(title, slug string) string {
	if title != "" {
		return title
	}
	if slug != "" {
		return slug
	}
	return "Unknown market"
}
