// Package analytics turns portfolio snapshots into view models. Every builder
// is a pure function of its inputs and is safe to call on partial snapshots.
package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
)

// Slice is one item competing for a share of the allocation chart.
type Slice struct {
	Label string
	Value decimal.Decimal
	URL   string
}

type Bucket struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
	Share float64         `json:"share"`
	URL   string          `json:"url,omitempty"`
	// Other buckets collapse several slices; Members lists their labels.
	Other   bool     `json:"other"`
	Count   int      `json:"count"`
	Members []string `json:"members,omitempty"`
}

// Allocation sorts the non-zero items by value, largest first. When there are
// more than limit of them the top limit-1 stay and the rest are collapsed
// into one trailing Other bucket. limit <= 0 means no limit.
func Allocation(items []Slice, limit int) []Bucket {
	kept := make([]Slice, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if it.Value.IsZero() {
			continue
		}
		kept = append(kept, it)
		total = total.Add(it.Value)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Value.GreaterThan(kept[j].Value)
	})

	individual := len(kept)
	if limit > 0 && len(kept) > limit {
		individual = limit - 1
	}
	out := make([]Bucket, 0, individual+1)
	for _, it := range kept[:individual] {
		out = append(out, Bucket{Label: it.Label, Value: it.Value, Share: share(it.Value, total), URL: it.URL, Count: 1})
	}
	if rest := kept[individual:]; len(rest) > 0 {
		other := Bucket{Other: true, Value: decimal.Zero, Count: len(rest), Members: make([]string, 0, len(rest))}
		for _, it := range rest {
			other.Value = other.Value.Add(it.Value)
			other.Members = append(other.Members, it.Label)
		}
		other.Label = fmt.Sprintf("Other (%d)", len(rest))
		other.Share = share(other.Value, total)
		out = append(out, other)
	}
	return out
}

// AllocationFromPositions charts open positions by current value.
func AllocationFromPositions(active []dataapi.Position, limit int) []Bucket {
	items := make([]Slice, 0, len(active))
	for _, p := range active {
		items = append(items, Slice{
			Label: positionLabel(p.Title, p.Outcome, p.Slug),
			Value: p.CurrentValue.Decimal,
			URL:   MarketURL(p.EventSlug, p.Slug),
		})
	}
	return Allocation(items, limit)
}

func share(v, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return v.Div(total).InexactFloat64()
}

func positionLabel(title, outcome, slug string) string {
	label := title
	if label == "" {
		label = slug
	}
	if label == "" {
		label = "Unknown market"
	}
	if outcome != "" {
		label += " (" + outcome + ")"
	}
	return label
}
