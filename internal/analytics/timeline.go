package analytics

import (
	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
)

// TimelineEntry is one UTC day of activity, newest first.
type TimelineEntry struct {
	Date  string        `json:"date"`
	Count int           `json:"count"`
	Rows  []ActivityRow `json:"rows"`
}

// Timeline groups the newest limit activity rows by day. limit <= 0 keeps all.
func Timeline(activity []dataapi.Activity, limit int) []TimelineEntry {
	rows := ActivityRows(activity)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := []TimelineEntry{}
	for _, row := range rows {
		date := "undated"
		if !row.Time.IsZero() {
			date = row.Time.UTC().Format(dayLayout)
		}
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].Rows = append(out[n-1].Rows, row)
			out[n-1].Count++
			continue
		}
		out = append(out, TimelineEntry{Date: date, Count: 1, Rows: []ActivityRow{row}})
	}
	return out
}
