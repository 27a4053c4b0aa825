// Package pager walks offset/limit list endpoints until they run dry.
package pager

import (
	"context"
	"encoding/json"
)

type Config struct {
	PageSize  int
	MaxOffset int
}

// MaxRequests is the most requests All will issue for cfg.
func (c Config) MaxRequests() int {
	if c.PageSize <= 0 || c.MaxOffset < 0 {
		return 1
	}
	return (c.MaxOffset+c.PageSize-1)/c.PageSize + 1
}

// PageFunc fetches one page at limit/offset.
type PageFunc func(ctx context.Context, limit, offset int) ([]json.RawMessage, error)

type Result struct {
	Items []json.RawMessage
	// Pages counts successful requests, Requests all of them.
	Pages    int
	Requests int
	// Err is the failure that cut the walk short, if any. The items gathered
	// before it are still in Items.
	Err error
}

// Failed reports that not a single page came back.
func (r Result) Failed() bool {
	return r.Err != nil && r.Pages == 0
}

// Truncated reports that some pages came back before a failure.
func (r Result) Truncated() bool {
	return r.Err != nil && r.Pages > 0
}

// All requests pages from offset 0 until a page is shorter than the page size
// (an empty page included), a request fails, or the next offset would pass
// cfg.MaxOffset. Items keep the server's order.
func All(ctx context.Context, fetch PageFunc, cfg Config) Result {
	res := Result{Items: []json.RawMessage{}}
	if fetch == nil || cfg.PageSize <= 0 {
		return res
	}
	for offset := 0; offset <= cfg.MaxOffset; offset += cfg.PageSize {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		res.Requests++
		items, err := fetch(ctx, cfg.PageSize, offset)
		if err != nil {
			res.Err = err
			return res
		}
		res.Pages++
		res.Items = append(res.Items, items...)
		if len(items) < cfg.PageSize {
			return res
		}
	}
	return res
}

// Decode converts raw rows to T, dropping rows that do not decode.
func Decode[T any](items []json.RawMessage) (rows []T, skipped int) {
	rows = make([]T, 0, len(items))
	for _, raw := range items {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped
}
