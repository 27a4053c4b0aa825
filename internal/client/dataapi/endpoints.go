package dataapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/azariak/PolymarketDataVisualizer/internal/pager"
)

const (
	PathPositions       = "/positions"
	PathClosedPositions = "/closed-positions"
	PathTrades          = "/trades"
	PathActivity        = "/activity"
	PathLeaderboard     = "/v1/leaderboard"
	PathValue           = "/value"
)

// Limits are the page size and highest accepted offset of one list endpoint.
// They are what the upstream tolerates in practice, not something it
// advertises, so they live here rather than in config.
type Limits struct {
	PageSize  int
	MaxOffset int
}

var (
	OpenPositionsLimits   = Limits{PageSize: 500, MaxOffset: 100_000}
	ClosedPositionsLimits = Limits{PageSize: 50, MaxOffset: 100_000}
	TradesLimits          = Limits{PageSize: 10_000, MaxOffset: 10_000}
	ActivityLimits        = Limits{PageSize: 500, MaxOffset: 10_000}
)

// GetPage fetches one list page and normalizes its envelope.
func (c *Client) GetPage(ctx context.Context, path string, query url.Values) ([]json.RawMessage, Shape, error) {
	body, err := c.GetJSON(ctx, path, query)
	if err != nil {
		return nil, ShapeUnrecognized, err
	}
	env := DecodeEnvelope(body)
	return env.Items, env.Shape, nil
}

// ListPage fetches user's rows of a paged endpoint at limit/offset.
func (c *Client) ListPage(ctx context.Context, path, user string, limit, offset int) ([]json.RawMessage, error) {
	items, shape, err := c.GetPage(ctx, path, pageQuery(user, limit, offset))
	if err != nil {
		return nil, err
	}
	if shape == ShapeUnrecognized {
		c.logger.Debug("unrecognized list response shape, treating as empty")
	}
	return items, nil
}

func (c *Client) OpenPositionsPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error) {
	return c.ListPage(ctx, PathPositions, user, limit, offset)
}

func (c *Client) ClosedPositionsPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error) {
	return c.ListPage(ctx, PathClosedPositions, user, limit, offset)
}

func (c *Client) TradesPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error) {
	return c.ListPage(ctx, PathTrades, user, limit, offset)
}

func (c *Client) ActivityPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error) {
	return c.ListPage(ctx, PathActivity, user, limit, offset)
}

// Leaderboard returns the user's leaderboard rows for period (e.g. "all",
// "month"). An address without a rank yields an empty slice.
func (c *Client) Leaderboard(ctx context.Context, user, period string) ([]LeaderboardEntry, error) {
	query := url.Values{}
	query.Set("user", user)
	if p := strings.TrimSpace(period); p != "" {
		query.Set("timePeriod", p)
	}
	items, _, err := c.GetPage(ctx, PathLeaderboard, query)
	if err != nil {
		return nil, err
	}
	rows, _ := pager.Decode[LeaderboardEntry](items)
	return rows, nil
}

// Value is the lightweight current-value lookup. It reports ok=false when the
// upstream had no row for the user.
func (c *Client) Value(ctx context.Context, user string) (ValueEntry, bool, error) {
	query := url.Values{}
	query.Set("user", user)
	body, err := c.GetJSON(ctx, PathValue, query)
	if err != nil {
		return ValueEntry{}, false, err
	}
	env := DecodeEnvelope(body)
	if env.Shape == ShapeUnrecognized {
		// Single object form.
		var one ValueEntry
		if err := json.Unmarshal(body, &one); err == nil && one.User != "" {
			return one, true, nil
		}
		return ValueEntry{}, false, nil
	}
	rows, _ := pager.Decode[ValueEntry](env.Items)
	if len(rows) == 0 {
		return ValueEntry{}, false, nil
	}
	return rows[0], true, nil
}

func pageQuery(user string, limit, offset int) url.Values {
	query := url.Values{}
	query.Set("user", user)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return query
}
