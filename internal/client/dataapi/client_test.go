package dataapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azariak/PolymarketDataVisualizer/internal/cache"
	"github.com/azariak/PolymarketDataVisualizer/internal/pager"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		shape Shape
		key   string
		n     int
	}{
		{"bare array", `[{"a":1},{"a":2}]`, ShapeArray, "", 2},
		{"empty array", `[]`, ShapeArray, "", 0},
		{"data", `{"data":[{"a":1}]}`, ShapeWrapped, "data", 1},
		{"results", `{"results":[{"a":1},{"a":2},{"a":3}]}`, ShapeWrapped, "results", 3},
		{"positions", `{"positions":[]}`, ShapeWrapped, "positions", 0},
		{"data wins over results", `{"results":[{}],"data":[{},{}]}`, ShapeWrapped, "data", 2},
		{"data not array falls through", `{"data":{"x":1},"results":[{}]}`, ShapeWrapped, "results", 1},
		{"unknown key", `{"items":[{"a":1}]}`, ShapeUnrecognized, "", 0},
		{"malformed", `[{"a":`, ShapeUnrecognized, "", 0},
		{"scalar", `42`, ShapeUnrecognized, "", 0},
		{"empty body", ``, ShapeUnrecognized, "", 0},
	}
	for _, tt := range tests {
		env := DecodeEnvelope([]byte(tt.body))
		if env.Shape != tt.shape {
			t.Fatalf("%s: shape=%s want=%s", tt.name, env.Shape, tt.shape)
		}
		if env.Key != tt.key {
			t.Fatalf("%s: key=%q want=%q", tt.name, env.Key, tt.key)
		}
		if env.Items == nil {
			t.Fatalf("%s: items is nil", tt.name)
		}
		if len(env.Items) != tt.n {
			t.Fatalf("%s: items=%d want=%d", tt.name, len(env.Items), tt.n)
		}
	}
}

func TestGetJSON_RequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	_, err := c.GetJSON(context.Background(), PathPositions, nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err=%v want RequestError", err)
	}
	if reqErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status=%d", reqErr.Status)
	}
	if reqErr.Body != "slow down" {
		t.Fatalf("body=%q", reqErr.Body)
	}
}

func TestListPage_QueryAndShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user") != "0xabc" || q.Get("limit") != "50" || q.Get("offset") != "100" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch r.URL.Path {
		case PathClosedPositions:
			_, _ = w.Write([]byte(`{"data":[{"title":"A"},{"title":"B"}]}`))
		default:
			_, _ = w.Write([]byte(`{"unexpected":true}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	items, err := c.ClosedPositionsPage(context.Background(), "0xabc", 50, 100)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items=%d want=2", len(items))
	}
	items, err = c.TradesPage(context.Background(), "0xabc", 50, 100)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 0 {
		t.Fatalf("unrecognized shape should be empty, got %d", len(items))
	}
}

func TestGetJSON_CacheHit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[{"user":"0xabc","value":12.5}]`))
	}))
	defer srv.Close()

	store, err := cache.NewRistrettoStore(1 << 20)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	defer store.Close()

	c := NewClient(srv.Client(), srv.URL, WithCache(store, time.Minute))
	for i := 0; i < 3; i++ {
		v, ok, err := c.Value(context.Background(), "0xabc")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if v.Value.String() != "12.5" {
			t.Fatalf("value=%s", v.Value.String())
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("upstream hits=%d want=1", got)
	}
}

func TestGetJSON_BypassCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n == 1 {
			_, _ = w.Write([]byte(`[{"user":"0xabc","value":1}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"user":"0xabc","value":2}]`))
	}))
	defer srv.Close()

	store, err := cache.NewRistrettoStore(1 << 20)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	defer store.Close()

	c := NewClient(srv.Client(), srv.URL, WithCache(store, time.Minute))
	ctx := context.Background()
	if v, _, _ := c.Value(ctx, "0xabc"); v.Value.String() != "1" {
		t.Fatalf("value=%s want=1", v.Value.String())
	}
	v, _, err := c.Value(BypassCache(ctx), "0xabc")
	if err != nil || v.Value.String() != "2" {
		t.Fatalf("bypass value=%s err=%v want=2", v.Value.String(), err)
	}
	if v, _, _ := c.Value(ctx, "0xabc"); v.Value.String() != "2" {
		t.Fatalf("cached value=%s want the refreshed 2", v.Value.String())
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("upstream hits=%d want=2", got)
	}
}

func TestGetJSON_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			_, _ = w.Write([]byte(`[{"a":1}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"a":"` + strings.Repeat("x", 64) + `"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, WithMaxBodyBytes(32))
	if _, err := c.GetJSON(context.Background(), PathTrades, nil); err != nil {
		t.Fatalf("small body err=%v", err)
	}
	_, err := c.ListPage(context.Background(), PathTrades, "0xabc", 1, 1)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("err=%v want ErrBodyTooLarge", err)
	}

	res := pager.All(context.Background(), func(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
		return c.ListPage(ctx, PathTrades, "0xabc", limit, offset)
	}, pager.Config{PageSize: 1, MaxOffset: 10})
	if !res.Truncated() || len(res.Items) != 1 || !errors.Is(res.Err, ErrBodyTooLarge) {
		t.Fatalf("truncated=%v items=%d err=%v", res.Truncated(), len(res.Items), res.Err)
	}
}

func TestLeaderboard_EmptyAndRank(t *testing.T) {
	body := `[]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathLeaderboard {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("timePeriod") != "all" {
			t.Errorf("timePeriod=%s", r.URL.Query().Get("timePeriod"))
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	rows, err := c.Leaderboard(context.Background(), "0xabc", "all")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows=%d want=0", len(rows))
	}

	body = `[{"rank":17,"proxyWallet":"0xabc","vol":"1000","pnl":42.5}]`
	rows, err = c.Leaderboard(context.Background(), "0xabc", "all")
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows=%d err=%v", len(rows), err)
	}
	if rows[0].Rank != "17" {
		t.Fatalf("rank=%q want=17", rows[0].Rank)
	}
}

func TestTypes_TolerantDecoding(t *testing.T) {
	raw := `{"size":"10","avgPrice":0.45,"currentValue":null,"cashPnl":"","title":"Will it rain?","endDate":"2026-01-01"}`
	var p Position
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("err=%v", err)
	}
	if p.Size.String() != "10" || p.AvgPrice.String() != "0.45" {
		t.Fatalf("size=%s avg=%s", p.Size.String(), p.AvgPrice.String())
	}
	if !p.CurrentValue.IsZero() || !p.CashPnl.IsZero() {
		t.Fatalf("null/empty amounts must decode to zero")
	}

	var ts struct {
		A UnixTime `json:"a"`
		B UnixTime `json:"b"`
		C UnixTime `json:"c"`
		D UnixTime `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":1700000000,"b":"1700000000","c":1700000000000,"d":"2023-11-14T22:13:20Z"}`), &ts); err != nil {
		t.Fatalf("err=%v", err)
	}
	want := time.Unix(1700000000, 0).UTC()
	for i, got := range []time.Time{ts.A.Time, ts.B.Time, ts.C.Time, ts.D.Time} {
		if !got.Equal(want) {
			t.Fatalf("ts[%d]=%v want=%v", i, got, want)
		}
	}
}

func TestClosedPositionCostBasisAndNotional(t *testing.T) {
	cp := ClosedPosition{AvgPrice: NewAmount(0.5), TotalBought: NewAmount(200)}
	if cp.CostBasis().String() != "100" {
		t.Fatalf("cost basis=%s", cp.CostBasis().String())
	}
	tr := Trade{Size: NewAmount(-10), Price: NewAmount(0.3)}
	if tr.Notional().String() != "3" {
		t.Fatalf("notional=%s", tr.Notional().String())
	}
}
