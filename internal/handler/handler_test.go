package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/export"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
	"github.com/azariak/PolymarketDataVisualizer/internal/recent"
)

const testAddress = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// upstream fakes the data API. down makes every endpoint answer 503.
func upstream(t *testing.T, down bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case dataapi.PathPositions:
			_, _ = w.Write([]byte(`[{"title":"Rain","currentValue":1000,"cashPnl":50,"slug":"rain"}]`))
		case dataapi.PathClosedPositions:
			_, _ = w.Write([]byte(`[{"title":"Snow","realizedPnl":-20,"avgPrice":0.5,"totalBought":200}]`))
		case dataapi.PathTrades:
			_, _ = w.Write([]byte(`[{"size":10,"price":0.5,"timestamp":1700000000}]`))
		case dataapi.PathActivity:
			_, _ = w.Write([]byte(`[{"type":"TRADE","title":"Snow","timestamp":1700000000,"usdcSize":5}]`))
		case dataapi.PathLeaderboard:
			_, _ = w.Write([]byte(`[]`))
		case dataapi.PathValue:
			_, _ = w.Write([]byte(`[{"user":"` + testAddress + `","value":1000}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	engine  *gin.Engine
	session *portfolio.Session
	recent  *recent.MemoryStore
}

func newEnv(t *testing.T, down bool) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := upstream(t, down)
	agg := &portfolio.Aggregator{Client: dataapi.NewClient(srv.Client(), srv.URL), LeaderboardPeriod: "all"}
	store := recent.NewMemoryStore(recent.DefaultCapacity)
	sess := portfolio.NewSession(context.Background(), agg, portfolio.WithRecent(store, nil))

	engine := gin.New()
	(&HealthHandler{}).Register(engine)
	RegisterDocs(engine)
	(&PortfolioHandler{
		Session:    sess,
		Aggregator: agg,
		Recent:     store,
		Exports:    export.NewRegistry(export.PDF{}),
		Options:    analytics.DefaultOptions(),
	}).Register(engine)
	return testEnv{engine: engine, session: sess, recent: store}
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestLookup_InvalidAddress(t *testing.T) {
	env := newEnv(t, false)
	w := do(env.engine, http.MethodPost, "/api/lookup", `{"address":"0xnothex"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", w.Code)
	}
	if got := decode(t, w).Meta["field"]; got != "address" {
		t.Fatalf("field=%v want=address", got)
	}
	if _, ok := env.session.Current(); ok {
		t.Fatalf("invalid input must not start a lookup")
	}
}

func TestLookup_CurrentAndReset(t *testing.T) {
	env := newEnv(t, false)
	w := do(env.engine, http.MethodPost, "/api/lookup", `{"address":"`+strings.TrimPrefix(testAddress, "0x")+`"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	env.session.Wait()

	w = do(env.engine, http.MethodGet, "/api/current", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var view analytics.View
	if err := json.Unmarshal(decode(t, w).Data, &view); err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Address != testAddress || !view.Complete {
		t.Fatalf("address=%s complete=%v", view.Address, view.Complete)
	}
	if view.Summary == nil || view.Summary.TotalValue.String() != "1000" || view.Summary.Rank != "unknown" {
		t.Fatalf("summary=%+v", view.Summary)
	}
	if len(view.Positions) != 1 || view.Positions[0].URL != "https://polymarket.com/event/rain" {
		t.Fatalf("positions=%+v", view.Positions)
	}

	w = do(env.engine, http.MethodGet, "/api/recent", "")
	var entries []recent.Entry
	if err := json.Unmarshal(decode(t, w).Data, &entries); err != nil || len(entries) != 1 {
		t.Fatalf("recent=%s err=%v", w.Body.String(), err)
	}
	w = do(env.engine, http.MethodGet, "/api/recent?limit=0", "")
	if env := decode(t, w); string(env.Data) != "[]" || env.Meta["total"] != float64(1) {
		t.Fatalf("limited recent=%s", w.Body.String())
	}

	if w = do(env.engine, http.MethodDelete, "/api/current", ""); w.Code != http.StatusOK {
		t.Fatalf("reset status=%d", w.Code)
	}
	if w = do(env.engine, http.MethodGet, "/api/current", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404 after reset", w.Code)
	}
	if w = do(env.engine, http.MethodPost, "/api/current/refresh", ""); w.Code != http.StatusNotFound {
		t.Fatalf("refresh status=%d want=404", w.Code)
	}
}

func TestExport(t *testing.T) {
	env := newEnv(t, false)
	if w := do(env.engine, http.MethodGet, "/api/current/export/pdf", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404 with nothing viewed", w.Code)
	}
	if _, err := env.session.Lookup(context.Background(), testAddress); err != nil {
		t.Fatalf("err=%v", err)
	}
	env.session.Wait()

	w := do(env.engine, http.MethodGet, "/api/current/export/xlsx", "")
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status=%d want=501 for disabled format", w.Code)
	}
	w = do(env.engine, http.MethodGet, "/api/current/export/pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "polymarket-"+testAddress+".pdf") {
		t.Fatalf("content-disposition=%q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF-") {
		t.Fatalf("body is not a pdf")
	}
}

func TestOneShot(t *testing.T) {
	env := newEnv(t, false)
	w := do(env.engine, http.MethodGet, "/api/portfolio/"+testAddress, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if _, ok := env.session.Current(); ok {
		t.Fatalf("one-shot lookup must not touch the current view")
	}
	if w = do(env.engine, http.MethodGet, "/api/portfolio/0x12", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", w.Code)
	}

	down := newEnv(t, true)
	w = do(down.engine, http.MethodGet, "/api/portfolio/"+testAddress, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d want=502", w.Code)
	}
	if msg := decode(t, w).Message; msg != portfolio.LookupFailedMessage {
		t.Fatalf("message=%q", msg)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	(&HealthHandler{Checks: map[string]func(context.Context) error{
		"cache":  func(context.Context) error { return nil },
		"recent": func(context.Context) error { return errors.New("connection refused") },
	}}).Register(engine)

	if w := do(engine, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}
	w := do(engine, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("readyz=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDocs(t *testing.T) {
	env := newEnv(t, false)
	w := do(env.engine, http.MethodGet, "/docs", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "POST /api/lookup") {
		t.Fatalf("docs=%d", w.Code)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) streamMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("frame %s: %v", data, err)
	}
	return msg
}

func TestStream(t *testing.T) {
	env := newEnv(t, false)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/current/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if first := readFrame(t, ctx, conn); first.Type != portfolio.EventReset || first.View != nil {
		t.Fatalf("first frame=%+v", first)
	}

	resp, err := http.Post(srv.URL+"/api/lookup", "application/json", strings.NewReader(`{"address":"`+testAddress+`"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	updates := 0
	for {
		msg := readFrame(t, ctx, conn)
		if msg.Type == portfolio.EventSnapshotUpdated {
			updates++
		}
		if msg.Type == portfolio.EventLookupCompleted {
			if msg.View == nil || msg.View.Summary == nil {
				t.Fatalf("completed frame without summary")
			}
			break
		}
	}
	if updates != len(portfolio.AllEndpoints) {
		t.Fatalf("updates=%d want=%d", updates, len(portfolio.AllEndpoints))
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(), AccessLog(zap.NewNop()))
	engine.GET("/api/ping", func(c *gin.Context) { Ok(c, "pong", nil) })

	w := do(engine, http.MethodGet, "/api/ping", "")
	if w.Code != http.StatusOK || w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("status=%d request-id=%q", w.Code, w.Header().Get(requestIDHeader))
	}
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set(requestIDHeader, "abc")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc" {
		t.Fatalf("request-id=%q want=abc", got)
	}
	if w = do(engine, http.MethodOptions, "/api/ping", ""); w.Code != http.StatusNoContent {
		t.Fatalf("preflight=%d want=204", w.Code)
	}
}
