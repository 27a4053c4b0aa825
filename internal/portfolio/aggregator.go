package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/pager"
)

// ErrAllEndpointsFailed means none of the core endpoints returned a page.
var ErrAllEndpointsFailed = errors.New("all core endpoints failed")

// Source is the slice of the data API client the aggregator reads.
type Source interface {
	OpenPositionsPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error)
	ClosedPositionsPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error)
	TradesPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error)
	ActivityPage(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error)
	Leaderboard(ctx context.Context, user, period string) ([]dataapi.LeaderboardEntry, error)
	Value(ctx context.Context, user string) (dataapi.ValueEntry, bool, error)
}

// Update is emitted once per endpoint as it settles. Snapshot already holds
// that endpoint's data and everything that landed before it.
type Update struct {
	Generation uint64
	Endpoint   Endpoint
	Status     EndpointStatus
	Snapshot   Snapshot
}

type Aggregator struct {
	Client            Source
	Logger            *zap.Logger
	LeaderboardPeriod string
	Now               func() time.Time
}

// Run fetches every endpoint for address concurrently. emit, when non-nil, is
// called serially as each endpoint settles, in completion order. A failed
// endpoint contributes an empty result; if all core endpoints fail Run
// returns ErrAllEndpointsFailed and an empty Snapshot.
func (a *Aggregator) Run(ctx context.Context, address string, generation uint64, emit func(Update)) (Snapshot, error) {
	return a.RunBatch(ctx, NewSnapshot(address, generation, uuid.NewString(), a.now()), emit)
}

// RunBatch is Run starting from an already allocated snapshot, so callers can
// publish the empty snapshot before the first request goes out.
func (a *Aggregator) RunBatch(ctx context.Context, base Snapshot, emit func(Update)) (Snapshot, error) {
	logger := a.logger().With(
		zap.String("address", base.Address),
		zap.Uint64("generation", base.Generation),
		zap.String("batch_id", base.BatchID),
	)
	address := base.Address

	var mu sync.Mutex
	var wg sync.WaitGroup
	snap := base
	coreFailed := 0
	startedAt := a.now()
	settle := func(ep Endpoint, err error, apply func(*Snapshot)) {
		status := StatusLoaded
		if err != nil {
			status = StatusFailed
			apply = nil
		}
		mu.Lock()
		defer mu.Unlock()
		snap = snap.with(ep, status, apply)
		if err != nil && isCore(ep) {
			coreFailed++
		}
		if emit != nil {
			emit(Update{Generation: base.Generation, Endpoint: ep, Status: status, Snapshot: snap})
		}
	}

	paged := func(ep Endpoint, limits dataapi.Limits, fetch func(ctx context.Context, user string, limit, offset int) ([]json.RawMessage, error), apply func(*Snapshot, []json.RawMessage) int) {
		defer wg.Done()
		res := pager.All(ctx, func(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
			return fetch(ctx, address, limit, offset)
		}, pager.Config(limits))
		fields := []zap.Field{
			zap.String("endpoint", string(ep)),
			zap.Int("pages", res.Pages),
			zap.Int("items", len(res.Items)),
		}
		switch {
		case res.Failed():
			logger.Warn("endpoint failed", append(fields, zap.Error(res.Err))...)
			settle(ep, res.Err, nil)
			return
		case res.Truncated():
			logger.Warn("endpoint truncated", append(fields, zap.Error(res.Err))...)
		default:
			logger.Debug("endpoint loaded", fields...)
		}
		settle(ep, nil, func(s *Snapshot) {
			if skipped := apply(s, res.Items); skipped > 0 {
				logger.Warn("skipped undecodable rows", zap.String("endpoint", string(ep)), zap.Int("skipped", skipped))
			}
		})
	}

	wg.Add(6)
	go paged(EndpointOpen, dataapi.OpenPositionsLimits, a.Client.OpenPositionsPage, func(s *Snapshot, items []json.RawMessage) int {
		rows, skipped := pager.Decode[dataapi.Position](items)
		s.Active = rows
		return skipped
	})
	go paged(EndpointClosed, dataapi.ClosedPositionsLimits, a.Client.ClosedPositionsPage, func(s *Snapshot, items []json.RawMessage) int {
		rows, skipped := pager.Decode[dataapi.ClosedPosition](items)
		s.Closed = rows
		return skipped
	})
	go paged(EndpointTrades, dataapi.TradesLimits, a.Client.TradesPage, func(s *Snapshot, items []json.RawMessage) int {
		rows, skipped := pager.Decode[dataapi.Trade](items)
		s.Trades = rows
		return skipped
	})
	go paged(EndpointActivity, dataapi.ActivityLimits, a.Client.ActivityPage, func(s *Snapshot, items []json.RawMessage) int {
		rows, skipped := pager.Decode[dataapi.Activity](items)
		s.Activity = rows
		return skipped
	})
	go func() {
		defer wg.Done()
		rows, err := a.Client.Leaderboard(ctx, address, a.LeaderboardPeriod)
		if err != nil {
			logger.Warn("endpoint failed", zap.String("endpoint", string(EndpointLeaderboard)), zap.Error(err))
		}
		settle(EndpointLeaderboard, err, func(s *Snapshot) {
			if rows != nil {
				s.Leaderboard = rows
			}
		})
	}()
	go func() {
		defer wg.Done()
		entry, ok, err := a.Client.Value(ctx, address)
		if err != nil {
			logger.Debug("quick value unavailable", zap.Error(err))
		}
		settle(EndpointValue, err, func(s *Snapshot) {
			if ok {
				v := entry.Value.Decimal
				s.QuickValue = &v
			}
		})
	}()
	wg.Wait()

	if coreFailed == len(CoreEndpoints) {
		logger.Error("lookup failed", zap.Duration("elapsed", a.now().Sub(startedAt)))
		return Snapshot{}, ErrAllEndpointsFailed
	}
	logger.Info("lookup complete",
		zap.Int("open", len(snap.Active)),
		zap.Int("closed", len(snap.Closed)),
		zap.Int("trades", len(snap.Trades)),
		zap.Int("activity", len(snap.Activity)),
		zap.Duration("elapsed", a.now().Sub(startedAt)),
	)
	return snap, nil
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func isCore(ep Endpoint) bool {
	for _, c := range CoreEndpoints {
		if c == ep {
			return true
		}
	}
	return false
}
