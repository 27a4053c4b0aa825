package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
)

type Endpoint string

const (
	EndpointOpen        Endpoint = "open_positions"
	EndpointClosed      Endpoint = "closed_positions"
	EndpointTrades      Endpoint = "trades"
	EndpointActivity    Endpoint = "activity"
	EndpointLeaderboard Endpoint = "leaderboard"
	EndpointValue       Endpoint = "value"
)

// CoreEndpoints decide total failure: a lookup fails only if all of them do.
var CoreEndpoints = []Endpoint{EndpointOpen, EndpointClosed, EndpointTrades, EndpointActivity}

var AllEndpoints = []Endpoint{EndpointOpen, EndpointClosed, EndpointTrades, EndpointActivity, EndpointLeaderboard, EndpointValue}

type EndpointStatus string

const (
	StatusPending EndpointStatus = "pending"
	StatusLoaded  EndpointStatus = "loaded"
	StatusFailed  EndpointStatus = "failed"
)

// Snapshot is everything fetched for one address in one lookup. A Snapshot
// value is never modified after it is handed out; each landed endpoint
// produces a new value with only that endpoint's field written. Slices are
// never nil, so a snapshot with endpoints still pending renders as empty.
type Snapshot struct {
	Address    string    `json:"address"`
	Generation uint64    `json:"generation"`
	BatchID    string    `json:"batch_id"`
	StartedAt  time.Time `json:"started_at"`

	Active      []dataapi.Position         `json:"active"`
	Closed      []dataapi.ClosedPosition   `json:"closed"`
	Trades      []dataapi.Trade            `json:"trades"`
	Activity    []dataapi.Activity         `json:"activity"`
	Leaderboard []dataapi.LeaderboardEntry `json:"leaderboard"`
	QuickValue  *decimal.Decimal           `json:"quick_value,omitempty"`

	Status map[Endpoint]EndpointStatus `json:"status"`
}

func NewSnapshot(address string, generation uint64, batchID string, startedAt time.Time) Snapshot {
	status := make(map[Endpoint]EndpointStatus, len(AllEndpoints))
	for _, ep := range AllEndpoints {
		status[ep] = StatusPending
	}
	return Snapshot{
		Address:     address,
		Generation:  generation,
		BatchID:     batchID,
		StartedAt:   startedAt,
		Active:      []dataapi.Position{},
		Closed:      []dataapi.ClosedPosition{},
		Trades:      []dataapi.Trade{},
		Activity:    []dataapi.Activity{},
		Leaderboard: []dataapi.LeaderboardEntry{},
		Status:      status,
	}
}

// StatusOf returns the endpoint's status; unknown endpoints are pending.
func (s Snapshot) StatusOf(ep Endpoint) EndpointStatus {
	if st, ok := s.Status[ep]; ok {
		return st
	}
	return StatusPending
}

// Has reports whether every listed endpoint has settled, loaded or failed.
// A failed endpoint counts as present with an empty result.
func (s Snapshot) Has(eps ...Endpoint) bool {
	for _, ep := range eps {
		if s.StatusOf(ep) == StatusPending {
			return false
		}
	}
	return true
}

// Complete reports whether nothing is pending any more.
func (s Snapshot) Complete() bool {
	return s.Has(AllEndpoints...)
}

// with returns a copy carrying status for ep and whatever apply writes.
// apply must only touch the field belonging to ep.
func (s Snapshot) with(ep Endpoint, status EndpointStatus, apply func(*Snapshot)) Snapshot {
	next := s
	next.Status = make(map[Endpoint]EndpointStatus, len(s.Status)+1)
	for k, v := range s.Status {
		next.Status[k] = v
	}
	next.Status[ep] = status
	if apply != nil {
		apply(&next)
	}
	return next
}
