// Package recent keeps the most recently viewed addresses.
package recent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCapacity is how many addresses the list keeps. It is also the
// ceiling: a larger configured capacity is clamped to it.
const DefaultCapacity = 5

func clampCapacity(capacity int) int {
	if capacity <= 0 || capacity > DefaultCapacity {
		return DefaultCapacity
	}
	return capacity
}

// Summary is the headline of the last completed lookup for an address.
type Summary struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	Rank          string          `json:"rank"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Entry struct {
	Address  string    `json:"address"`
	ViewedAt time.Time `json:"viewed_at"`
	Summary  *Summary  `json:"summary,omitempty"`
}

// Store persists the list. Touch with a nil summary keeps whatever summary
// the address already had.
type Store interface {
	Touch(ctx context.Context, address string, summary *Summary) error
	List(ctx context.Context) ([]Entry, error)
}

// Touch moves entry to the front of list, dropping its older copy and
// anything beyond capacity. list is not modified.
func Touch(list []Entry, entry Entry, capacity int) []Entry {
	capacity = clampCapacity(capacity)
	key := strings.ToLower(entry.Address)
	out := make([]Entry, 0, capacity)
	out = append(out, entry)
	for _, e := range list {
		if strings.ToLower(e.Address) == key {
			if entry.Summary == nil {
				out[0].Summary = e.Summary
			}
			continue
		}
		if len(out) < capacity {
			out = append(out, e)
		}
	}
	return out
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	now      func() time.Time
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: clampCapacity(capacity), now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryStore) Touch(_ context.Context, address string, summary *Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = Touch(m.entries, Entry{Address: address, ViewedAt: m.now(), Summary: summary}, m.capacity)
	return nil
}

func (m *MemoryStore) List(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}
