package portfolio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/address"
	"github.com/azariak/PolymarketDataVisualizer/internal/client/dataapi"
	"github.com/azariak/PolymarketDataVisualizer/internal/recent"
)

// LookupFailedMessage is shown when no core endpoint answered.
const LookupFailedMessage = "Could not load portfolio data for this address. Please check the address and try again."

var ErrNoCurrent = errors.New("no address is being viewed")

type EventType string

const (
	EventLookupStarted   EventType = "lookup_started"
	EventSnapshotUpdated EventType = "snapshot_updated"
	EventLookupCompleted EventType = "lookup_completed"
	EventLookupFailed    EventType = "lookup_failed"
	EventReset           EventType = "reset"
)

type Event struct {
	Type       EventType `json:"type"`
	Generation uint64    `json:"generation"`
	Address    string    `json:"address,omitempty"`
	Endpoint   Endpoint  `json:"endpoint,omitempty"`
	Message    string    `json:"message,omitempty"`
	// Snapshot is the slot content after the event, nil when the slot is empty.
	Snapshot *Snapshot `json:"-"`
}

// Session owns the single "current" slot. Every Lookup or Reset bumps the
// generation; results tagged with an older generation are dropped.
type Session struct {
	aggregator *Aggregator
	recent     recent.Store
	summarize  func(Snapshot) *recent.Summary
	logger     *zap.Logger
	baseCtx    context.Context

	mu         sync.Mutex
	generation uint64
	current    *Snapshot
	subs       map[int]chan Event
	nextSub    int
	inflight   sync.WaitGroup
}

type SessionOption func(*Session)

// WithRecent records every looked up address in store. summarize, when set,
// attaches the headline numbers of each completed lookup.
func WithRecent(store recent.Store, summarize func(Snapshot) *recent.Summary) SessionOption {
	return func(s *Session) {
		s.recent = store
		s.summarize = summarize
	}
}

func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession returns a session whose background lookups run under ctx.
// Lookups are not cancelled when the viewed address changes; only ctx ends them.
func NewSession(ctx context.Context, aggregator *Aggregator, opts ...SessionOption) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Session{
		aggregator: aggregator,
		logger:     zap.NewNop(),
		baseCtx:    ctx,
		subs:       make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Lookup validates raw, replaces the slot with an empty snapshot for it and
// starts fetching in the background. Invalid input returns an
// *address.FieldError before any request is made.
func (s *Session) Lookup(ctx context.Context, raw string) (uint64, error) {
	return s.lookup(ctx, raw, false)
}

func (s *Session) lookup(ctx context.Context, raw string, fresh bool) (uint64, error) {
	addr, err := address.Normalize(raw)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.generation++
	snap := NewSnapshot(addr, s.generation, uuid.NewString(), time.Now().UTC())
	s.current = &snap
	s.publishLocked(Event{Type: EventLookupStarted, Generation: snap.Generation, Address: addr, Snapshot: &snap})
	s.inflight.Add(1)
	s.mu.Unlock()

	if s.recent != nil {
		if err := s.recent.Touch(ctx, addr, nil); err != nil {
			s.logger.Warn("record recent address failed", zap.String("address", addr), zap.Error(err))
		}
	}

	go s.run(snap, fresh)
	return snap.Generation, nil
}

func (s *Session) run(base Snapshot, fresh bool) {
	defer s.inflight.Done()
	ctx := s.baseCtx
	if fresh {
		ctx = dataapi.BypassCache(ctx)
	}
	final, err := s.aggregator.RunBatch(ctx, base, s.apply)

	s.mu.Lock()
	if base.Generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale lookup", zap.String("address", base.Address), zap.Uint64("generation", base.Generation))
		return
	}
	if err != nil {
		s.current = nil
		s.publishLocked(Event{Type: EventLookupFailed, Generation: base.Generation, Address: base.Address, Message: LookupFailedMessage})
		s.mu.Unlock()
		return
	}
	s.current = &final
	s.publishLocked(Event{Type: EventLookupCompleted, Generation: base.Generation, Address: base.Address, Snapshot: &final})
	s.mu.Unlock()

	if s.recent != nil && s.summarize != nil {
		if sum := s.summarize(final); sum != nil {
			if err := s.recent.Touch(s.baseCtx, base.Address, sum); err != nil {
				s.logger.Warn("record recent summary failed", zap.String("address", base.Address), zap.Error(err))
			}
		}
	}
}

func (s *Session) apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Generation != s.generation || s.current == nil {
		return
	}
	snap := u.Snapshot
	s.current = &snap
	s.publishLocked(Event{Type: EventSnapshotUpdated, Generation: u.Generation, Address: snap.Address, Endpoint: u.Endpoint, Snapshot: &snap})
}

// Reset returns to the entry state. Lookups still in flight become stale.
func (s *Session) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = nil
	s.publishLocked(Event{Type: EventReset, Generation: s.generation})
	return s.generation
}

// Current returns the slot content; ok is false in the entry state.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Snapshot{}, false
	}
	return *s.current, true
}

// Generation is the generation of the most recent Lookup or Reset.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Refresh looks up the current address again, skipping cached responses.
func (s *Session) Refresh(ctx context.Context) (uint64, error) {
	snap, ok := s.Current()
	if !ok {
		return 0, ErrNoCurrent
	}
	return s.lookup(ctx, snap.Address, true)
}

// Subscribe returns a channel of events with room for buf pending events.
// A subscriber that falls behind misses snapshot updates instead of stalling
// lookups; completed, failed and reset events are always delivered.
func (s *Session) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Wait blocks until every background lookup has returned.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// terminal events end a lookup or clear the view. They are never dropped for
// a subscriber that is behind.
func (t EventType) terminal() bool {
	return t == EventLookupCompleted || t == EventLookupFailed || t == EventReset
}

func (s *Session) publishLocked(ev Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		if !ev.Type.terminal() {
			s.logger.Debug("subscriber behind, dropping event", zap.Int("subscriber", id), zap.String("type", string(ev.Type)))
			continue
		}
		evictIntermediate(ch)
		select {
		case ch <- ev:
		default:
			s.logger.Warn("subscriber behind, dropping terminal event", zap.Int("subscriber", id), zap.String("type", string(ev.Type)))
		}
	}
}

// evictIntermediate empties ch and queues its terminal events again, leaving
// room for at least one more. The caller must be the only sender.
func evictIntermediate(ch chan Event) {
	var kept []Event
drain:
	for {
		select {
		case ev := <-ch:
			if ev.Type.terminal() {
				kept = append(kept, ev)
			}
		default:
			break drain
		}
	}
	if n := cap(ch) - 1; len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	for _, ev := range kept {
		ch <- ev
	}
}
