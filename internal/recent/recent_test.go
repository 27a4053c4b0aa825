package recent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azariak/PolymarketDataVisualizer/internal/models"
)

func addr(i int) string {
	return fmt.Sprintf("0x%040d", i)
}

func addresses(list []Entry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Address)
	}
	return out
}

func TestTouch_CapAndOrder(t *testing.T) {
	var list []Entry
	for i := 1; i <= 7; i++ {
		list = Touch(list, Entry{Address: addr(i)}, DefaultCapacity)
	}
	if len(list) != 5 {
		t.Fatalf("len=%d want=5", len(list))
	}
	want := []string{addr(7), addr(6), addr(5), addr(4), addr(3)}
	got := addresses(list)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list=%v want=%v", got, want)
		}
	}
}

func TestTouch_MovesExistingToFront(t *testing.T) {
	var list []Entry
	for i := 1; i <= 5; i++ {
		list = Touch(list, Entry{Address: addr(i)}, DefaultCapacity)
	}
	list = Touch(list, Entry{Address: addr(1)}, DefaultCapacity)
	got := addresses(list)
	want := []string{addr(1), addr(5), addr(4), addr(3), addr(2)}
	if len(got) != 5 {
		t.Fatalf("len=%d want=5", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list=%v want=%v", got, want)
		}
	}
}

func TestTouch_KeepsSummaryOfLastSlot(t *testing.T) {
	sum := &Summary{TotalValue: decimal.NewFromInt(42)}
	list := []Entry{
		{Address: addr(1)}, {Address: addr(2)}, {Address: addr(3)}, {Address: addr(4)},
		{Address: addr(5), Summary: sum},
	}
	list = Touch(list, Entry{Address: addr(5)}, DefaultCapacity)
	if list[0].Summary != sum {
		t.Fatalf("summary lost: %+v", list[0])
	}
	if len(list) != 5 {
		t.Fatalf("len=%d want=5", len(list))
	}
}

func TestTouch_DoesNotModifyInput(t *testing.T) {
	list := []Entry{{Address: addr(1)}, {Address: addr(2)}}
	_ = Touch(list, Entry{Address: addr(3)}, DefaultCapacity)
	if list[0].Address != addr(1) || list[1].Address != addr(2) {
		t.Fatalf("input modified: %v", addresses(list))
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	for i := 1; i <= 6; i++ {
		if err := store.Touch(ctx, addr(i), nil); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	sum := &Summary{RealizedPnL: decimal.NewFromInt(-20), Rank: "17"}
	if err := store.Touch(ctx, addr(3), sum); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := store.Touch(ctx, addr(6), nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(list) != 5 {
		t.Fatalf("len=%d want=5", len(list))
	}
	if list[0].Address != addr(6) || list[1].Address != addr(3) {
		t.Fatalf("order=%v", addresses(list))
	}
	if list[1].Summary == nil || list[1].Summary.Rank != "17" {
		t.Fatalf("summary=%+v", list[1].Summary)
	}
}

func TestCapacityClamped(t *testing.T) {
	ctx := context.Background()
	for _, capacity := range []int{10, DefaultCapacity + 1, 100} {
		store := NewMemoryStore(capacity)
		for i := 1; i <= 10; i++ {
			_ = store.Touch(ctx, addr(i), nil)
		}
		list, _ := store.List(ctx)
		if len(list) != DefaultCapacity {
			t.Fatalf("capacity=%d kept=%d want=%d", capacity, len(list), DefaultCapacity)
		}
	}

	small := NewMemoryStore(2)
	for i := 1; i <= 4; i++ {
		_ = small.Touch(ctx, addr(i), nil)
	}
	if list, _ := small.List(ctx); len(list) != 2 {
		t.Fatalf("kept=%d want=2", len(list))
	}

	var list []Entry
	for i := 1; i <= 8; i++ {
		list = Touch(list, Entry{Address: addr(i)}, 8)
	}
	if len(list) != DefaultCapacity {
		t.Fatalf("pure touch kept=%d want=%d", len(list), DefaultCapacity)
	}
	if got := NewGormStore(nil, 50).capacity; got != DefaultCapacity {
		t.Fatalf("gorm capacity=%d want=%d", got, DefaultCapacity)
	}
}

func TestRowRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row, err := toRow(addr(9), &Summary{TotalValue: decimal.RequireFromString("1000.5"), Rank: "unknown"}, at)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	entry := fromRow(row)
	if entry.Address != addr(9) || !entry.ViewedAt.Equal(at) {
		t.Fatalf("entry=%+v", entry)
	}
	if entry.Summary == nil || entry.Summary.TotalValue.String() != "1000.5" {
		t.Fatalf("summary=%+v", entry.Summary)
	}

	bare := fromRow(models.RecentAddress{Address: addr(1), ViewedAt: at})
	if bare.Summary != nil {
		t.Fatalf("summary=%+v want nil", bare.Summary)
	}
}
