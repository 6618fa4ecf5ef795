package naive

import "testing"

func TestEventBus_EmitAndFlush(t *testing.T) {
	b := NewEventBus()
	b.Emit("collision", map[string]any{"a": 1})
	b.Emit("collision", nil)

	flushed := b.Flush()
	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushed events, got %d", len(flushed))
	}
	if again := b.Flush(); len(again) != 0 {
		t.Errorf("expected flush to clear pending, got %d", len(again))
	}
}

func TestEventBus_HistoryPersistsAcrossFlush(t *testing.T) {
	b := NewEventBus()
	b.Emit("spawn", nil)
	b.Flush()

	if got := b.Query("", 0); len(got) != 1 {
		t.Errorf("expected history to retain flushed events, got %d", len(got))
	}
}

func TestEventBus_HistoryCapped(t *testing.T) {
	b := NewEventBus()
	for i := 0; i < 1100; i++ {
		b.Emit("tick", nil)
	}
	if got := b.Query("", 0); len(got) != 1000 {
		t.Errorf("expected history capped at 1000, got %d", len(got))
	}
}

func TestEventBus_QueryFilterAndLimit(t *testing.T) {
	b := NewEventBus()
	b.Emit("player_hit", nil)
	b.Emit("player_heal", nil)
	b.Emit("enemy_hit", nil)

	hits := b.Query("hit", 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 events matching 'hit', got %d", len(hits))
	}

	limited := b.Query("", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to bound results, got %d", len(limited))
	}
}
