package server

import "testing"

func TestHistoryAppendAssignsSequence(t *testing.T) {
	h := NewMemoryHistory(10)

	first := h.Append("general", "ana", "hello")
	second := h.Append("general", "ben", "hi")
	other := h.Append("random", "ana", "elsewhere")

	if first.Seq != 0 || second.Seq != 1 {
		t.Errorf("expected sequence 0,1 within a room, got %d,%d", first.Seq, second.Seq)
	}
	if other.Seq != 0 {
		t.Errorf("expected independent sequence per room, got %d", other.Seq)
	}
	if first.Timestamp == 0 {
		t.Error("expected timestamp to be assigned at append time")
	}
}

func TestHistoryReplayOrder(t *testing.T) {
	h := NewMemoryHistory(10)

	h.Append("general", "ana", "one")
	h.Append("general", "ana", "two")
	h.Append("general", "ana", "three")

	replay := h.Replay("general")
	if len(replay) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(replay))
	}
	for i, want := range []string{"one", "two", "three"} {
		if replay[i].Text != want {
			t.Errorf("message %d: expected %q, got %q", i, want, replay[i].Text)
		}
	}
}

func TestHistoryEvictsOldestBeyondLimit(t *testing.T) {
	const limit = 5
	h := NewMemoryHistory(limit)

	texts := []string{"m0", "m1", "m2", "m3", "m4", "m5"}
	for _, text := range texts {
		h.Append("general", "ana", text)
	}

	replay := h.Replay("general")
	if len(replay) != limit {
		t.Fatalf("expected buffer capped at %d, got %d", limit, len(replay))
	}
	for i, msg := range replay {
		if want := texts[i+1]; msg.Text != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, msg.Text)
		}
	}
	// Eviction keeps sequence numbers monotonic.
	if replay[0].Seq != 1 || replay[limit-1].Seq != 5 {
		t.Errorf("expected sequences 1..5 after eviction, got %d..%d", replay[0].Seq, replay[limit-1].Seq)
	}
}

func TestHistoryReplayEmptyRoom(t *testing.T) {
	h := NewMemoryHistory(10)
	if replay := h.Replay("ghost"); len(replay) != 0 {
		t.Errorf("expected empty replay for unknown room, got %d entries", len(replay))
	}
}

func TestHistoryReplayIsSnapshot(t *testing.T) {
	h := NewMemoryHistory(10)
	h.Append("general", "ana", "one")

	snapshot := h.Replay("general")
	h.Append("general", "ana", "two")

	if len(snapshot) != 1 {
		t.Errorf("expected snapshot to be isolated from later appends, got %d entries", len(snapshot))
	}
}
