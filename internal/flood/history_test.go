package flood

import (
	"testing"
	"time"
)

func testEntry(alerts, areas, overlap int) Entry {
	return Entry{
		CapturedAt:         time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		WazeFloodCount:     alerts,
		AffectedAreaCount:  areas,
		AlertsInAreasCount: overlap,
	}
}

func TestHistoryAppend_FirstEntryEmitsNothing(t *testing.T) {
	h := NewHistory(0, 0, 0)
	events := h.Append(testEntry(10, 5, 3))
	if len(events) != 0 {
		t.Errorf("first append emitted %d events, want 0", len(events))
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestHistoryAppend_Convergence(t *testing.T) {
	h := NewHistory(0, 0, 0)
	h.Append(testEntry(2, 1, 0))
	events := h.Append(testEntry(5, 3, 1))

	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	if events[0].Tag != TagCritical {
		t.Errorf("tag = %q, want %q", events[0].Tag, TagCritical)
	}
	if events[0].Message == "" {
		t.Error("convergence event has empty message")
	}
}

func TestHistoryAppend_SpikeWithoutConvergence(t *testing.T) {
	h := NewHistory(0, 0, 0)
	h.Append(testEntry(2, 1, 1))
	events := h.Append(testEntry(8, 1, 1))

	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}
	if events[0].Tag != TagAlert {
		t.Errorf("tag = %q, want %q", events[0].Tag, TagAlert)
	}
}

func TestHistoryAppend_SpikeBelowThreshold(t *testing.T) {
	h := NewHistory(0, 0, 0)
	h.Append(testEntry(2, 1, 1))
	events := h.Append(testEntry(6, 1, 1)) // +4 < 5

	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestHistoryAppend_AreaChanges(t *testing.T) {
	tests := []struct {
		name    string
		prev    Entry
		curr    Entry
		wantTag string
	}{
		{"areas newly affected", testEntry(3, 1, 0), testEntry(3, 4, 0), TagAttention},
		{"areas back to normal", testEntry(3, 4, 0), testEntry(3, 1, 0), TagNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(0, 0, 0)
			h.Append(tt.prev)
			events := h.Append(tt.curr)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Tag != tt.wantTag {
				t.Errorf("tag = %q, want %q", events[0].Tag, tt.wantTag)
			}
		})
	}
}

// A spike can coexist with an area change; only convergence is exclusive.
func TestHistoryAppend_SpikeAndAreaDrop(t *testing.T) {
	h := NewHistory(0, 0, 0)
	h.Append(testEntry(2, 5, 1))
	events := h.Append(testEntry(9, 3, 1)) // +7 alerts, -2 areas

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Tag != TagAlert {
		t.Errorf("events[0].Tag = %q, want %q", events[0].Tag, TagAlert)
	}
	if events[1].Tag != TagNormal {
		t.Errorf("events[1].Tag = %q, want %q", events[1].Tag, TagNormal)
	}
}

func TestHistoryAppend_NoChangeNoEvents(t *testing.T) {
	h := NewHistory(0, 0, 0)
	h.Append(testEntry(5, 3, 1))
	events := h.Append(testEntry(5, 3, 1))
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestHistory_WindowBounded(t *testing.T) {
	h := NewHistory(0, 0, 0)
	for i := 0; i < 150; i++ {
		e := testEntry(i, 0, 0)
		e.CapturedAt = e.CapturedAt.Add(time.Duration(i) * time.Minute)
		h.Append(e)
	}

	entries := h.Entries()
	if len(entries) != DefaultWindowSize {
		t.Fatalf("window holds %d entries, want %d", len(entries), DefaultWindowSize)
	}
	if got := entries[0].WazeFloodCount; got != 50 {
		t.Errorf("oldest retained entry = %d, want 50", got)
	}
	if got := entries[len(entries)-1].WazeFloodCount; got != 149 {
		t.Errorf("newest entry = %d, want 149", got)
	}
}

func TestHistory_EventLogBounded(t *testing.T) {
	h := NewHistory(0, 0, 0)
	// Alternate the affected-area count so every append after the first
	// emits exactly one area event.
	for i := 0; i < 120; i++ {
		h.Append(testEntry(0, i%2, 0))
	}

	events := h.Events()
	if len(events) != DefaultEventLogSize {
		t.Fatalf("event log holds %d, want %d", len(events), DefaultEventLogSize)
	}
}

func TestHistory_CustomBounds(t *testing.T) {
	h := NewHistory(3, 2, 1)
	for i := 0; i < 10; i++ {
		h.Append(testEntry(i*2, 0, 0)) // every diff is a +2 spike at threshold 1
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if got := len(h.Events()); got != 2 {
		t.Errorf("events = %d, want 2", got)
	}
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory(0, 0, 0)
	if _, ok := h.Last(); ok {
		t.Error("Last() on empty history reported ok")
	}
	h.Append(testEntry(1, 2, 3))
	last, ok := h.Last()
	if !ok {
		t.Fatal("Last() reported not ok after append")
	}
	if last.AlertsInAreasCount != 3 {
		t.Errorf("Last().AlertsInAreasCount = %d, want 3", last.AlertsInAreasCount)
	}
}
