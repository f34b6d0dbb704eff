package flood

import (
	"fmt"
	"sync"
)

const (
	// DefaultWindowSize bounds the in-memory rolling entry window.
	DefaultWindowSize = 100
	// DefaultEventLogSize bounds the in-memory notable-event log.
	DefaultEventLogSize = 50
	// DefaultSpikeThreshold is the alert-count jump between two cycles
	// considered a notable spike.
	DefaultSpikeThreshold = 5
)

// History owns the rolling window of entries and the notable-event log.
// It is the engine's only state: exactly one writer (the orchestrator)
// appends, while HTTP handlers read concurrently. Both collections are
// bounded FIFO, oldest dropped first.
type History struct {
	mu             sync.RWMutex
	entries        []Entry
	events         []Event
	windowSize     int
	eventLogSize   int
	spikeThreshold int
}

// NewHistory builds an empty history. Non-positive sizes or thresholds
// fall back to the defaults.
func NewHistory(windowSize, eventLogSize, spikeThreshold int) *History {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if eventLogSize <= 0 {
		eventLogSize = DefaultEventLogSize
	}
	if spikeThreshold <= 0 {
		spikeThreshold = DefaultSpikeThreshold
	}
	return &History{
		windowSize:     windowSize,
		eventLogSize:   eventLogSize,
		spikeThreshold: spikeThreshold,
	}
}

// Append records one completed cycle, derives notable events by
// comparing against the previous entry, and returns the events emitted
// this cycle (nil for the first entry or an uneventful diff).
func (h *History) Append(e Entry) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var prev *Entry
	if n := len(h.entries); n > 0 {
		prev = &h.entries[n-1]
	}

	h.entries = append(h.entries, e)
	if len(h.entries) > h.windowSize {
		h.entries = h.entries[len(h.entries)-h.windowSize:]
	}

	if prev == nil {
		return nil
	}

	events := detectEvents(*prev, e, h.spikeThreshold)
	if len(events) > 0 {
		h.events = append(h.events, events...)
		if len(h.events) > h.eventLogSize {
			h.events = h.events[len(h.events)-h.eventLogSize:]
		}
	}
	return events
}

// Entries returns a copy of the rolling window, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Events returns a copy of the notable-event log, oldest first.
func (h *History) Events() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Len reports the number of entries currently in the window.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Last returns the most recent entry, if any.
func (h *History) Last() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// detectEvents diffs two consecutive entries. When alerts, areas and
// overlap all rise at once, that convergence outranks everything and
// yields a single critical event. Otherwise the alert-spike and
// area-change checks run independently; the two area directions are
// mutually exclusive by construction.
func detectEvents(prev, curr Entry, spikeThreshold int) []Event {
	dAlerts := curr.WazeFloodCount - prev.WazeFloodCount
	dAreas := curr.AffectedAreaCount - prev.AffectedAreaCount
	dOverlap := curr.AlertsInAreasCount - prev.AlertsInAreasCount

	at := curr.CapturedAt

	if dAlerts > 0 && dAreas > 0 && dOverlap > 0 {
		return []Event{{
			OccurredAt: at,
			Tag:        TagCritical,
			Message: fmt.Sprintf(
				"flood alerts, affected areas and overlap all rising: +%d alerts, +%d areas, +%d inside areas",
				dAlerts, dAreas, dOverlap),
		}}
	}

	var events []Event
	if dAlerts >= spikeThreshold {
		events = append(events, Event{
			OccurredAt: at,
			Tag:        TagAlert,
			Message:    fmt.Sprintf("flood alert spike: +%d reports since last cycle", dAlerts),
		})
	}
	switch {
	case dAreas > 0:
		events = append(events, Event{
			OccurredAt: at,
			Tag:        TagAttention,
			Message:    fmt.Sprintf("%d new areas under flood status", dAreas),
		})
	case dAreas < 0:
		events = append(events, Event{
			OccurredAt: at,
			Tag:        TagNormal,
			Message:    fmt.Sprintf("%d areas returned to normal", -dAreas),
		})
	}
	return events
}
