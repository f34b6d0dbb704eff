// Package ingest drives the refresh cycle: fetch the three feeds, run
// the fusion engine, persist the result, and keep doing it on a timer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rafaelq/floodwatch/internal/flood"
	"github.com/rafaelq/floodwatch/internal/metrics"
)

// ErrPersist marks a cycle whose snapshot was computed but could not be
// written to the store. The snapshot still reaches the caller.
var ErrPersist = errors.New("snapshot persistence failed")

type StationSource interface {
	Stations(ctx context.Context) ([]flood.Station, error)
}

type ZoneSource interface {
	Zones(ctx context.Context) ([]flood.Polygon, error)
}

type HazardSource interface {
	FloodAlerts(ctx context.Context) ([]flood.Alert, error)
}

// SnapshotSink persists fused entries and their notable events.
type SnapshotSink interface {
	InsertSnapshot(ctx context.Context, id string, e flood.Entry) error
	InsertEvents(ctx context.Context, snapshotID string, events []flood.Event) error
}

// EventPublisher pushes notable events to an external bus.
type EventPublisher interface {
	PublishEvents(ctx context.Context, snapshotID string, events []flood.Event) error
}

// Config carries the tunables for one Orchestrator.
type Config struct {
	Guard          flood.Guard
	Thresholds     flood.Thresholds
	FetchTimeout   time.Duration
	WindowSize     int
	EventLogSize   int
	SpikeThreshold int
}

// Orchestrator runs refresh cycles. A mutex serializes them, so a
// manual refresh and a timer tick never interleave and the history
// window only ever has one writer.
type Orchestrator struct {
	stations StationSource
	zones    ZoneSource
	hazards  HazardSource
	sink     SnapshotSink

	publisher EventPublisher
	clock     clockwork.Clock
	logger    *slog.Logger

	guard        flood.Guard
	thresholds   flood.Thresholds
	fetchTimeout time.Duration
	history      *flood.History

	mu sync.Mutex

	lastMu sync.RWMutex
	last   *flood.Snapshot
}

func NewOrchestrator(stations StationSource, zones ZoneSource, hazards HazardSource, sink SnapshotSink, cfg Config, logger *slog.Logger) *Orchestrator {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &Orchestrator{
		stations:     stations,
		zones:        zones,
		hazards:      hazards,
		sink:         sink,
		clock:        clockwork.NewRealClock(),
		logger:       logger,
		guard:        cfg.Guard,
		thresholds:   cfg.Thresholds,
		fetchTimeout: fetchTimeout,
		history:      flood.NewHistory(cfg.WindowSize, cfg.EventLogSize, cfg.SpikeThreshold),
	}
}

// SetPublisher configures an optional notable-event bus.
func (o *Orchestrator) SetPublisher(p EventPublisher) {
	o.publisher = p
}

// SetClock swaps the time source. Tests inject a fake for deterministic
// capture timestamps.
func (o *Orchestrator) SetClock(c clockwork.Clock) {
	o.clock = c
}

// LastSnapshot returns the most recent cycle outcome, skipped or not,
// or nil before the first cycle.
func (o *Orchestrator) LastSnapshot() *flood.Snapshot {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	return o.last
}

func (o *Orchestrator) setLast(snap *flood.Snapshot) {
	o.lastMu.Lock()
	o.last = snap
	o.lastMu.Unlock()
}

// Refresh runs one full cycle: concurrent fetches, rain guard, fusion,
// history append, persistence, event publishing. Stations or zones
// failing aborts the cycle; hazards failing degrades to an empty alert
// set. A persistence failure still returns the computed snapshot,
// wrapped with ErrPersist.
func (o *Orchestrator) Refresh(ctx context.Context) (*flood.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	wallStart := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(wallStart).Seconds())
	}()

	var (
		stations []flood.Station
		zones    []flood.Polygon
		alerts   []flood.Alert

		stationsErr error
		zonesErr    error
		alertsErr   error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		stations, stationsErr = o.fetchStations(ctx)
	}()
	go func() {
		defer wg.Done()
		zones, zonesErr = o.fetchZones(ctx)
	}()
	go func() {
		defer wg.Done()
		alerts, alertsErr = o.fetchAlerts(ctx)
	}()
	wg.Wait()

	if stationsErr != nil || zonesErr != nil {
		metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("refresh aborted: %w", errors.Join(stationsErr, zonesErr))
	}
	if alertsErr != nil {
		o.logger.Warn("hazard feed failed, continuing without alerts", "error", alertsErr)
		alerts = nil
	}

	now := o.clock.Now().UTC()
	snap := &flood.Snapshot{ID: flood.NewSnapshotID(), CapturedAt: now}

	if ok, recent := o.guard.Evaluate(alerts, now); !ok {
		snap.Skipped = true
		snap.SkipReason = fmt.Sprintf("rain guard: %d flood alerts published in the trailing %s, need %d",
			recent, o.guard.Window, o.guard.MinAlerts)
		o.setLast(snap)
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		o.logger.Info("cycle skipped", "reason", snap.SkipReason)
		return snap, nil
	}

	m, rain := flood.ComputeMetrics(stations, zones, alerts)
	severity := flood.Classify(zones, m, o.thresholds)

	entry := flood.Entry{
		CapturedAt:         now,
		WazeFloodCount:     m.WazeFloodCount,
		AffectedAreaCount:  m.AffectedAreaCount,
		AlertsInAreasCount: m.AlertsInAreasCount,
		AvgRain:            rain.Avg,
		MaxRain:            rain.Max,
		ActiveStations:     rain.ActiveStations,
		Severity:           severity.Level,
	}
	events := o.history.Append(entry)

	snap.Metrics = m
	snap.Rain = rain
	snap.Severity = severity
	snap.Entry = &entry
	snap.Events = events
	o.setLast(snap)
	publishGauges(snap)

	for _, ev := range events {
		metrics.NotableEventsTotal.WithLabelValues(ev.Tag).Inc()
		o.logger.Info("notable event", "tag", ev.Tag, "message", ev.Message)
	}

	if o.publisher != nil && len(events) > 0 {
		if err := o.publisher.PublishEvents(ctx, snap.ID, events); err != nil {
			metrics.BusPublishFailuresTotal.Inc()
			o.logger.Error("publish notable events", "error", err)
		}
	}

	if err := o.persist(ctx, snap.ID, entry, events); err != nil {
		metrics.PersistFailuresTotal.Inc()
		metrics.CyclesTotal.WithLabelValues("persist_failed").Inc()
		o.logger.Error("persist snapshot", "error", err)
		return snap, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	o.logger.Info("cycle complete",
		"severity", severity.Label,
		"alerts", m.WazeFloodCount,
		"affected_areas", m.AffectedAreaCount,
		"alerts_in_areas", m.AlertsInAreasCount,
		"avg_rain", rain.Avg,
		"events", len(events))
	return snap, nil
}

func (o *Orchestrator) persist(ctx context.Context, id string, entry flood.Entry, events []flood.Event) error {
	if err := o.sink.InsertSnapshot(ctx, id, entry); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if err := o.sink.InsertEvents(ctx, id, events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}

func (o *Orchestrator) fetchStations(ctx context.Context) ([]flood.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()
	start := time.Now()
	stations, err := o.stations.Stations(ctx)
	observeFetch("gauges", start, err)
	return stations, err
}

func (o *Orchestrator) fetchZones(ctx context.Context) ([]flood.Polygon, error) {
	ctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()
	start := time.Now()
	zones, err := o.zones.Zones(ctx)
	observeFetch("zones", start, err)
	return zones, err
}

func (o *Orchestrator) fetchAlerts(ctx context.Context) ([]flood.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()
	start := time.Now()
	alerts, err := o.hazards.FloodAlerts(ctx)
	observeFetch("hazards", start, err)
	return alerts, err
}

func observeFetch(feed string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FeedFetchesTotal.WithLabelValues(feed, status).Inc()
	metrics.FeedFetchLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

func publishGauges(snap *flood.Snapshot) {
	metrics.SeverityLevel.Set(float64(snap.Severity.Level))
	metrics.FloodAlerts.Set(float64(snap.Metrics.WazeFloodCount))
	metrics.AffectedAreas.Set(float64(snap.Metrics.AffectedAreaCount))
	metrics.AlertsInAreas.Set(float64(snap.Metrics.AlertsInAreasCount))
	metrics.ActiveStations.Set(float64(snap.Rain.ActiveStations))
	metrics.AvgRain.Set(snap.Rain.Avg)
	metrics.MaxRain.Set(snap.Rain.Max)
}
