// Package flood is the fusion engine: it turns the three raw upstream
// collections (rain-gauge stations, risk-zone polygons, crowd-sourced
// flood alerts) into per-cycle metrics, a severity assessment, and a
// rolling history with derived notable events. Everything here is pure
// computation except History, which is the single owned state object.
package flood

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelq/floodwatch/internal/geo"
)

// Severity levels, shared with polygon status codes. The scales are the
// same by design: a zone's operational stage and the city-wide severity
// use the same four steps.
const (
	LevelNormal    = 0
	LevelAttention = 1
	LevelAlert     = 2
	LevelCritical  = 3
)

// Event tags, the lowercase counterparts of the severity labels.
const (
	TagNormal    = "normal"
	TagAttention = "attention"
	TagAlert     = "alert"
	TagCritical  = "critical"
)

// LabelFor returns the display label for a severity level or polygon
// status code. Out-of-range values map to "Normal".
func LabelFor(level int) string {
	switch level {
	case LevelAttention:
		return "Attention"
	case LevelAlert:
		return "Alert"
	case LevelCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// TagFor returns the event tag for a severity level.
func TagFor(level int) string {
	switch level {
	case LevelAttention:
		return TagAttention
	case LevelAlert:
		return TagAlert
	case LevelCritical:
		return TagCritical
	default:
		return TagNormal
	}
}

// Station is one rain-gauge telemetry reading. Stations are replaced
// wholesale every cycle; they are never mutated or accumulated.
type Station struct {
	Name     string           `json:"name"`
	Location geo.Point        `json:"location"`
	Rain     RainAccumulation `json:"rain"`
}

// RainAccumulation holds a station's trailing rainfall totals in
// millimetres. A reading the feed did not supply decodes as 0.
type RainAccumulation struct {
	Min5   float64 `json:"m05"`
	Min15  float64 `json:"m15"`
	Hour1  float64 `json:"h01"`
	Hour2  float64 `json:"h02"`
	Hour3  float64 `json:"h03"`
	Hour4  float64 `json:"h04"`
	Hour24 float64 `json:"h24"`
	Hour96 float64 `json:"h96"`
	Month  float64 `json:"month"`
}

// Polygon is an administrative flood-risk zone. Status codes are
// totally ordered 0..3; "affected" means status > 0. Only the first
// ring (the outer boundary) is used for membership testing.
type Polygon struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Status         int        `json:"status"`
	StatusName     string     `json:"status_name"`
	Rings          []geo.Ring `json:"rings,omitempty"`
	Centroid       geo.Point  `json:"centroid"`
	AreaKM2        float64    `json:"area_km2"`
	RainLastHour   float64    `json:"rain_1h"`
	ReportedAlerts int        `json:"flood_alerts"`
}

// Affected reports whether the zone is under any flood status.
func (p Polygon) Affected() bool {
	return p.Status > LevelNormal
}

// OuterRing returns the zone's outer boundary, or nil when the feed
// supplied no geometry.
func (p Polygon) OuterRing() geo.Ring {
	if len(p.Rings) == 0 {
		return nil
	}
	return p.Rings[0]
}

// Alert is one crowd-sourced flood report. The hazard feed client has
// already filtered out every other hazard subtype. Location is nil when
// the report carried no coordinates.
type Alert struct {
	ID          string     `json:"id"`
	Subtype     string     `json:"subtype"`
	Location    *geo.Point `json:"location,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	Reliability int        `json:"reliability"`
	Confidence  int        `json:"confidence"`
}

// Metrics are the three derived flood counts for one cycle. They are
// recomputed from scratch every cycle, never adjusted incrementally.
type Metrics struct {
	WazeFloodCount     int `json:"waze_flood_count"`
	AffectedAreaCount  int `json:"affected_area_count"`
	AlertsInAreasCount int `json:"alerts_in_areas_count"`
}

// RainSummary aggregates the stations' 1-hour accumulations. Avg is
// rounded to 2 decimal places, the precision persisted to the store.
type RainSummary struct {
	Avg            float64 `json:"avg"`
	Max            float64 `json:"max"`
	ActiveStations int     `json:"active_stations"`
}

// Severity is the city-wide assessment for one cycle.
type Severity struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

// Entry is one record of the rolling history window, one per
// non-skipped cycle.
type Entry struct {
	CapturedAt         time.Time `json:"captured_at"`
	WazeFloodCount     int       `json:"waze_count"`
	AffectedAreaCount  int       `json:"affected_areas"`
	AlertsInAreasCount int       `json:"alerts_in_areas"`
	AvgRain            float64   `json:"avg_rain"`
	MaxRain            float64   `json:"max_rain"`
	ActiveStations     int       `json:"active_stations"`
	Severity           int       `json:"severity"`
}

// Event is a notable state transition derived from two consecutive
// history entries.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	Tag        string    `json:"tag"`
	Message    string    `json:"message"`
}

// Snapshot is the full output of one refresh cycle. A skipped cycle
// carries only ID, CapturedAt, Skipped and SkipReason; it appends no
// history entry and is never persisted.
type Snapshot struct {
	ID         string      `json:"id"`
	CapturedAt time.Time   `json:"captured_at"`
	Skipped    bool        `json:"skipped"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Metrics    Metrics     `json:"metrics"`
	Rain       RainSummary `json:"rain"`
	Severity   Severity    `json:"severity"`
	Entry      *Entry      `json:"history_entry,omitempty"`
	Events     []Event     `json:"notable_events,omitempty"`
}

// NewSnapshotID allocates the id for one refresh snapshot.
func NewSnapshotID() string {
	return uuid.NewString()
}
