// Package config declares every runtime knob for the floodwatch
// service. Values are resolved by kong from flags, environment
// variables, and an optional .env file, in that order.
package config

import (
	"fmt"
	"time"

	"github.com/rafaelq/floodwatch/internal/feeds"
	"github.com/rafaelq/floodwatch/internal/flood"
)

// DefaultWazeURL is the public Waze live-map endpoint for the row
// (rest of world) environment, which covers Brazil.
const DefaultWazeURL = "https://www.waze.com/live-map/api/georss?env=row&format=JSON"

type Config struct {
	Addr   string `help:"HTTP listen address." default:":8080" env:"FLOODWATCH_ADDR"`
	DBPath string `help:"Path to the SQLite database." name:"db" default:"data/floodwatch.db" env:"FLOODWATCH_DB"`

	GaugesURL string `help:"Rain gauge telemetry feed." required:"" env:"FLOODWATCH_GAUGES_URL"`
	ZonesURL  string `help:"Flood risk zone feed." required:"" env:"FLOODWATCH_ZONES_URL"`
	WazeURL   string `help:"Waze live-map endpoint." default:"${default_waze_url}" env:"FLOODWATCH_WAZE_URL"`

	// Bounding box for the hazard search. Defaults cover the Rio de
	// Janeiro metropolitan area.
	BBoxTop    float64 `name:"bbox-top" help:"North edge of the hazard search box." default:"-22.74" env:"FLOODWATCH_BBOX_TOP"`
	BBoxBottom float64 `name:"bbox-bottom" help:"South edge of the hazard search box." default:"-23.09" env:"FLOODWATCH_BBOX_BOTTOM"`
	BBoxLeft   float64 `name:"bbox-left" help:"West edge of the hazard search box." default:"-43.79" env:"FLOODWATCH_BBOX_LEFT"`
	BBoxRight  float64 `name:"bbox-right" help:"East edge of the hazard search box." default:"-43.09" env:"FLOODWATCH_BBOX_RIGHT"`

	PollInterval time.Duration `help:"Time between refresh cycles." default:"3m" env:"FLOODWATCH_POLL_INTERVAL"`
	FetchTimeout time.Duration `help:"Per-feed fetch timeout." default:"10s" env:"FLOODWATCH_FETCH_TIMEOUT"`

	GuardWindow    time.Duration `help:"Trailing window the rain guard counts alerts in." default:"6h" env:"FLOODWATCH_GUARD_WINDOW"`
	GuardMinAlerts int           `help:"Alerts required inside the guard window for a cycle to run." default:"3" env:"FLOODWATCH_GUARD_MIN_ALERTS"`

	OverlapAlert   int `help:"Alerts inside affected areas beyond which severity is Alert." default:"5" env:"FLOODWATCH_OVERLAP_ALERT"`
	AreasAlert     int `help:"Affected areas beyond which severity is Alert." default:"10" env:"FLOODWATCH_AREAS_ALERT"`
	WazeAttention  int `help:"City-wide flood alerts beyond which severity is Attention." default:"10" env:"FLOODWATCH_WAZE_ATTENTION"`
	CriticalStatus int `help:"Zone status at or above which severity is Critical." default:"3" env:"FLOODWATCH_CRITICAL_STATUS"`
	SpikeThreshold int `help:"Alert-count jump between cycles that logs a spike event." default:"5" env:"FLOODWATCH_SPIKE_THRESHOLD"`

	HistoryWindow int `help:"Entries kept in the in-memory history window." default:"100" env:"FLOODWATCH_HISTORY_WINDOW"`
	EventLog      int `help:"Notable events kept in the in-memory log." default:"50" env:"FLOODWATCH_EVENT_LOG"`

	KafkaBrokers []string `help:"Kafka brokers for notable events. Empty disables the bus." env:"FLOODWATCH_KAFKA_BROKERS"`
	KafkaTopic   string   `help:"Kafka topic for notable events." default:"floodwatch.events" env:"FLOODWATCH_KAFKA_TOPIC"`

	CORSOrigins []string `name:"cors-origins" help:"Origins allowed to call the API. Empty disables CORS." env:"FLOODWATCH_CORS_ORIGINS"`
	StaticDir   string   `help:"Directory of dashboard assets served at the root." env:"FLOODWATCH_STATIC_DIR"`

	LogLevel  string `help:"Log level." enum:"debug,info,warn,error" default:"info" env:"FLOODWATCH_LOG_LEVEL"`
	LogFormat string `help:"Log output format." enum:"text,json" default:"text" env:"FLOODWATCH_LOG_FORMAT"`

	Once   bool `help:"Run a single refresh cycle and exit."`
	NoPoll bool `help:"Disable the poller (server only, for local dev)."`
}

// Validate rejects values that parse fine but make no operational
// sense. kong enforces types and enums; ranges are checked here.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.GuardWindow <= 0 {
		return fmt.Errorf("guard window must be positive, got %s", c.GuardWindow)
	}
	if c.GuardMinAlerts < 0 {
		return fmt.Errorf("guard min alerts must not be negative, got %d", c.GuardMinAlerts)
	}
	if c.OverlapAlert < 0 || c.AreasAlert < 0 || c.WazeAttention < 0 {
		return fmt.Errorf("severity thresholds must not be negative")
	}
	if c.CriticalStatus < flood.LevelAttention || c.CriticalStatus > flood.LevelCritical {
		return fmt.Errorf("critical status must be between %d and %d, got %d",
			flood.LevelAttention, flood.LevelCritical, c.CriticalStatus)
	}
	if c.SpikeThreshold < 1 {
		return fmt.Errorf("spike threshold must be positive, got %d", c.SpikeThreshold)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history window must hold at least one entry, got %d", c.HistoryWindow)
	}
	if c.EventLog < 1 {
		return fmt.Errorf("event log must hold at least one event, got %d", c.EventLog)
	}
	if c.BBoxTop <= c.BBoxBottom {
		return fmt.Errorf("bbox top %v must be north of bottom %v", c.BBoxTop, c.BBoxBottom)
	}
	if c.BBoxRight <= c.BBoxLeft {
		return fmt.Errorf("bbox right %v must be east of left %v", c.BBoxRight, c.BBoxLeft)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic required when brokers are configured")
	}
	return nil
}

// Guard builds the rain guard from the configured window and floor.
func (c *Config) Guard() flood.Guard {
	return flood.Guard{Window: c.GuardWindow, MinAlerts: c.GuardMinAlerts}
}

// Thresholds builds the severity boundaries from the configured values.
func (c *Config) Thresholds() flood.Thresholds {
	return flood.Thresholds{
		OverlapAlert:   c.OverlapAlert,
		AreasAlert:     c.AreasAlert,
		WazeAttention:  c.WazeAttention,
		CriticalStatus: c.CriticalStatus,
	}
}

// BBox builds the hazard search box from the configured edges.
func (c *Config) BBox() feeds.BBox {
	return feeds.BBox{
		Top:    c.BBoxTop,
		Bottom: c.BBoxBottom,
		Left:   c.BBoxLeft,
		Right:  c.BBoxRight,
	}
}
