package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/rafaelq/floodwatch/internal/api"
	"github.com/rafaelq/floodwatch/internal/bus"
	"github.com/rafaelq/floodwatch/internal/config"
	"github.com/rafaelq/floodwatch/internal/feeds"
	"github.com/rafaelq/floodwatch/internal/ingest"
	"github.com/rafaelq/floodwatch/internal/store"
)

func main() {
	var cfg config.Config
	kong.Parse(&cfg,
		kong.Name("floodwatch"),
		kong.Description("Flood monitor for Rio de Janeiro: fuses rain gauge telemetry, flood risk zones, and Waze flood reports into a rolling severity assessment."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env", ".env.local"),
		kong.Vars{"default_waze_url": config.DefaultWazeURL},
	)

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		logger.Error("migrate database", "error", err)
		os.Exit(1)
	}

	gauges := feeds.NewGaugesClient(cfg.GaugesURL)
	zones := feeds.NewZonesClient(cfg.ZonesURL)
	hazards := feeds.NewHazardsClient(cfg.WazeURL, cfg.BBox())

	orch := ingest.NewOrchestrator(gauges, zones, hazards, st, ingest.Config{
		Guard:          cfg.Guard(),
		Thresholds:     cfg.Thresholds(),
		FetchTimeout:   cfg.FetchTimeout,
		WindowSize:     cfg.HistoryWindow,
		EventLogSize:   cfg.EventLog,
		SpikeThreshold: cfg.SpikeThreshold,
	}, logger)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := bus.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		orch.SetPublisher(publisher)
		logger.Info("event bus enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Once {
		logger.Info("running single refresh cycle")
		if _, err := orch.Refresh(ctx); err != nil {
			logger.Error("refresh", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler := ingest.NewScheduler(orch, cfg.PollInterval, logger)

	srv := api.NewServer(orch, st, scheduler, api.Options{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.CORSOrigins,
		StaticDir:      cfg.StaticDir,
		Proxies: map[string]string{
			"gauges":  gauges.URL(),
			"zones":   zones.URL(),
			"hazards": hazards.URL(),
		},
	}, logger)

	if !cfg.NoPoll {
		go scheduler.Run(ctx)
	} else {
		logger.Info("polling disabled (--no-poll)")
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server", "error", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
