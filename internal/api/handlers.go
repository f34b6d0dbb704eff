package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rafaelq/floodwatch/internal/flood"
	"github.com/rafaelq/floodwatch/internal/ingest"
)

// maxReadLimit caps caller-supplied limits on the read endpoints.
const maxReadLimit = 1000

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestEntry(r.Context())
	if err != nil {
		s.logger.Error("health store probe", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  "store unreachable",
		})
		return
	}

	snap := s.refresher.LastSnapshot()
	if snap == nil {
		resp := map[string]any{"status": "starting"}
		if latest != nil {
			resp["last_persisted_at"] = latest.CapturedAt
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// Three missed cycles means the poller is wedged or the feeds have
	// been failing long enough to matter.
	staleAfter := 3 * s.intervals.Interval()
	age := time.Since(snap.CapturedAt)

	status := "ok"
	code := http.StatusOK
	if age > staleAfter {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":           status,
		"last_snapshot_at": snap.CapturedAt,
		"age_seconds":      int(age.Seconds()),
		"skipped":          snap.Skipped,
		"severity":         snap.Severity.Label,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.refresher.LastSnapshot()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := readLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.store.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("read history", "error", err)
		writeError(w, http.StatusInternalServerError, "read history")
		return
	}
	if entries == nil {
		entries = []flood.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := readLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.store.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("read events", "error", err)
		writeError(w, http.StatusInternalServerError, "read events")
		return
	}
	if events == nil {
		events = []flood.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type summaryResponse struct {
	CapturedAt     time.Time      `json:"captured_at"`
	Severity       flood.Severity `json:"severity"`
	Metrics        flood.Metrics  `json:"metrics"`
	AvgRain        string         `json:"avg_rain"`
	MaxRain        string         `json:"max_rain"`
	ActiveStations int            `json:"active_stations"`
	Skipped        bool           `json:"skipped"`
	SkipReason     string         `json:"skip_reason,omitempty"`
	PollInterval   string         `json:"poll_interval"`
	RecentEvents   []flood.Event  `json:"recent_events"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.refresher.LastSnapshot()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}

	events, err := s.store.RecentEvents(r.Context(), 5)
	if err != nil {
		s.logger.Error("read events for summary", "error", err)
		events = nil
	}
	if events == nil {
		events = []flood.Event{}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		CapturedAt: snap.CapturedAt,
		Severity:   snap.Severity,
		Metrics:    snap.Metrics,
		// Rainfall shows one decimal place; the store keeps two.
		AvgRain:        fmt.Sprintf("%.1f", snap.Rain.Avg),
		MaxRain:        fmt.Sprintf("%.1f", snap.Rain.Max),
		ActiveStations: snap.Rain.ActiveStations,
		Skipped:        snap.Skipped,
		SkipReason:     snap.SkipReason,
		PollInterval:   s.intervals.Interval().String(),
		RecentEvents:   events,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.refresher.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrPersist) {
			// The cycle computed fine; only the write failed. Hand the
			// snapshot over and report the failure alongside it.
			writeJSON(w, http.StatusOK, map[string]any{
				"snapshot":      snap,
				"persist_error": err.Error(),
			})
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": snap})
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	d, err := time.ParseDuration(req.Interval)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interval: "+req.Interval)
		return
	}
	if err := s.intervals.SetInterval(d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("poll interval changed via api", "interval", d)
	writeJSON(w, http.StatusOK, map[string]string{"interval": d.String()})
}

// readLimit parses the optional ?limit query parameter. Zero means
// "use the store default"; anything above maxReadLimit is clamped.
func readLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxReadLimit {
		limit = maxReadLimit
	}
	return limit, nil
}
