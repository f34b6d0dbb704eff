package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rafaelq/floodwatch/internal/flood"
	"github.com/rafaelq/floodwatch/internal/geo"
	"github.com/rafaelq/floodwatch/internal/httputil"
)

// SubtypeFlood is the Waze alert subtype this service cares about;
// everything else in the hazard feed is dropped.
const SubtypeFlood = "HAZARD_WEATHER_FLOOD"

// BBox is the geographic window passed to the hazard feed.
type BBox struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// HazardsClient reads crowd-sourced flood alerts from the Waze georss
// endpoint. Fetches are single-shot: the orchestrator degrades to an
// empty alert set when this feed fails, so there is nothing to gain
// from retrying here.
type HazardsClient struct {
	url    string
	bbox   BBox
	client *http.Client
}

func NewHazardsClient(rawURL string, bbox BBox) *HazardsClient {
	return &HazardsClient{
		url:    rawURL,
		bbox:   bbox,
		client: httputil.NewClient(),
	}
}

// URL reports the fully parameterized upstream URL, for the proxy
// handler.
func (c *HazardsClient) URL() string { return c.requestURL() }

func (c *HazardsClient) requestURL() string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}

	q := u.Query()
	q.Set("top", formatCoord(c.bbox.Top))
	q.Set("bottom", formatCoord(c.bbox.Bottom))
	q.Set("left", formatCoord(c.bbox.Left))
	q.Set("right", formatCoord(c.bbox.Right))
	q.Set("types", "alerts")
	u.RawQuery = q.Encode()
	return u.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FloodAlerts fetches the hazard feed and returns the flood alerts in
// the configured bounding box, deduplicated by id.
func (c *HazardsClient) FloodAlerts(ctx context.Context) ([]flood.Alert, error) {
	body, err := getJSON(ctx, c.client, c.requestURL())
	if err != nil {
		return nil, fmt.Errorf("hazards: %w", err)
	}

	alerts, err := decodeFloodAlerts(body)
	if err != nil {
		return nil, fmt.Errorf("hazards: %w", err)
	}
	return alerts, nil
}

type wazePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wazeAlert struct {
	UUID        flexString `json:"uuid"`
	ID          flexString `json:"id"`
	Type        string     `json:"type"`
	Subtype     string     `json:"subtype"`
	Location    *wazePoint `json:"location"`
	PubMillis   int64      `json:"pubMillis"`
	Reliability int        `json:"reliability"`
	Confidence  int        `json:"confidence"`
}

func decodeFloodAlerts(body []byte) ([]flood.Alert, error) {
	var resp struct {
		Alerts []wazeAlert `json:"alerts"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode alerts: %w", err)
		}
		return []flood.Alert{}, nil
	}

	alerts := make([]flood.Alert, 0, len(resp.Alerts))
	seen := make(map[string]bool)
	for _, a := range resp.Alerts {
		if a.Subtype != SubtypeFlood {
			continue
		}

		id := string(a.UUID)
		if id == "" {
			id = string(a.ID)
		}
		if id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}

		alert := flood.Alert{
			ID:          id,
			Subtype:     a.Subtype,
			Reliability: a.Reliability,
			Confidence:  a.Confidence,
		}
		if a.PubMillis > 0 {
			alert.PublishedAt = time.UnixMilli(a.PubMillis).UTC()
		}
		if a.Location != nil {
			alert.Location = &geo.Point{Lng: a.Location.X, Lat: a.Location.Y}
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
