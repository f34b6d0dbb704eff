package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rafaelq/floodwatch/internal/flood"
	"github.com/rafaelq/floodwatch/internal/geo"
	"github.com/rafaelq/floodwatch/internal/httputil"
)

// GaugesClient reads the rain-gauge telemetry feed. The endpoint has
// been observed serving both a wrapped object ({"stations": [...]}) and
// a bare array, so decoding accepts either.
type GaugesClient struct {
	url    string
	client *http.Client
}

func NewGaugesClient(url string) *GaugesClient {
	return &GaugesClient{
		url:    url,
		client: httputil.NewClient(),
	}
}

// URL reports the upstream endpoint, for the proxy handler.
func (c *GaugesClient) URL() string { return c.url }

// Stations fetches and normalizes the current gauge readings.
func (c *GaugesClient) Stations(ctx context.Context) ([]flood.Station, error) {
	body, err := fetchJSON(ctx, c.client, c.url)
	if err != nil {
		return nil, fmt.Errorf("gauges: %w", err)
	}

	stations, err := decodeStations(body)
	if err != nil {
		return nil, fmt.Errorf("gauges: %w", err)
	}
	return stations, nil
}

type stationJSON struct {
	Name     string    `json:"name"`
	Location pointJSON `json:"location"`
	Rain     struct {
		Min5   *float64 `json:"m05"`
		Min15  *float64 `json:"m15"`
		Hour1  *float64 `json:"h01"`
		Hour2  *float64 `json:"h02"`
		Hour3  *float64 `json:"h03"`
		Hour4  *float64 `json:"h04"`
		Hour24 *float64 `json:"h24"`
		Hour96 *float64 `json:"h96"`
		Month  *float64 `json:"month"`
	} `json:"rain"`
}

func decodeStations(body []byte) ([]flood.Station, error) {
	var raw []stationJSON
	var wrapped struct {
		Stations []stationJSON `json:"stations"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Stations != nil {
		raw = wrapped.Stations
	} else {
		var bare []stationJSON
		if err := json.Unmarshal(body, &bare); err == nil {
			raw = bare
		} else if !json.Valid(body) {
			return nil, fmt.Errorf("decode stations: %w", err)
		}
	}

	stations := make([]flood.Station, 0, len(raw))
	for _, s := range raw {
		st := flood.Station{
			Name:     s.Name,
			Location: geo.Point{Lat: s.Location.Lat, Lng: s.Location.Lng},
			Rain: flood.RainAccumulation{
				Min5:   deref(s.Rain.Min5),
				Min15:  deref(s.Rain.Min15),
				Hour1:  deref(s.Rain.Hour1),
				Hour2:  deref(s.Rain.Hour2),
				Hour3:  deref(s.Rain.Hour3),
				Hour4:  deref(s.Rain.Hour4),
				Hour24: deref(s.Rain.Hour24),
				Hour96: deref(s.Rain.Hour96),
				Month:  deref(s.Rain.Month),
			},
		}
		sanitizeRain(&st.Rain)
		stations = append(stations, st)
	}
	return stations, nil
}

// sanitizeRain clamps negative accumulations to zero. Gauges briefly
// report small negatives after a sensor reset; treat them as no rain.
func sanitizeRain(r *flood.RainAccumulation) {
	for _, v := range []*float64{&r.Min5, &r.Min15, &r.Hour1, &r.Hour2, &r.Hour3, &r.Hour4, &r.Hour24, &r.Hour96, &r.Month} {
		if *v < 0 {
			*v = 0
		}
	}
}
