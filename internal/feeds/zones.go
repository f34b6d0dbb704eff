package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rafaelq/floodwatch/internal/flood"
	"github.com/rafaelq/floodwatch/internal/geo"
	"github.com/rafaelq/floodwatch/internal/htmlutil"
	"github.com/rafaelq/floodwatch/internal/httputil"
)

// ZonesClient reads the flood risk-zone feed, a GeoJSON-flavored
// collection of polygons with a 0-3 flood status in the properties.
type ZonesClient struct {
	url    string
	client *http.Client
}

func NewZonesClient(url string) *ZonesClient {
	return &ZonesClient{
		url:    url,
		client: httputil.NewClient(),
	}
}

// URL reports the upstream endpoint, for the proxy handler.
func (c *ZonesClient) URL() string { return c.url }

// Zones fetches and normalizes the current risk polygons.
func (c *ZonesClient) Zones(ctx context.Context) ([]flood.Polygon, error) {
	body, err := fetchJSON(ctx, c.client, c.url)
	if err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}

	zones, err := decodeZones(body)
	if err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}
	return zones, nil
}

type zoneFeature struct {
	ID         flexString `json:"id"`
	Properties struct {
		Title       string     `json:"title"`
		Status      *int       `json:"status"`
		StatusName  string     `json:"status_name"`
		AreaKM2     *float64   `json:"area_km2"`
		RainLastH   *float64   `json:"rain_1h"`
		FloodAlerts *int       `json:"flood_alerts"`
		Centroid    *pointJSON `json:"centroid"`
	} `json:"properties"`
	Geometry struct {
		Coordinates ringSet `json:"coordinates"`
	} `json:"geometry"`
}

// ringSet decodes GeoJSON Polygon ([][][2]float) or MultiPolygon
// ([][][][2]float) coordinates into a flat list of rings. Coordinates
// the feed serves in any other shape decode to nil rather than failing
// the whole feature collection.
type ringSet []geo.Ring

func (r *ringSet) UnmarshalJSON(data []byte) error {
	var polygon [][][]float64
	if err := json.Unmarshal(data, &polygon); err == nil {
		*r = ringsFromPairs(polygon)
		return nil
	}

	var multi [][][][]float64
	if err := json.Unmarshal(data, &multi); err == nil {
		var rings []geo.Ring
		for _, poly := range multi {
			rings = append(rings, ringsFromPairs(poly)...)
		}
		*r = rings
		return nil
	}

	*r = nil
	return nil
}

func ringsFromPairs(polygon [][][]float64) []geo.Ring {
	var rings []geo.Ring
	for _, rawRing := range polygon {
		ring := make(geo.Ring, 0, len(rawRing))
		for _, pair := range rawRing {
			if len(pair) < 2 {
				continue
			}
			// GeoJSON order: [lng, lat]
			ring = append(ring, geo.Point{Lng: pair[0], Lat: pair[1]})
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
	}
	return rings
}

func decodeZones(body []byte) ([]flood.Polygon, error) {
	var resp struct {
		Features []zoneFeature `json:"features"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode zones: %w", err)
		}
		return []flood.Polygon{}, nil
	}

	zones := make([]flood.Polygon, 0, len(resp.Features))
	for _, f := range resp.Features {
		status := clampStatus(derefInt(f.Properties.Status))

		name := htmlutil.ToText(f.Properties.StatusName)
		if name == "" {
			name = flood.LabelFor(status)
		}

		var centroid geo.Point
		if c := f.Properties.Centroid; c != nil {
			centroid = geo.Point{Lat: c.Lat, Lng: c.Lng}
		}

		zones = append(zones, flood.Polygon{
			ID:             string(f.ID),
			Title:          htmlutil.ToText(f.Properties.Title),
			Status:         status,
			StatusName:     name,
			Rings:          f.Geometry.Coordinates,
			Centroid:       centroid,
			AreaKM2:        deref(f.Properties.AreaKM2),
			RainLastHour:   deref(f.Properties.RainLastH),
			ReportedAlerts: derefInt(f.Properties.FloodAlerts),
		})
	}
	return zones, nil
}

func clampStatus(status int) int {
	switch {
	case status < flood.LevelNormal:
		return flood.LevelNormal
	case status > flood.LevelCritical:
		return flood.LevelCritical
	default:
		return status
	}
}
