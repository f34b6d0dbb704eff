package flood

import (
	"math"

	"github.com/rafaelq/floodwatch/internal/geo"
)

// ComputeMetrics derives one cycle's flood metrics and rain summary
// from the three fetched collections.
//
// WazeFloodCount is simply the alert count: filtering to the flood
// subtype is the hazard client's job, a precondition here.
// AlertsInAreasCount tests each located alert against the outer ring of
// every affected polygon and counts the alert at most once, however
// many zones contain it. With no affected zones the alerts are never
// scanned.
func ComputeMetrics(stations []Station, polygons []Polygon, alerts []Alert) (Metrics, RainSummary) {
	m := Metrics{WazeFloodCount: len(alerts)}

	var affectedRings []geo.Ring
	for _, p := range polygons {
		if !p.Affected() {
			continue
		}
		m.AffectedAreaCount++
		if ring := p.OuterRing(); len(ring) > 0 {
			affectedRings = append(affectedRings, ring)
		}
	}

	if len(affectedRings) > 0 {
		for _, a := range alerts {
			if a.Location == nil {
				continue
			}
			for _, ring := range affectedRings {
				if geo.PointInRing(a.Location.Lat, a.Location.Lng, ring) {
					m.AlertsInAreasCount++
					break
				}
			}
		}
	}

	return m, summarizeRain(stations)
}

func summarizeRain(stations []Station) RainSummary {
	var s RainSummary
	if len(stations) == 0 {
		return s
	}

	var sum float64
	for _, st := range stations {
		h1 := st.Rain.Hour1
		sum += h1
		if h1 > s.Max {
			s.Max = h1
		}
		if h1 > 0 {
			s.ActiveStations++
		}
	}
	s.Avg = round2(sum / float64(len(stations)))
	return s
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
