// Package geo provides the point-in-polygon test used to correlate
// flood alerts with risk zones.
package geo

// Point is a WGS-84 coordinate.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Ring is an ordered sequence of vertices bounding a simple polygon
// area. Vertices follow GeoJSON order: longitude first, then latitude.
// The closing edge from the last vertex back to the first is implied.
type Ring []Point

// PointInRing reports whether the point at (lat, lng) falls inside ring,
// using the standard ray-casting parity test: a horizontal ray cast
// rightward from the point toggles membership each time it crosses an
// edge whose endpoints straddle the point's latitude.
//
// Rings with fewer than 3 vertices never contain anything. Points that
// touch a boundary exactly have an implementation-defined result, a
// known property of the algorithm.
func PointInRing(lat, lng float64, ring Ring) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, yj := ring[i].Lat, ring[j].Lat
		xi, xj := ring[i].Lng, ring[j].Lng

		if (yi > lat) != (yj > lat) {
			// Longitude where the edge crosses the point's latitude.
			x := (xj-xi)*(lat-yi)/(yj-yi) + xi
			if lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
