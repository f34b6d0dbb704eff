package geo

import "testing"

// Unit square around the origin, counter-clockwise.
func unitSquare() Ring {
	return Ring{
		{Lng: -1, Lat: -1},
		{Lng: 1, Lat: -1},
		{Lng: 1, Lat: 1},
		{Lng: -1, Lat: 1},
	}
}

func TestPointInRing(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		ring Ring
		want bool
	}{
		{"center of square", 0, 0, unitSquare(), true},
		{"inside near corner", 0.9, 0.9, unitSquare(), true},
		{"outside right", 0, 2, unitSquare(), false},
		{"outside above", 2, 0, unitSquare(), false},
		{"far outside bounding box", 50, 50, unitSquare(), false},
		{"empty ring", 0, 0, Ring{}, false},
		{"single vertex", 0, 0, Ring{{Lng: 0, Lat: 0}}, false},
		{"two vertices", 0, 0, Ring{{Lng: -1, Lat: -1}, {Lng: 1, Lat: 1}}, false},
		{
			"concave ring, point in notch",
			0.5, 0,
			// U shape opening upward; (0, 0.5) sits in the notch.
			Ring{
				{Lng: -1, Lat: -1}, {Lng: 1, Lat: -1}, {Lng: 1, Lat: 1},
				{Lng: 0.5, Lat: 1}, {Lng: 0.5, Lat: 0}, {Lng: -0.5, Lat: 0},
				{Lng: -0.5, Lat: 1}, {Lng: -1, Lat: 1},
			},
			false,
		},
		{
			"concave ring, point in arm",
			0.5, 0.75,
			Ring{
				{Lng: -1, Lat: -1}, {Lng: 1, Lat: -1}, {Lng: 1, Lat: 1},
				{Lng: 0.5, Lat: 1}, {Lng: 0.5, Lat: 0}, {Lng: -0.5, Lat: 0},
				{Lng: -0.5, Lat: 1}, {Lng: -1, Lat: 1},
			},
			true,
		},
		{
			"real-world coordinates",
			-22.95, -43.20,
			Ring{
				{Lng: -43.3, Lat: -23.0},
				{Lng: -43.1, Lat: -23.0},
				{Lng: -43.1, Lat: -22.9},
				{Lng: -43.3, Lat: -22.9},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointInRing(tt.lat, tt.lng, tt.ring)
			if got != tt.want {
				t.Errorf("PointInRing(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}

// Rotating the starting vertex never changes the result: the wrap-around
// edge set is identical for every rotation.
func TestPointInRing_RotationInvariance(t *testing.T) {
	ring := Ring{
		{Lng: -43.40, Lat: -23.05},
		{Lng: -43.10, Lat: -23.02},
		{Lng: -43.05, Lat: -22.85},
		{Lng: -43.25, Lat: -22.78},
		{Lng: -43.45, Lat: -22.90},
	}
	points := []struct {
		lat, lng float64
	}{
		{-22.92, -43.25}, // inside
		{-22.50, -43.25}, // outside, north
		{-23.30, -43.25}, // outside, south
		{-22.92, -42.00}, // outside, east
	}

	for _, p := range points {
		want := PointInRing(p.lat, p.lng, ring)
		for shift := 1; shift < len(ring); shift++ {
			rotated := make(Ring, 0, len(ring))
			rotated = append(rotated, ring[shift:]...)
			rotated = append(rotated, ring[:shift]...)
			if got := PointInRing(p.lat, p.lng, rotated); got != want {
				t.Errorf("rotation %d changed result for (%v, %v): got %v, want %v",
					shift, p.lat, p.lng, got, want)
			}
		}
	}
}

// The centroid of a convex ring is always inside; a point well beyond
// the bounding box is always outside.
func TestPointInRing_ConvexCentroid(t *testing.T) {
	rings := []Ring{
		unitSquare(),
		{{Lng: 0, Lat: 0}, {Lng: 4, Lat: 0}, {Lng: 2, Lat: 3}},                               // triangle
		{{Lng: 0, Lat: -2}, {Lng: 2, Lat: 0}, {Lng: 0, Lat: 2}, {Lng: -2, Lat: 0}},           // diamond
		{{Lng: 10, Lat: 10}, {Lng: 14, Lat: 10}, {Lng: 15, Lat: 13}, {Lng: 12, Lat: 15}, {Lng: 9, Lat: 13}}, // pentagon
	}

	for i, ring := range rings {
		var sumLat, sumLng float64
		for _, v := range ring {
			sumLat += v.Lat
			sumLng += v.Lng
		}
		cLat := sumLat / float64(len(ring))
		cLng := sumLng / float64(len(ring))

		if !PointInRing(cLat, cLng, ring) {
			t.Errorf("ring %d: centroid (%v, %v) not inside", i, cLat, cLng)
		}
		if PointInRing(cLat+1000, cLng+1000, ring) {
			t.Errorf("ring %d: far point unexpectedly inside", i)
		}
	}
}
