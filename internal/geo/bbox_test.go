package geo

import (
	"math"
	"testing"
)

func inBox(lat, lon, minLat, maxLat, minLon, maxLon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

func TestBoundingBoxIncludesCenter(t *testing.T) {
	// Harare city centre.
	lat, lon := -17.8292, 31.0522
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, 10)

	if !inBox(lat, lon, minLat, maxLat, minLon, maxLon) {
		t.Fatal("center point must always fall inside its own box")
	}
	if minLat >= maxLat || minLon >= maxLon {
		t.Fatal("box must have positive extent")
	}
}

func TestBoundingBoxCardinalCutoff(t *testing.T) {
	lat, lon := -17.8292, 31.0522
	radius := 10.0
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, radius)

	// A point just inside the radius due north is included.
	nearNorth := lat + (radius*0.99)/kmPerDegreeLat
	if !inBox(nearNorth, lon, minLat, maxLat, minLon, maxLon) {
		t.Error("point just inside the radius due north should be in the box")
	}

	// A point past the radius due north is excluded.
	farNorth := lat + (radius*1.01)/kmPerDegreeLat
	if inBox(farNorth, lon, minLat, maxLat, minLon, maxLon) {
		t.Error("point past the radius due north should be outside the box")
	}
}

// The box is square in scaled degrees, so a corner point whose great-circle
// distance exceeds the radius still passes the pre-filter. That overshoot is
// the accepted cost of skipping exact distance math.
func TestBoundingBoxCornerOvershoot(t *testing.T) {
	lat, lon := -17.8292, 31.0522
	radius := 10.0
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, radius)

	cornerLat := lat + (radius*0.95)/kmPerDegreeLat
	cosLat := math.Abs(math.Cos(lat * math.Pi / 180))
	cornerLon := lon + (radius*0.95)/(kmPerDegreeLat*cosLat)

	if !inBox(cornerLat, cornerLon, minLat, maxLat, minLon, maxLon) {
		t.Error("corner point should pass the pre-filter even though its true distance exceeds the radius")
	}
}

func TestBoundingBoxLongitudeWidensWithLatitude(t *testing.T) {
	_, _, eqMinLon, eqMaxLon := BoundingBox(0, 30, 10)
	_, _, noMinLon, noMaxLon := BoundingBox(60, 30, 10)

	if (noMaxLon - noMinLon) <= (eqMaxLon - eqMinLon) {
		t.Error("longitude span should widen as latitude moves away from the equator")
	}
}

func TestBoundingBoxPoleFloor(t *testing.T) {
	minLat, maxLat, minLon, maxLon := BoundingBox(89.9, 0, 10)

	// cos(89.9°) ≈ 0.0017 is below the 0.01 floor, so the span is capped at
	// radius / (111 * 0.01) degrees instead of blowing up.
	wantSpan := 2 * 10.0 / (kmPerDegreeLat * 0.01)
	gotSpan := maxLon - minLon
	if math.Abs(gotSpan-wantSpan) > 1e-9 {
		t.Errorf("longitude span at the pole: got %f, want %f", gotSpan, wantSpan)
	}
	if minLat >= maxLat {
		t.Error("latitude extent should be unaffected by the floor")
	}
}
