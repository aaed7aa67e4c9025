package geo

import "math"

const kmPerDegreeLat = 111.0

// BoundingBox returns an equirectangular box around the center point. The
// longitude delta is widened by the cosine of the latitude, floored at 0.01
// so the division stays bounded near the poles. The box is a pre-filter:
// points near its corners can exceed the nominal radius by up to ~41%.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := radiusKm / kmPerDegreeLat

	cosLat := math.Abs(math.Cos(lat * math.Pi / 180))
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDelta := radiusKm / (kmPerDegreeLat * cosLat)

	return lat - latDelta, lat + latDelta, lon - lonDelta, lon + lonDelta
}
