// Package geo implements the _geoRadius/_geoBoundingBox predicates and
// geo-sort distance of spec §6/§4.5. Like internal/vector, this stays on
// stdlib math: no geo library appears anywhere in the retrieval pack, and
// haversine distance plus a bounding-box containment check are a few lines
// each (see DESIGN.md).
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6372797.560856

// Point is a (lat, lng) pair in degrees.
type Point struct {
	Lat, Lng float64
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// InRadius reports whether point lies within radiusMeters of center
// (spec §6 "_geoRadius(lat, lng, radius)").
func InRadius(point, center Point, radiusMeters float64) bool {
	return DistanceMeters(point, center) <= radiusMeters
}

// BoundingBox is the [topLeft, bottomRight] rectangle of
// "_geoBoundingBox([lat1,lng1],[lat2,lng2])"; top-left has the greater
// latitude and lesser longitude than bottom-right in the common case, but
// Contains normalizes so callers don't have to.
type BoundingBox struct {
	TopLeft, BottomRight Point
}

// Contains reports whether p falls inside the (normalized) box.
func (b BoundingBox) Contains(p Point) bool {
	latMin, latMax := minmax(b.TopLeft.Lat, b.BottomRight.Lat)
	lngMin, lngMax := minmax(b.TopLeft.Lng, b.BottomRight.Lng)
	return p.Lat >= latMin && p.Lat <= latMax && p.Lng >= lngMin && p.Lng <= lngMax
}

func minmax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}
