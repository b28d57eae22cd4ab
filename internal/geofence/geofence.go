package geofence

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

const earthRadiusMeters = 6371000.0

type Point struct {
	Latitude  float64
	Longitude float64
}

// Config is the office geofence: a center point plus an inclusive radius.
// It is read from configuration and never mutated at runtime.
type Config struct {
	Office       Point
	RadiusMeters float64
}

type Result struct {
	IsInOffice     bool    `json:"is_in_office"`
	DistanceMeters float64 `json:"distance_meters"`
}

// ParsePoint parses the wire form "<lat>,<lon>" (decimal degrees, no
// surrounding whitespace inside the parts).
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Point{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Point{}, ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, ErrInvalidCoordinates
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

// Distance is the haversine great-circle distance in meters.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Evaluate classifies p against the configured office. The boundary is
// inclusive: exactly at the radius counts as in office.
func Evaluate(p Point, cfg Config) Result {
	d := Distance(p, cfg.Office)
	return Result{
		IsInOffice:     d <= cfg.RadiusMeters,
		DistanceMeters: d,
	}
}
