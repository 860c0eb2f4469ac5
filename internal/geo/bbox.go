// Package geo holds the bounding-box parsing and distance helpers
// used by the report queries.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/citypulse/incident-api/internal/apperr"
)

// Envelope is an axis-aligned rectangle in longitude/latitude space
// with min <= max guaranteed on both axes.
type Envelope struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// ParseBbox parses "minLng,minLat,maxLng,maxLat" into a canonical
// Envelope. Tokens are trimmed; reversed axes are swapped rather than
// rejected. Values outside real-world lat/lng ranges are permitted —
// they simply match nothing.
func ParseBbox(s string) (Envelope, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Envelope{}, apperr.InvalidArgument("bbox must be four comma-separated numbers: minLng,minLat,maxLng,maxLat")
	}

	var vals [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Envelope{}, apperr.InvalidArgument("bbox values must be finite decimal numbers")
		}
		vals[i] = f
	}

	env := Envelope{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if env.MinLng > env.MaxLng {
		env.MinLng, env.MaxLng = env.MaxLng, env.MinLng
	}
	if env.MinLat > env.MaxLat {
		env.MinLat, env.MaxLat = env.MaxLat, env.MinLat
	}
	return env, nil
}

// Contains reports whether the point intersects the envelope,
// boundary inclusive.
func (e Envelope) Contains(lng, lat float64) bool {
	return lng >= e.MinLng && lng <= e.MaxLng &&
		lat >= e.MinLat && lat <= e.MaxLat
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between
// two WGS84 points.
func HaversineKm(lng1, lat1, lng2, lat2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundsAround returns an envelope that encloses the circle of
// radiusKm around the point. It is a coarse prefilter; callers refine
// candidates with HaversineKm.
func BoundsAround(lng, lat, radiusKm float64) Envelope {
	dLat := radiusKm / 110.574
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLng := radiusKm / (111.320 * cosLat)
	return Envelope{
		MinLng: lng - dLng,
		MinLat: lat - dLat,
		MaxLng: lng + dLng,
		MaxLat: lat + dLat,
	}
}
