package tools

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"tabi/internal/models/response_models"
)

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two points.
func haversineKm(a, b response_models.LatLng) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func decodePolyline(encoded string) ([]response_models.LatLng, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	out := make([]response_models.LatLng, len(coords))
	for i, c := range coords {
		out[i] = response_models.LatLng{Lat: c[0], Lng: c[1]}
	}
	return out, nil
}

// samplePoints keeps roughly one point every spacingKm of a route totalKm long.
func samplePoints(points []response_models.LatLng, totalKm, spacingKm float64) []response_models.LatLng {
	if len(points) == 0 {
		return nil
	}
	step := len(points) / max(1, int(totalKm/spacingKm))
	step = max(1, step)
	out := make([]response_models.LatLng, 0, len(points)/step+1)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	return out
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
