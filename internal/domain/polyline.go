package domain

import (
	"fmt"

	"github.com/twpayne/go-polyline"
)

// EncodePolyline кодирует точки маршрута в Google encoded polyline (точность 1e-5)
func EncodePolyline(points []RoutePoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline разбирает encoded polyline. Хвост, который не удалось
// разобрать, считается ошибкой.
func DecodePolyline(encoded string) ([]RoutePoint, error) {
	if encoded == "" {
		return nil, nil
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	points := make([]RoutePoint, len(coords))
	for i, c := range coords {
		points[i] = RoutePoint{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
