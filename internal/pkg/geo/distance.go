// Package geo содержит сферические примитивы расстояния, общие для сетки и загрузчиков маршрутов.
package geo

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters - средний радиус Земли, используемый во всех расчётах расстояний
const EarthRadiusMeters = 6371000.0

// LatLon - точка в градусах
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance возвращает расстояние по большому кругу в метрах (haversine на сфере R = 6 371 000 м).
// Функция симметрична и возвращает 0 для совпадающих точек.
func Distance(latA, lonA, latB, lonB float64) float64 {
	a := s2.LatLngFromDegrees(latA, lonA)
	b := s2.LatLngFromDegrees(latB, lonB)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// Midpoint - арифметическое среднее координат, не геодезическая середина.
// На масштабе сегментов GPS-трека разница несущественна.
func Midpoint(latA, lonA, latB, lonB float64) LatLon {
	return LatLon{
		Lat: (latA + latB) / 2,
		Lon: (lonA + lonB) / 2,
	}
}
