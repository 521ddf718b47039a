// Package gpx читает и пишет маршруты в формате GPX.
package gpx

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/route-freshness/internal/domain"
)

var (
	ErrNoPoints = errors.New("gpx document has no track or route points")
)

// Parse читает GPX и собирает один маршрут: все сегменты всех треков по порядку.
// Если треков нет, используются <rte>. Производные поля маршрута вычисляются сразу.
func Parse(r io.Reader, fallbackName string) (*domain.Route, error) {
	doc, err := gpxgo.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	route := &domain.Route{
		ID:     uuid.New(),
		Name:   pickName(doc, fallbackName),
		Source: domain.RouteSourceGPX,
	}

	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				route.Points = append(route.Points, toRoutePoint(p))
			}
		}
	}

	if len(route.Points) == 0 {
		for _, rte := range doc.Routes {
			for _, p := range rte.Points {
				route.Points = append(route.Points, toRoutePoint(p))
			}
		}
	}

	if len(route.Points) == 0 {
		return nil, ErrNoPoints
	}

	if err := route.Validate(); err != nil {
		return nil, err
	}
	route.ComputeDerived()

	return route, nil
}

// Encode сериализует маршрут в GPX 1.1 с одним треком
func Encode(route *domain.Route) ([]byte, error) {
	segment := gpxgo.GPXTrackSegment{
		Points: make([]gpxgo.GPXPoint, 0, len(route.Points)),
	}
	for _, p := range route.Points {
		point := gpxgo.GPXPoint{
			Point: gpxgo.Point{
				Latitude:  p.Lat,
				Longitude: p.Lon,
			},
		}
		if p.Elevation != nil {
			point.Elevation = *gpxgo.NewNullableFloat64(*p.Elevation)
		}
		segment.Points = append(segment.Points, point)
	}

	doc := &gpxgo.GPX{
		Name:    route.Name,
		Creator: "route-freshness",
		Tracks: []gpxgo.GPXTrack{{
			Name:     route.Name,
			Segments: []gpxgo.GPXTrackSegment{segment},
		}},
	}

	data, err := doc.ToXml(gpxgo.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

func toRoutePoint(p gpxgo.GPXPoint) domain.RoutePoint {
	rp := domain.RoutePoint{Lat: p.Latitude, Lon: p.Longitude}
	if p.Elevation.NotNull() {
		e := p.Elevation.Value()
		rp.Elevation = &e
	}
	return rp
}

func pickName(doc *gpxgo.GPX, fallback string) string {
	candidates := []string{doc.Name}
	for _, t := range doc.Tracks {
		candidates = append(candidates, t.Name)
	}
	for _, r := range doc.Routes {
		candidates = append(candidates, r.Name)
	}
	candidates = append(candidates, strings.TrimSuffix(fallback, ".gpx"))

	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return "Untitled route"
}
