package usecase

import (
	"bytes"
	"fmt"
	"image/color"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml"

	"github.com/route-freshness/internal/usecase/dto"
)

// Форматы выгрузки тепловой карты
const (
	HeatmapFormatJSON    = "json"
	HeatmapFormatGeoJSON = "geojson"
	HeatmapFormatKML     = "kml"
)

// ExportGeoJSON собирает FeatureCollection: по полигону на ячейку.
// intensity - доля от самой плотной ячейки.
func ExportGeoJSON(cells []dto.HeatCell) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	peak := peakMeters(cells)

	for _, c := range cells {
		f := geojson.NewFeature(cellBound(c).ToPolygon())
		f.Properties["x"] = c.X
		f.Properties["y"] = c.Y
		f.Properties["meters"] = c.Meters
		f.Properties["intensity"] = intensity(c.Meters, peak)
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}

// ExportKML собирает KML-документ с полупрозрачными полигонами ячеек
func ExportKML(name string, cells []dto.HeatCell) ([]byte, error) {
	peak := peakMeters(cells)

	placemarks := make([]kml.Element, 0, len(cells)+1)
	placemarks = append(placemarks, kml.Name(name))

	for _, c := range cells {
		b := cellBound(c)
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(fmt.Sprintf("%d:%d", c.X, c.Y)),
			kml.Description(fmt.Sprintf("%.0f m", c.Meters)),
			kml.Style(
				kml.PolyStyle(
					kml.Color(heatColor(intensity(c.Meters, peak))),
				),
			),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(
							kml.Coordinate{Lon: b.Min.Lon(), Lat: b.Min.Lat()},
							kml.Coordinate{Lon: b.Max.Lon(), Lat: b.Min.Lat()},
							kml.Coordinate{Lon: b.Max.Lon(), Lat: b.Max.Lat()},
							kml.Coordinate{Lon: b.Min.Lon(), Lat: b.Max.Lat()},
							kml.Coordinate{Lon: b.Min.Lon(), Lat: b.Min.Lat()},
						),
					),
				),
			),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(placemarks...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("write kml: %w", err)
	}
	return buf.Bytes(), nil
}

func cellBound(c dto.HeatCell) orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.Bounds[0], c.Bounds[1]},
		Max: orb.Point{c.Bounds[2], c.Bounds[3]},
	}
}

func peakMeters(cells []dto.HeatCell) float64 {
	if len(cells) == 0 {
		return 0
	}
	return slices.MaxFunc(cells, func(a, b dto.HeatCell) int {
		switch {
		case a.Meters < b.Meters:
			return -1
		case a.Meters > b.Meters:
			return 1
		}
		return 0
	}).Meters
}

func intensity(meters, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return meters / peak
}

// heatColor - от жёлтого к красному, прозрачность растёт с плотностью
func heatColor(v float64) color.Color {
	return color.NRGBA{
		R: 255,
		G: uint8(255 * (1 - v)),
		B: 0,
		A: uint8(64 + 160*v),
	}
}
