package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"darkzone_service/internal/domain/model"
)

// EdgeFileRepository loads the edge geometry feed from a GeoJSON
// FeatureCollection, one feature per street edge.
type EdgeFileRepository struct {
	path string
}

func NewEdgeFileRepository(path string) *EdgeFileRepository {
	return &EdgeFileRepository{path: path}
}

func (r *EdgeFileRepository) LoadEdges(ctx context.Context) ([]model.EdgeGeometry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return ParseEdges(data)
}

// ParseEdges decodes the feature collection. The edge ID is the feature ID,
// or the "id" property when the feature has none. Length comes from the
// "length" property, else the haversine length of the geometry. The box
// comes from the feature bbox, else the geometry bound. Features exported
// without geometry may carry it as an encoded "polyline" property.
func ParseEdges(data []byte) ([]model.EdgeGeometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode edges: %w", err)
	}

	edges := make([]model.EdgeGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := edgeID(f)
		if id == "" {
			return nil, fmt.Errorf("edge feature %d has no id", i)
		}
		if f.Geometry == nil {
			if encoded, ok := f.Properties["polyline"].(string); ok && encoded != "" {
				line, err := decodePolyline(encoded)
				if err != nil {
					return nil, fmt.Errorf("edge %s: %w", id, err)
				}
				f.Geometry = line
			}
		}

		var minLon, minLat, maxLon, maxLat float64
		switch {
		case len(f.BBox) >= 4:
			minLon, minLat, maxLon, maxLat = f.BBox[0], f.BBox[1], f.BBox[2], f.BBox[3]
		case f.Geometry != nil:
			b := f.Geometry.Bound()
			minLon, minLat, maxLon, maxLat = b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()
		default:
			return nil, fmt.Errorf("edge %s has neither bbox nor geometry", id)
		}

		length, ok := numberProperty(f.Properties, "length")
		if !ok && f.Geometry != nil {
			length = geo.LengthHaversine(f.Geometry)
		}

		edges = append(edges, model.EdgeGeometry{
			EdgeID: id,
			Bounds: model.NormalizeBounds(minLat, maxLat, minLon, maxLon),
			Length: length,
		})
	}
	return edges, nil
}

// decodePolyline decodes a Google encoded polyline of (lat, lon) pairs.
func decodePolyline(encoded string) (orb.LineString, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		line[i] = orb.Point{c[1], c[0]}
	}
	return line, nil
}

func edgeID(f *geojson.Feature) string {
	if id := scalarString(f.ID); id != "" {
		return id
	}
	return scalarString(f.Properties["id"])
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func numberProperty(p geojson.Properties, key string) (float64, bool) {
	switch t := p[key].(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
