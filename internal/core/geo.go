package core

import (
	"context"

	"darkzone_service/internal/domain/model"
)

// GeoJoiner left-joins edge bounding boxes and lengths by edge id. Edges
// missing from the feed get null geographic features.
type GeoJoiner struct {
	Source EdgeGeometrySource
}

func (j *GeoJoiner) Name() string { return "geographic" }

func (j *GeoJoiner) Join(ctx context.Context, f model.Frame) (model.Frame, error) {
	edges, err := j.Source.LoadEdges(ctx)
	if err != nil {
		return model.Frame{}, feedError("edge geometry", err)
	}
	byID := make(map[string]model.EdgeGeometry, len(edges))
	for _, e := range edges {
		if _, dup := byID[e.EdgeID]; !dup {
			byID[e.EdgeID] = e
		}
	}

	out := f.Clone()
	for _, name := range model.GeoColumns {
		out.AddColumn(model.Column{Name: name, Kind: model.Numeric})
	}
	for i := range out.Rows {
		r := &out.Rows[i]
		e, ok := byID[r.EdgeID]
		if !ok {
			for _, name := range model.GeoColumns {
				r.Features[name] = model.Null
			}
			continue
		}
		r.Features[model.ColLatNorth] = model.Num(e.Bounds.North)
		r.Features[model.ColLatSouth] = model.Num(e.Bounds.South)
		r.Features[model.ColLonEast] = model.Num(e.Bounds.East)
		r.Features[model.ColLonWest] = model.Num(e.Bounds.West)
		r.Features[model.ColEdgeLength] = model.Num(e.Length)
	}
	return out, nil
}
