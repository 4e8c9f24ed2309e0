package core

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"golang.org/x/sync/errgroup"

	"darkzone_service/internal/domain/model"
)

// PoiJoiner counts, per edge, the amenities of each tag lying strictly inside
// the edge bounding box. It must run after GeoJoiner: edges without bounds
// get zero counts.
type PoiJoiner struct {
	Source AmenitySource
	Place  string
	// Tags defaults to model.AmenityTags.
	Tags []string
	// Workers partitions edges across goroutines. Zero or one runs inline.
	Workers int
}

func (j *PoiJoiner) Name() string { return "poi" }

func (j *PoiJoiner) tags() []string {
	if len(j.Tags) > 0 {
		return j.Tags
	}
	return model.AmenityTags
}

func (j *PoiJoiner) Join(ctx context.Context, f model.Frame) (model.Frame, error) {
	tags := j.tags()
	amenities, err := j.Source.FetchAmenities(ctx, j.Place, tags)
	if err != nil {
		return model.Frame{}, feedError("amenities", err)
	}

	// Distinct edges, keeping the first bounds seen.
	var edgeIDs []string
	boxes := make(map[string]model.Bounds)
	seen := make(map[string]struct{})
	for _, r := range f.Rows {
		if _, ok := seen[r.EdgeID]; ok {
			continue
		}
		seen[r.EdgeID] = struct{}{}
		if b, ok := model.BoundsFromRow(r); ok {
			boxes[r.EdgeID] = b
			edgeIDs = append(edgeIDs, r.EdgeID)
		}
	}

	counts, err := CountAmenities(ctx, edgeIDs, boxes, amenities, tags, j.Workers)
	if err != nil {
		return model.Frame{}, err
	}

	out := f.Clone()
	for _, tag := range tags {
		out.AddColumn(model.Column{Name: tag, Kind: model.Numeric})
	}
	for i := range out.Rows {
		r := &out.Rows[i]
		perTag := counts[r.EdgeID]
		for _, tag := range tags {
			r.Features[tag] = model.Num(float64(perTag[tag]))
		}
	}
	return out, nil
}

type amenityPoint struct {
	model.Amenity
}

func (a amenityPoint) Point() orb.Point { return orb.Point{a.Lon, a.Lat} }

// CountAmenities returns, for every edge, the number of amenities per tag
// strictly inside its box. Amenities with tags outside the list are ignored.
func CountAmenities(
	ctx context.Context,
	edgeIDs []string,
	boxes map[string]model.Bounds,
	amenities []model.Amenity,
	tags []string,
	workers int,
) (map[string]map[string]int, error) {
	wanted := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		wanted[t] = struct{}{}
	}

	var points []orb.Pointer
	var bound orb.Bound
	for _, a := range amenities {
		if _, ok := wanted[a.Tag]; !ok {
			continue
		}
		p := amenityPoint{a}
		if len(points) == 0 {
			bound = orb.Bound{Min: p.Point(), Max: p.Point()}
		} else {
			bound = bound.Extend(p.Point())
		}
		points = append(points, p)
	}

	result := make([]map[string]int, len(edgeIDs))
	if len(points) == 0 {
		return collectCounts(edgeIDs, result), nil
	}

	index := quadtree.New(bound.Pad(1e-9))
	for _, p := range points {
		if err := index.Add(p); err != nil {
			return nil, err
		}
	}

	count := func(i int) {
		b := boxes[edgeIDs[i]]
		query := orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
		perTag := make(map[string]int)
		for _, ptr := range index.InBound(nil, query) {
			a := ptr.(amenityPoint)
			if b.ContainsStrict(a.Lat, a.Lon) {
				perTag[a.Tag]++
			}
		}
		result[i] = perTag
	}

	if workers <= 1 {
		for i := range edgeIDs {
			count(i)
		}
		return collectCounts(edgeIDs, result), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range edgeIDs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			count(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collectCounts(edgeIDs, result), nil
}

func collectCounts(edgeIDs []string, result []map[string]int) map[string]map[string]int {
	out := make(map[string]map[string]int, len(edgeIDs))
	for i, id := range edgeIDs {
		if result[i] == nil {
			out[id] = map[string]int{}
			continue
		}
		out[id] = result[i]
	}
	return out
}
