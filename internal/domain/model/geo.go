package model

// Bounds is an edge bounding box. North/South and East/West are stored with
// the larger value first, whatever the source ordering was.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// NormalizeBounds sorts each coordinate pair descending.
func NormalizeBounds(lat1, lat2, lon1, lon2 float64) Bounds {
	if lat2 > lat1 {
		lat1, lat2 = lat2, lat1
	}
	if lon2 > lon1 {
		lon1, lon2 = lon2, lon1
	}
	return Bounds{North: lat1, South: lat2, East: lon1, West: lon2}
}

// ContainsStrict reports whether a point lies strictly inside the box.
// Points on the boundary are outside.
func (b Bounds) ContainsStrict(lat, lon float64) bool {
	return b.South < lat && lat < b.North && b.West < lon && lon < b.East
}

// Centre returns the middle of the box.
func (b Bounds) Centre() (lat, lon float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// EdgeGeometry is one record of the edge geometry feed.
type EdgeGeometry struct {
	EdgeID string
	Bounds Bounds
	Length float64
}

// Geographic feature columns.
const (
	ColLatNorth   = "lat_north"
	ColLatSouth   = "lat_south"
	ColLonEast    = "lon_east"
	ColLonWest    = "lon_west"
	ColEdgeLength = "edge_length"
)

// GeoColumns lists the geographic feature columns in join order.
var GeoColumns = []string{ColLatNorth, ColLatSouth, ColLonEast, ColLonWest, ColEdgeLength}

// BoundsFromRow rebuilds the box joined onto a row, if all four bounds are set.
func BoundsFromRow(r Row) (Bounds, bool) {
	n, s := r.Features[ColLatNorth], r.Features[ColLatSouth]
	e, w := r.Features[ColLonEast], r.Features[ColLonWest]
	if !n.Valid || !s.Valid || !e.Valid || !w.Valid {
		return Bounds{}, false
	}
	return Bounds{North: n.Num, South: s.Num, East: e.Num, West: w.Num}, true
}
