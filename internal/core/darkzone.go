package core

import (
	"sort"
	"time"

	"darkzone_service/internal/domain/model"
)

// edgeInfo carries the descriptive columns of an edge as first observed.
type edgeInfo struct {
	osmid   int64
	highway string
}

// GenerateDarkZones returns one synthetic row for every (date, edge) pair
// where the edge was observed on some date of the frame but not on that one.
// Edges that never appear in the frame produce nothing. Rows carry no counts
// and are ordered by date, then edge id.
func GenerateDarkZones(f model.Frame) model.Frame {
	ordered := f.Clone()
	ordered.SortRows()

	edges := make(map[string]edgeInfo)
	var universe []string
	observed := make(map[time.Time]map[string]struct{})
	var dates []time.Time
	for _, r := range ordered.Rows {
		if _, ok := edges[r.EdgeID]; !ok {
			edges[r.EdgeID] = edgeInfo{osmid: r.EdgeOSMID, highway: r.OSMHighway}
			universe = append(universe, r.EdgeID)
		}
		seen, ok := observed[r.Date]
		if !ok {
			seen = make(map[string]struct{})
			observed[r.Date] = seen
			dates = append(dates, r.Date)
		}
		seen[r.EdgeID] = struct{}{}
	}
	sort.Strings(universe)

	var rows []model.Row
	for _, d := range dates {
		seen := observed[d]
		for _, e := range universe {
			if _, ok := seen[e]; ok {
				continue
			}
			info := edges[e]
			rows = append(rows, model.Row{
				Date:       d,
				EdgeID:     e,
				EdgeOSMID:  info.osmid,
				OSMHighway: info.highway,
				RowType:    model.RowTypeDarkZone,
				Features:   map[string]model.Value{},
			})
		}
	}
	return model.NewFrame(nil, rows)
}
