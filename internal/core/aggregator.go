package core

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"darkzone_service/internal/domain/model"
)

// AggregationMethod names the reduction used to collapse the observations of
// one (date, edge) cell.
type AggregationMethod string

const (
	AggregateSum    AggregationMethod = "sum"
	AggregateMean   AggregationMethod = "mean"
	AggregateMedian AggregationMethod = "median"
	AggregateMin    AggregationMethod = "min"
	AggregateMax    AggregationMethod = "max"
)

// ParseAggregationMethod validates a method name. Empty means sum.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	m := AggregationMethod(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return AggregateSum, nil
	}
	switch m {
	case AggregateSum, AggregateMean, AggregateMedian, AggregateMin, AggregateMax:
		return m, nil
	}
	return "", fmt.Errorf("unsupported aggregation method %q", s)
}

// reduce applies the method to a non-empty slice.
func (m AggregationMethod) reduce(xs []float64) (float64, error) {
	data := stats.Float64Data(xs)
	switch m {
	case AggregateSum, "":
		return data.Sum()
	case AggregateMean:
		return data.Mean()
	case AggregateMedian:
		return data.Median()
	case AggregateMin:
		return data.Min()
	case AggregateMax:
		return data.Max()
	}
	return 0, fmt.Errorf("unsupported aggregation method %q", string(m))
}

// ObservationFrame lifts normalized observations into a frame, one row per
// observation.
func ObservationFrame(set model.ObservationSet) model.Frame {
	rows := make([]model.Row, len(set.Rows))
	for i, o := range set.Rows {
		counts := make(map[model.LitterCode]float64, len(o.Counts))
		for c, n := range o.Counts {
			counts[c] = float64(n)
		}
		rows[i] = model.Row{
			Date:        o.Date,
			EdgeID:      o.EdgeID,
			EdgeOSMID:   o.EdgeOSMID,
			OSMHighway:  o.OSMHighway,
			Counts:      counts,
			TotalLitter: float64(o.TotalLitter),
			Features:    map[string]model.Value{},
		}
	}
	return model.NewFrame(append([]model.LitterCode(nil), set.Codes...), rows)
}

// Aggregate collapses the frame to one row per (date, edge_id). Counts and
// total_litter are reduced with method; osmid and highway keep the first
// value seen. The result is sorted by date then edge id.
func Aggregate(f model.Frame, method AggregationMethod) (model.Frame, error) {
	type group struct {
		first  model.Row
		counts map[model.LitterCode][]float64
		totals []float64
	}
	groups := make(map[model.CellKey]*group)
	var order []model.CellKey
	for _, r := range f.Rows {
		k := r.Key()
		g, ok := groups[k]
		if !ok {
			g = &group{first: r, counts: make(map[model.LitterCode][]float64, len(f.Codes))}
			groups[k] = g
			order = append(order, k)
		}
		for _, c := range f.Codes {
			g.counts[c] = append(g.counts[c], r.Counts[c])
		}
		g.totals = append(g.totals, r.TotalLitter)
	}

	rows := make([]model.Row, 0, len(order))
	for _, k := range order {
		g := groups[k]
		row := model.Row{
			Date:       k.Date,
			EdgeID:     k.EdgeID,
			EdgeOSMID:  g.first.EdgeOSMID,
			OSMHighway: g.first.OSMHighway,
			RowType:    g.first.RowType,
			Counts:     make(map[model.LitterCode]float64, len(f.Codes)),
			Features:   map[string]model.Value{},
		}
		for _, c := range f.Codes {
			v, err := method.reduce(g.counts[c])
			if err != nil {
				return model.Frame{}, fmt.Errorf("aggregate %s: %w", c, err)
			}
			row.Counts[c] = v
		}
		total, err := method.reduce(g.totals)
		if err != nil {
			return model.Frame{}, fmt.Errorf("aggregate %s: %w", model.TotalLitter, err)
		}
		row.TotalLitter = total
		rows = append(rows, row)
	}

	out := model.NewFrame(append([]model.LitterCode(nil), f.Codes...), rows)
	out.SortRows()
	return out, nil
}
