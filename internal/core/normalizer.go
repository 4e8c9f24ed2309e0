package core

import (
	"fmt"
	"math"
	"sort"

	"darkzone_service/internal/domain/model"
)

// droppedColumns are fields of the raw export that never reach the model.
var droppedColumns = []string{"Unnamed: 0", "place_id", "value.Vehicle_Mode", "speed", "_id"}

// renamedColumns maps legacy dotted export names to canonical names.
var renamedColumns = map[string]string{
	"suitcase.id": "suitcase_id",
	"date.utc":    model.ColDate,
	"edge.id":     model.ColEdgeID,
	"edge.osmid":  model.ColEdgeOSMID,
	"place.id":    "place_id",
	"osm.highway": model.ColOSMHighway,
}

// Normalize cleans a raw observation table into typed observations.
func Normalize(raw model.RawTable) (model.ObservationSet, error) {
	records := make([]model.RawRecord, len(raw))
	schema := make(map[string]struct{})
	for i, rec := range raw {
		clean := make(model.RawRecord, len(rec))
		for k, v := range rec {
			clean[k] = v
		}
		for _, col := range droppedColumns {
			delete(clean, col)
		}
		for from, to := range renamedColumns {
			if v, ok := clean[from]; ok {
				delete(clean, from)
				clean[to] = v
			}
		}
		for k := range clean {
			schema[k] = struct{}{}
		}
		records[i] = clean
	}

	for _, col := range []string{model.ColEdgeID, model.ColDate} {
		if _, ok := schema[col]; !ok {
			return model.ObservationSet{}, fmt.Errorf("%w: column %q is missing", model.ErrMalformedInput, col)
		}
	}

	codes, columns, err := discoverCodes(schema)
	if err != nil {
		return model.ObservationSet{}, err
	}
	_, hasOSMID := schema[model.ColEdgeOSMID]
	set := model.ObservationSet{Codes: codes, Rows: make([]model.Observation, 0, len(records))}
	for i, rec := range records {
		edgeID, ok := toString(rec[model.ColEdgeID])
		if !ok {
			continue
		}
		date, err := model.ParseDate(rec[model.ColDate])
		if err != nil {
			return model.ObservationSet{}, fmt.Errorf("%w: row %d: %v", model.ErrMalformedInput, i, err)
		}
		var osmid int64
		if hasOSMID {
			if osmid, err = toInt64(rec[model.ColEdgeOSMID]); err != nil {
				return model.ObservationSet{}, fmt.Errorf("%w: row %d: edge_osmid: %v", model.ErrMalformedInput, i, err)
			}
		}
		highway, _ := toString(rec[model.ColOSMHighway])

		obs := model.Observation{
			Date:       model.Day(date),
			EdgeID:     edgeID,
			EdgeOSMID:  osmid,
			OSMHighway: highway,
			Counts:     make(map[model.LitterCode]int64, len(codes)),
		}
		for _, code := range codes {
			n := toCount(rec[columns[code]])
			obs.Counts[code] = n
			obs.TotalLitter += n
		}
		set.Rows = append(set.Rows, obs)
	}
	return set, nil
}

// discoverCodes returns the digit-named columns of the schema as sorted
// codes, with the source column of each code. Two columns naming the same
// code ("7" and "07") or a column naming code 0 are malformed.
func discoverCodes(schema map[string]struct{}) ([]model.LitterCode, map[model.LitterCode]string, error) {
	columns := make(map[model.LitterCode]string)
	for name := range schema {
		if !model.IsCategoryColumn(name) {
			continue
		}
		code, err := model.ParseLitterCode(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: category column %q: %v", model.ErrMalformedInput, name, err)
		}
		if prev, dup := columns[code]; dup {
			return nil, nil, fmt.Errorf("%w: category columns %q and %q both name code %d",
				model.ErrMalformedInput, prev, name, int(code))
		}
		columns[code] = name
	}
	codes := make([]model.LitterCode, 0, len(columns))
	for code := range columns {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, columns, nil
}

// toCount coerces a count cell to a non-negative integer; missing is zero.
func toCount(v any) int64 {
	f := toFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}
