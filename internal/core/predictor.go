package core

import (
	"fmt"
	"math"

	"darkzone_service/internal/domain/model"
)

// PredictCounts applies every bundle of the set to the joined dark-zone frame
// and returns the identifying columns plus one rounded count per category.
// Feature columns are not carried into the result.
func PredictCounts(darkzones model.Frame, models model.ModelSet) (model.PredictionTable, error) {
	codes := models.Codes()
	table := model.PredictionTable{Codes: codes, Rows: make([]model.PredictionRow, len(darkzones.Rows))}
	for i, r := range darkzones.Rows {
		table.Rows[i] = model.PredictionRow{
			Date:       r.Date,
			EdgeID:     r.EdgeID,
			EdgeOSMID:  r.EdgeOSMID,
			OSMHighway: r.OSMHighway,
			RowType:    r.RowType,
			Predicted:  make(map[model.LitterCode]int64, len(codes)),
		}
	}
	if len(darkzones.Rows) == 0 {
		return table, nil
	}

	for _, code := range codes {
		bundle := models[code]
		if bundle == nil || bundle.Pipeline == nil {
			return model.PredictionTable{}, fmt.Errorf("model for %s is not trained", code)
		}
		pred, err := bundle.Pipeline.Predict(darkzones)
		if err != nil {
			return model.PredictionTable{}, fmt.Errorf("predict %s: %w", code, err)
		}
		if len(pred) != len(darkzones.Rows) {
			return model.PredictionTable{}, fmt.Errorf("predict %s: got %d values for %d rows", code, len(pred), len(darkzones.Rows))
		}
		for i, v := range pred {
			table.Rows[i].Predicted[code] = int64(math.RoundToEven(v))
		}
	}
	return table, nil
}
