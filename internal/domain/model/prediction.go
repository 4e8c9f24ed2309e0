package model

import "time"

// PredictionRow is a dark-zone cell with its predicted counts.
type PredictionRow struct {
	Date       time.Time
	EdgeID     string
	EdgeOSMID  int64
	OSMHighway string
	RowType    string
	Predicted  map[LitterCode]int64
}

// PredictionTable is the predictor output. Codes lists the predicted
// categories in ascending order.
type PredictionTable struct {
	Codes []LitterCode
	Rows  []PredictionRow
}

// Columns returns the column names of the table.
func (t PredictionTable) Columns() []string {
	cols := []string{ColDate, ColEdgeID, ColEdgeOSMID, ColOSMHighway, ColRowType}
	for _, c := range t.Codes {
		cols = append(cols, c.String())
	}
	return cols
}
