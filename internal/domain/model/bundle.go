package model

import (
	"sort"
	"time"
)

// ModelBundle is the trained model for one litter category. It is never
// modified after training.
type ModelBundle struct {
	Code      LitterCode
	Label     string
	Pipeline  Regressor
	TestSet   Frame
	YTest     []float64
	Score     float64
	Duration  time.Duration
	TrainRows int
}

// ModelSet maps each trained category to its bundle.
type ModelSet map[LitterCode]*ModelBundle

// Codes returns the trained codes in ascending order.
func (s ModelSet) Codes() []LitterCode {
	codes := make([]LitterCode, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ModelInfo summarizes a bundle for API responses and run records.
type ModelInfo struct {
	Code            string  `json:"code" db:"litter_code"`
	Label           string  `json:"label" db:"label"`
	Score           float64 `json:"score" db:"score"`
	DurationSeconds float64 `json:"duration_seconds" db:"duration_seconds"`
	TrainRows       int     `json:"train_rows" db:"train_rows"`
	TestRows        int     `json:"test_rows" db:"test_rows"`
}

// Info returns the summary of the bundle.
func (b *ModelBundle) Info() ModelInfo {
	return ModelInfo{
		Code:            b.Code.String(),
		Label:           b.Label,
		Score:           b.Score,
		DurationSeconds: b.Duration.Seconds(),
		TrainRows:       b.TrainRows,
		TestRows:        len(b.YTest),
	}
}
