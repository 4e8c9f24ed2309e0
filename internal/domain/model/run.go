package model

import "time"

// TrainingRun is the record of one completed TrainModels call.
type TrainingRun struct {
	ID          string      `json:"id" db:"id"`
	StartedAt   time.Time   `json:"started_at" db:"started_at"`
	FinishedAt  time.Time   `json:"finished_at" db:"finished_at"`
	Aggregation string      `json:"aggregation" db:"aggregation"`
	Rows        int         `json:"rows" db:"row_count"`
	Models      []ModelInfo `json:"models" db:"-"`
}

// NewTrainingRun summarizes a trained set in code order.
func NewTrainingRun(id string, started, finished time.Time, aggregation string, rows int, set ModelSet) TrainingRun {
	run := TrainingRun{
		ID:          id,
		StartedAt:   started.UTC(),
		FinishedAt:  finished.UTC(),
		Aggregation: aggregation,
		Rows:        rows,
	}
	for _, code := range set.Codes() {
		run.Models = append(run.Models, set[code].Info())
	}
	return run
}
