package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"darkzone_service/internal/domain/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS training_runs (
		id UUID PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		aggregation TEXT NOT NULL,
		row_count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS training_models (
		run_id UUID NOT NULL REFERENCES training_runs(id) ON DELETE CASCADE,
		litter_code TEXT NOT NULL,
		label TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		train_rows INTEGER NOT NULL,
		test_rows INTEGER NOT NULL,
		PRIMARY KEY (run_id, litter_code)
	);
	CREATE TABLE IF NOT EXISTS darkzone_predictions (
		run_id UUID NOT NULL,
		date_utc DATE NOT NULL,
		edge_id TEXT NOT NULL,
		edge_osmid BIGINT NOT NULL,
		osm_highway TEXT NOT NULL,
		litter_code TEXT NOT NULL,
		predicted BIGINT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, date_utc, edge_id, litter_code)
	)`

// PostgresRepository records training runs and dark-zone predictions.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects with lib/pq.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an open handle.
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type trainingModelRow struct {
	RunID string `db:"run_id"`
	model.ModelInfo
}

// RecordTraining stores the run and its per-category scores in one transaction.
func (r *PostgresRepository) RecordTraining(ctx context.Context, run model.TrainingRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const runQuery = `
		INSERT INTO training_runs (id, started_at, finished_at, aggregation, row_count)
		VALUES (:id, :started_at, :finished_at, :aggregation, :row_count)`
	if _, err := tx.NamedExecContext(ctx, runQuery, run); err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}

	const modelQuery = `
		INSERT INTO training_models (
			run_id, litter_code, label, score, duration_seconds, train_rows, test_rows
		) VALUES (
			:run_id, :litter_code, :label, :score, :duration_seconds, :train_rows, :test_rows
		)`
	for _, info := range run.Models {
		if _, err := tx.NamedExecContext(ctx, modelQuery, trainingModelRow{RunID: run.ID, ModelInfo: info}); err != nil {
			return fmt.Errorf("failed to insert model %s: %w", info.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit training run: %w", err)
	}
	return nil
}

// SavePredictions stores one row per (dark zone, category).
func (r *PostgresRepository) SavePredictions(ctx context.Context, runID string, table model.PredictionTable) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO darkzone_predictions (
			run_id, date_utc, edge_id, edge_osmid, osm_highway, litter_code, predicted
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare prediction insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		for _, code := range table.Codes {
			if _, err := stmt.ExecContext(ctx,
				runID, row.Date, row.EdgeID, row.EdgeOSMID, row.OSMHighway,
				code.String(), row.Predicted[code],
			); err != nil {
				return fmt.Errorf("failed to insert prediction for %s/%s: %w", model.DateKey(row.Date), row.EdgeID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}
