package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"darkzone_service/internal/domain/model"
	"darkzone_service/internal/logger"
	"darkzone_service/internal/metrics"
)

// RunRecorder persists training runs and prediction tables.
type RunRecorder interface {
	RecordTraining(ctx context.Context, run model.TrainingRun) error
	SavePredictions(ctx context.Context, runID string, table model.PredictionTable) error
}

// DarkZoneService runs the training and inference pipelines and keeps the
// latest trained model set.
type DarkZoneService struct {
	joiners         []Joiner
	trainer         *Trainer
	recorder        RunRecorder
	savePredictions bool
	log             *zap.Logger

	mu      sync.RWMutex
	current model.ModelSet
	runID   string
}

// NewDarkZoneService wires the pipeline. joiners run in the given order on
// both paths. recorder may be nil.
func NewDarkZoneService(
	joiners []Joiner,
	trainer *Trainer,
	recorder RunRecorder,
	savePredictions bool,
	log *zap.Logger,
) *DarkZoneService {
	if log == nil {
		log = logger.L()
	}
	return &DarkZoneService{
		joiners:         joiners,
		trainer:         trainer,
		recorder:        recorder,
		savePredictions: savePredictions,
		log:             log,
	}
}

// TrainModels normalizes and aggregates the raw table, joins every feature
// family and fits one model per requested code. The trained set becomes the
// service's current set.
func (s *DarkZoneService) TrainModels(
	ctx context.Context,
	raw model.RawTable,
	codes []model.LitterCode,
	method AggregationMethod,
) (model.ModelSet, error) {
	started := time.Now()

	f, err := prepare(raw, method)
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		if !f.HasCode(code) {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownCategory, code)
		}
	}

	features, err := JoinAll(ctx, f, s.joiners...)
	if err != nil {
		s.countFeedFailure("train", err)
		return nil, fmt.Errorf("failed to build training features: %w", err)
	}

	set, err := s.trainer.Train(ctx, features, codes)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	for code, bundle := range set {
		metrics.TrainingDurationSeconds.WithLabelValues(code.String()).Observe(bundle.Duration.Seconds())
		metrics.ModelScore.WithLabelValues(code.String()).Set(bundle.Score)
	}
	metrics.TrainingRunsTotal.Inc()

	s.mu.Lock()
	s.current = set
	s.runID = runID
	s.mu.Unlock()

	s.log.Info("training run finished",
		zap.String("run_id", runID),
		zap.Int("rows", len(features.Rows)),
		zap.Int("models", len(set)),
		zap.String("aggregation", string(method)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if s.recorder != nil {
		run := model.NewTrainingRun(runID, started, time.Now(), string(method), len(features.Rows), set)
		if err := s.recorder.RecordTraining(ctx, run); err != nil {
			s.log.Warn("failed to record training run", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return set, nil
}

// PredictDarkZones regenerates the dark zones of the raw table and predicts
// every category of models for them. A nil models uses the current set.
func (s *DarkZoneService) PredictDarkZones(
	ctx context.Context,
	raw model.RawTable,
	models model.ModelSet,
) (model.PredictionTable, error) {
	runID := ""
	if models == nil {
		models, runID = s.Current()
	}
	if len(models) == 0 {
		return model.PredictionTable{}, model.ErrNoModels
	}

	f, err := prepare(raw, AggregateSum)
	if err != nil {
		return model.PredictionTable{}, err
	}

	zones := GenerateDarkZones(f)
	metrics.DarkZoneRowsTotal.Add(float64(len(zones.Rows)))

	features, err := JoinAll(ctx, zones, s.joiners...)
	if err != nil {
		s.countFeedFailure("predict", err)
		return model.PredictionTable{}, fmt.Errorf("failed to build dark-zone features: %w", err)
	}

	table, err := PredictCounts(features, models)
	if err != nil {
		return model.PredictionTable{}, err
	}
	s.log.Info("dark zones predicted",
		zap.Int("observed_rows", len(f.Rows)),
		zap.Int("darkzone_rows", len(table.Rows)),
		zap.Int("categories", len(table.Codes)),
	)

	if s.recorder != nil && s.savePredictions {
		if runID == "" {
			runID = uuid.NewString()
		}
		if err := s.recorder.SavePredictions(ctx, runID, table); err != nil {
			s.log.Warn("failed to save predictions", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return table, nil
}

// Current returns the latest trained set and its run ID.
func (s *DarkZoneService) Current() (model.ModelSet, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.runID
}

// ModelInfos summarizes the current set in code order.
func (s *DarkZoneService) ModelInfos() []model.ModelInfo {
	set, _ := s.Current()
	infos := make([]model.ModelInfo, 0, len(set))
	for _, code := range set.Codes() {
		infos = append(infos, set[code].Info())
	}
	return infos
}

func (s *DarkZoneService) countFeedFailure(stage string, err error) {
	if errors.Is(err, model.ErrMissingFeed) {
		metrics.FeedFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// prepare runs the normalizer and the aggregator.
func prepare(raw model.RawTable, method AggregationMethod) (model.Frame, error) {
	set, err := Normalize(raw)
	if err != nil {
		return model.Frame{}, err
	}
	return Aggregate(ObservationFrame(set), method)
}
