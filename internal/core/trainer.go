package core

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"darkzone_service/internal/domain/model"
	"darkzone_service/internal/logger"
)

// Trainer fits one regression pipeline per requested litter category.
type Trainer struct {
	NewRegressor model.RegressorFactory
	// TestFraction of rows held out for scoring.
	TestFraction float64
	// Seed of the train/test shuffle.
	Seed int64
	Log  *zap.Logger
}

// Train builds a model bundle for every code. Any code missing from the
// frame fails the whole run before anything is fitted.
func (t *Trainer) Train(ctx context.Context, f model.Frame, codes []model.LitterCode) (model.ModelSet, error) {
	for _, code := range codes {
		if !f.HasCode(code) {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownCategory, code)
		}
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to train on", model.ErrMalformedInput)
	}

	set := make(model.ModelSet, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bundle, err := t.trainOne(f, code)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", code, err)
		}
		set[code] = bundle
		t.logger().Info("model trained",
			zap.String("litter", code.String()),
			zap.String("label", bundle.Label),
			zap.Float64("d2", bundle.Score),
			zap.Duration("duration", bundle.Duration),
			zap.Int("train_rows", bundle.TrainRows),
			zap.Int("test_rows", len(bundle.YTest)),
		)
	}
	return set, nil
}

func (t *Trainer) trainOne(f model.Frame, code model.LitterCode) (*model.ModelBundle, error) {
	start := time.Now()

	trainIdx, testIdx := TrainTestSplit(len(f.Rows), t.TestFraction, t.Seed)
	train := f.Subset(trainIdx)
	test := f.Subset(testIdx)
	yTrain := train.Targets(code)
	yTest := test.Targets(code)
	stripTargets(&train)
	stripTargets(&test)

	pipeline := t.NewRegressor()
	if err := pipeline.Fit(train, yTrain); err != nil {
		return nil, err
	}

	scoreOn, yScore := test, yTest
	if len(test.Rows) == 0 {
		scoreOn, yScore = train, yTrain
	}
	score, err := pipeline.Score(scoreOn, yScore)
	if err != nil {
		return nil, err
	}

	return &model.ModelBundle{
		Code:      code,
		Label:     code.Label(),
		Pipeline:  pipeline,
		TestSet:   test,
		YTest:     yTest,
		Score:     math.Round(score*1e4) / 1e4,
		Duration:  time.Since(start),
		TrainRows: len(train.Rows),
	}, nil
}

func (t *Trainer) logger() *zap.Logger {
	if t.Log == nil {
		return logger.L()
	}
	return t.Log
}

// stripTargets removes every count from the frame so that only features remain.
func stripTargets(f *model.Frame) {
	for i := range f.Rows {
		f.Rows[i].Counts = nil
		f.Rows[i].TotalLitter = 0
	}
}

// TrainTestSplit shuffles row indexes with a seeded source and holds out
// ceil(testFraction*n) of them. At least one row is always kept for training.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test
}
