package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

// meanRegressor predicts the training mean and records what it was fitted on.
type meanRegressor struct {
	mean    float64
	fitRows []model.Row
}

func (m *meanRegressor) Fit(x model.Frame, y []float64) error {
	m.fitRows = x.Rows
	for _, v := range y {
		m.mean += v
	}
	if len(y) > 0 {
		m.mean /= float64(len(y))
	}
	return nil
}

func (m *meanRegressor) Predict(x model.Frame) ([]float64, error) {
	out := make([]float64, len(x.Rows))
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

func (m *meanRegressor) Score(model.Frame, []float64) (float64, error) {
	return 0.123456, nil
}

func trainingFrame(n int) model.Frame {
	rows := make([]model.Row, n)
	for i := range rows {
		rows[i] = model.Row{
			Date:        day(2021, 3, 1+i%28),
			EdgeID:      "E" + model.FormatInt(i),
			Counts:      map[model.LitterCode]float64{3: float64(i % 4)},
			TotalLitter: float64(i%4 + 1),
			Features:    map[string]model.Value{},
		}
	}
	return model.NewFrame([]model.LitterCode{3}, rows)
}

func TestTrainerBundle(t *testing.T) {
	var fitted []*meanRegressor
	tr := &Trainer{
		NewRegressor: func() model.Regressor {
			r := &meanRegressor{}
			fitted = append(fitted, r)
			return r
		},
		TestFraction: 0.1,
		Seed:         42,
	}

	set, err := tr.Train(context.Background(), trainingFrame(20), []model.LitterCode{model.TotalLitter, 3})
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Len(t, fitted, 2)

	b := set[model.TotalLitter]
	assert.Equal(t, model.TotalLitter, b.Code)
	assert.Equal(t, "Total Litter", b.Label)
	assert.Equal(t, 0.1235, b.Score)
	assert.Equal(t, 18, b.TrainRows)
	assert.Len(t, b.YTest, 2)
	assert.Len(t, b.TestSet.Rows, 2)
	assert.Equal(t, "Leaves", set[3].Label)

	for _, r := range fitted[0].fitRows {
		assert.Nil(t, r.Counts)
		assert.Zero(t, r.TotalLitter)
	}
	for _, r := range b.TestSet.Rows {
		assert.Nil(t, r.Counts)
	}
}

func TestTrainerUnknownCategory(t *testing.T) {
	calls := 0
	tr := &Trainer{
		NewRegressor: func() model.Regressor { calls++; return &meanRegressor{} },
		TestFraction: 0.1,
	}

	_, err := tr.Train(context.Background(), trainingFrame(5), []model.LitterCode{3, 99})
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
	assert.Zero(t, calls)
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(25, 0.1, 42)
	assert.Len(t, test, 3)
	assert.Len(t, train, 22)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d used twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 25)

	train2, test2 := TrainTestSplit(25, 0.1, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = TrainTestSplit(1, 0.1, 42)
	assert.Equal(t, []int{0}, train)
	assert.Empty(t, test)

	train, test = TrainTestSplit(0, 0.1, 42)
	assert.Empty(t, train)
	assert.Empty(t, test)
}
