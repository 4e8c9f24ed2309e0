package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

func TestRobustScaler(t *testing.T) {
	var s RobustScaler
	require.NoError(t, s.Fit([][]float64{
		{1, 2, 3, 4, 5},
		{7, 7, 7},
		{math.NaN(), 2, 4},
		{},
	}))

	assert.Equal(t, 3.0, s.Center[0])
	assert.Equal(t, 2.0, s.Scale[0])
	assert.Equal(t, 1.0, s.Transform(0, 5))

	assert.Equal(t, 1.0, s.Scale[1], "constant column keeps unit scale")
	assert.Equal(t, 0.0, s.Transform(1, 7))

	assert.Equal(t, 3.0, s.Center[2])
	assert.Equal(t, 0.0, s.Transform(2, math.NaN()), "missing maps to the median")

	assert.Equal(t, 0.0, s.Center[3])
	assert.Equal(t, 1.0, s.Scale[3])
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 1.5, quantile([]float64{1, 2, 3}, 0.25))
	assert.Equal(t, 4.0, quantile([]float64{4}, 0.75))
}

func TestOneHotEncoderUnknownCategory(t *testing.T) {
	var e OneHotEncoder
	e.Fit([][]model.Value{
		{model.Cat("b"), model.Cat("a"), model.Null, model.Cat("b")},
	})

	assert.Equal(t, [][]string{{"a", "b"}}, e.Categories)
	assert.Equal(t, 2, e.Width())

	pos, ok := e.Position(0, model.Cat("b"))
	assert.True(t, ok)
	assert.Equal(t, 1, pos)

	_, ok = e.Position(0, model.Cat("zzz"))
	assert.False(t, ok)
	_, ok = e.Position(0, model.Null)
	assert.False(t, ok)
}

func transformerFrame() model.Frame {
	f := model.NewFrame(nil, []model.Row{
		{EdgeID: "E1", EdgeOSMID: 10, Features: map[string]model.Value{"len": model.Num(1)}},
		{EdgeID: "E2", EdgeOSMID: 20, Features: map[string]model.Value{"len": model.Num(3)}},
		{EdgeID: "E1", EdgeOSMID: 30, Features: map[string]model.Value{"len": model.Null}},
	})
	f.AddColumn(model.Column{Name: "len", Kind: model.Numeric})
	return f
}

func TestColumnTransformer(t *testing.T) {
	var ct ColumnTransformer
	require.NoError(t, ct.Fit(transformerFrame()))

	assert.Equal(t, []string{model.ColEdgeOSMID, "len"}, ct.Numeric)
	assert.Equal(t, []string{model.ColDate, model.ColEdgeID, model.ColOSMHighway}, ct.Categorical)

	x := ct.Transform(transformerFrame())
	r, c := x.Dims()
	assert.Equal(t, 3, r)
	// 2 numeric + 1 date + 2 edges + 1 highway
	assert.Equal(t, 6, c)

	assert.Equal(t, 0.0, x.At(2, 1), "missing numeric is imputed at the median")
	assert.Equal(t, 1.0, x.At(0, 3))
	assert.Equal(t, 0.0, x.At(0, 4))
	assert.Equal(t, 1.0, x.At(1, 4))

	unseen := model.NewFrame(nil, []model.Row{{EdgeID: "E9", EdgeOSMID: 20, Features: map[string]model.Value{}}})
	y := ct.Transform(unseen)
	assert.Equal(t, 0.0, y.At(0, 3))
	assert.Equal(t, 0.0, y.At(0, 4))
	assert.Equal(t, 0.0, y.At(0, 1), "absent column is missing")
}
