package regression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

func pipelineFrame() (model.Frame, []float64) {
	var rows []model.Row
	var y []float64
	for i := 0; i < 40; i++ {
		hw := "residential"
		count := 1.0
		if i%2 == 0 {
			hw = "primary"
			count = 6
		}
		rows = append(rows, model.Row{
			Date:       time.Date(2021, 3, 1+i%10, 0, 0, 0, 0, time.UTC),
			EdgeID:     "E" + model.FormatInt(i%5),
			OSMHighway: hw,
			Features:   map[string]model.Value{"bench": model.Num(float64(i % 3))},
		})
		y = append(y, count)
	}
	f := model.NewFrame(nil, rows)
	f.AddColumn(model.Column{Name: "bench", Kind: model.Numeric})
	return f, y
}

func TestPipelineFitPredict(t *testing.T) {
	f, y := pipelineFrame()
	p := NewPipeline(Config{Alpha: 1e-6, MaxIter: 200, Tol: 1e-8})
	require.NoError(t, p.Fit(f, y))

	pred, err := p.Predict(f)
	require.NoError(t, err)
	require.Len(t, pred, len(y))
	assert.InDelta(t, 6, pred[0], 0.1)
	assert.InDelta(t, 1, pred[1], 0.1)

	score, err := p.Score(f, y)
	require.NoError(t, err)
	assert.InDelta(t, 1, score, 1e-3)
}

func TestPipelineNotFitted(t *testing.T) {
	f, _ := pipelineFrame()
	_, err := NewPipeline(DefaultConfig()).Predict(f)
	assert.Error(t, err)
}

func TestPipelineLengthMismatch(t *testing.T) {
	f, y := pipelineFrame()
	assert.Error(t, NewPipeline(DefaultConfig()).Fit(f, y[:3]))
}

func TestDefaultConfigIsStronglyPenalized(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1.0, cfg.Alpha)
	assert.Equal(t, 500, cfg.MaxIter)

	p := NewPipeline(cfg)
	assert.Equal(t, cfg.Alpha, p.Model.Alpha)
	assert.Equal(t, cfg.MaxIter, p.Model.MaxIter)
}

func TestFactoryBuildsFreshPipelines(t *testing.T) {
	factory := Factory(DefaultConfig())
	a, b := factory(), factory()
	assert.NotSame(t, a, b)
}
