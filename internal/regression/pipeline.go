package regression

import (
	"errors"
	"fmt"

	"darkzone_service/internal/domain/model"
)

// Config holds the Poisson solver settings.
type Config struct {
	Alpha   float64 `yaml:"alpha"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
}

// DefaultConfig applies a strong L2 penalty (alpha 1) so sparse one-hot
// edge and date columns cannot overfit the over-dispersed counts. Set
// pipeline.regression.alpha close to zero for a nearly unpenalized fit.
func DefaultConfig() Config {
	return Config{Alpha: 1.0, MaxIter: 500, Tol: 1e-4}
}

// Pipeline chains the column transformer and the Poisson regressor and
// satisfies model.Regressor.
type Pipeline struct {
	Pre   *ColumnTransformer
	Model *PoissonRegressor

	fitted bool
}

// NewPipeline returns an unfitted pipeline.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		Pre:   &ColumnTransformer{},
		Model: &PoissonRegressor{Alpha: cfg.Alpha, MaxIter: cfg.MaxIter, Tol: cfg.Tol},
	}
}

// Factory returns a model.RegressorFactory building pipelines with cfg.
func Factory(cfg Config) model.RegressorFactory {
	return func() model.Regressor { return NewPipeline(cfg) }
}

func (p *Pipeline) Fit(x model.Frame, y []float64) error {
	if len(x.Rows) != len(y) {
		return fmt.Errorf("pipeline: %d rows, %d targets", len(x.Rows), len(y))
	}
	if err := p.Pre.Fit(x); err != nil {
		return fmt.Errorf("pipeline: preprocess: %w", err)
	}
	if err := p.Model.Fit(p.Pre.Transform(x), y); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	p.fitted = true
	return nil
}

func (p *Pipeline) Predict(x model.Frame) ([]float64, error) {
	if !p.fitted {
		return nil, errors.New("pipeline: not fitted")
	}
	if len(x.Rows) == 0 {
		return []float64{}, nil
	}
	return p.Model.Predict(p.Pre.Transform(x), len(x.Rows)), nil
}

func (p *Pipeline) Score(x model.Frame, y []float64) (float64, error) {
	pred, err := p.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(y) {
		return 0, fmt.Errorf("pipeline: %d predictions, %d targets", len(pred), len(y))
	}
	return D2Score(y, pred), nil
}
