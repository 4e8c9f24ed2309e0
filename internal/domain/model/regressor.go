package model

// Regressor is the count-regression capability used by the trainer and the
// predictor. Implementations own their preprocessing.
type Regressor interface {
	// Fit trains on the feature columns of the frame schema against y.
	Fit(x Frame, y []float64) error

	// Predict returns one expected count per row.
	Predict(x Frame) ([]float64, error)

	// Score returns the goodness of fit of the model on (x, y).
	Score(x Frame, y []float64) (float64, error)
}

// RegressorFactory builds an unfitted regressor.
type RegressorFactory func() Regressor
