package regression

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"darkzone_service/internal/domain/model"
)

// RobustScaler centres numeric features on the median and scales them by the
// interquartile range. Missing values map to 0, i.e. the median.
type RobustScaler struct {
	Center []float64
	Scale  []float64
}

// Fit learns one centre and scale per column of cols.
func (s *RobustScaler) Fit(cols [][]float64) error {
	s.Center = make([]float64, len(cols))
	s.Scale = make([]float64, len(cols))
	for j, col := range cols {
		var valid stats.Float64Data
		for _, v := range col {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		s.Center[j], s.Scale[j] = 0, 1
		if len(valid) == 0 {
			continue
		}
		median, err := valid.Median()
		if err != nil {
			return fmt.Errorf("median of column %d: %w", j, err)
		}
		sorted := append(stats.Float64Data(nil), valid...)
		sort.Float64s(sorted)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		s.Center[j] = median
		if iqr := q3 - q1; iqr > 0 {
			s.Scale[j] = iqr
		}
	}
	return nil
}

// quantile interpolates linearly between the closest ranks of a sorted,
// non-empty slice. stats.Percentile rejects small inputs, so it is not used.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Transform scales a single value of column j.
func (s *RobustScaler) Transform(j int, v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return (v - s.Center[j]) / s.Scale[j]
}

// OneHotEncoder maps each categorical column to one indicator per category
// seen during fitting. Unseen or missing categories encode as all zeros.
type OneHotEncoder struct {
	Categories [][]string
	index      []map[string]int
}

// Fit learns the sorted category set of each column.
func (e *OneHotEncoder) Fit(cols [][]model.Value) {
	e.Categories = make([][]string, len(cols))
	e.index = make([]map[string]int, len(cols))
	for j, col := range cols {
		seen := make(map[string]struct{})
		for _, v := range col {
			if v.Valid {
				seen[v.Str] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
		e.index[j] = make(map[string]int, len(cats))
		for k, c := range cats {
			e.index[j][c] = k
		}
	}
}

// Width returns the number of output columns.
func (e *OneHotEncoder) Width() int {
	w := 0
	for _, c := range e.Categories {
		w += len(c)
	}
	return w
}

// Position returns the offset of the indicator of v within column j's block.
func (e *OneHotEncoder) Position(j int, v model.Value) (int, bool) {
	if !v.Valid {
		return 0, false
	}
	k, ok := e.index[j][v.Str]
	return k, ok
}

// ColumnTransformer splits the frame schema into numeric and categorical
// columns and encodes them into a dense design matrix, numeric block first.
type ColumnTransformer struct {
	Numeric     []string
	Categorical []string
	Scaler      RobustScaler
	Encoder     OneHotEncoder
}

// Fit learns column roles from the frame schema and fits both encoders.
func (t *ColumnTransformer) Fit(x model.Frame) error {
	t.Numeric, t.Categorical = nil, nil
	for _, c := range x.Schema {
		switch c.Kind {
		case model.Numeric:
			t.Numeric = append(t.Numeric, c.Name)
		case model.Categorical:
			t.Categorical = append(t.Categorical, c.Name)
		}
	}

	num := make([][]float64, len(t.Numeric))
	for j, name := range t.Numeric {
		num[j] = make([]float64, len(x.Rows))
		for i, r := range x.Rows {
			num[j][i] = numericValue(r.Value(name))
		}
	}
	if err := t.Scaler.Fit(num); err != nil {
		return err
	}

	cat := make([][]model.Value, len(t.Categorical))
	for j, name := range t.Categorical {
		cat[j] = make([]model.Value, len(x.Rows))
		for i, r := range x.Rows {
			cat[j][i] = r.Value(name)
		}
	}
	t.Encoder.Fit(cat)
	return nil
}

// Width returns the number of columns of the design matrix.
func (t *ColumnTransformer) Width() int {
	return len(t.Numeric) + t.Encoder.Width()
}

// Transform encodes the frame. Columns absent from the frame are treated as
// missing values.
func (t *ColumnTransformer) Transform(x model.Frame) *mat.Dense {
	n, p := len(x.Rows), t.Width()
	if n == 0 || p == 0 {
		return nil
	}
	out := mat.NewDense(n, p, nil)
	for i, r := range x.Rows {
		for j, name := range t.Numeric {
			out.Set(i, j, t.Scaler.Transform(j, numericValue(r.Value(name))))
		}
		offset := len(t.Numeric)
		for j, name := range t.Categorical {
			if k, ok := t.Encoder.Position(j, r.Value(name)); ok {
				out.Set(i, offset+k, 1)
			}
			offset += len(t.Encoder.Categories[j])
		}
	}
	return out
}

func numericValue(v model.Value) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Num
}
