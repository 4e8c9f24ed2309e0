package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxEta bounds the linear predictor before exponentiation.
const maxEta = 30

// PoissonRegressor is a log-link Poisson GLM with an L2 penalty on the
// coefficients.
type PoissonRegressor struct {
	Alpha   float64
	MaxIter int
	Tol     float64

	Coef      []float64
	Intercept float64
	NIter     int
}

// Fit estimates the coefficients. x may be nil when there are no features.
func (m *PoissonRegressor) Fit(x *mat.Dense, y []float64) error {
	n := len(y)
	if n == 0 {
		return errors.New("poisson: no training rows")
	}
	p := 0
	if x != nil {
		r, c := x.Dims()
		if r != n {
			return fmt.Errorf("poisson: %d rows in X, %d targets", r, n)
		}
		p = c
	}
	for _, v := range y {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("poisson: targets must be non-negative, got %v", v)
		}
	}

	d := designMatrix(x, n, p)
	k := p + 1
	beta := make([]float64, k)
	if mean := meanOf(y); mean > 0 {
		beta[0] = math.Log(mean)
	}

	maxIter := m.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := m.Tol
	if tol <= 0 {
		tol = 1e-4
	}

	obj := m.objective(d, y, beta)
	m.NIter = 0
	for iter := 0; iter < maxIter; iter++ {
		m.NIter = iter + 1
		mu := m.mean(d, beta)
		grad := m.gradient(d, y, mu, beta)
		if maxAbs(grad) < tol {
			break
		}
		step, err := m.newtonStep(d, mu, grad)
		if err != nil {
			return fmt.Errorf("poisson: iteration %d: %w", iter, err)
		}

		// Halve the step until the objective does not increase.
		t := 1.0
		next := make([]float64, k)
		improved := false
		for h := 0; h < 30; h++ {
			for j := range beta {
				next[j] = beta[j] - t*step[j]
			}
			if o := m.objective(d, y, next); o <= obj {
				obj = o
				copy(beta, next)
				improved = true
				break
			}
			t /= 2
		}
		if !improved {
			break
		}
	}

	m.Intercept = beta[0]
	m.Coef = append([]float64(nil), beta[1:]...)
	return nil
}

// Predict returns the expected counts exp(Xw + b).
func (m *PoissonRegressor) Predict(x *mat.Dense, n int) []float64 {
	beta := append([]float64{m.Intercept}, m.Coef...)
	return m.mean(designMatrix(x, n, len(m.Coef)), beta)
}

// Score returns D², the fraction of Poisson deviance explained.
func (m *PoissonRegressor) Score(x *mat.Dense, y []float64) float64 {
	return D2Score(y, m.Predict(x, len(y)))
}

func (m *PoissonRegressor) mean(d *mat.Dense, beta []float64) []float64 {
	n, _ := d.Dims()
	var eta mat.VecDense
	eta.MulVec(d, mat.NewVecDense(len(beta), beta))
	mu := make([]float64, n)
	for i := range mu {
		mu[i] = math.Exp(clamp(eta.AtVec(i), -maxEta, maxEta))
	}
	return mu
}

func (m *PoissonRegressor) objective(d *mat.Dense, y, beta []float64) float64 {
	n, _ := d.Dims()
	var eta mat.VecDense
	eta.MulVec(d, mat.NewVecDense(len(beta), beta))
	var loss float64
	for i := 0; i < n; i++ {
		e := clamp(eta.AtVec(i), -maxEta, maxEta)
		loss += math.Exp(e) - y[i]*e
	}
	loss /= float64(n)
	var penalty float64
	for _, b := range beta[1:] {
		penalty += b * b
	}
	return loss + m.Alpha/2*penalty
}

func (m *PoissonRegressor) gradient(d *mat.Dense, y, mu, beta []float64) []float64 {
	n, k := d.Dims()
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = (mu[i] - y[i]) / float64(n)
	}
	var g mat.VecDense
	g.MulVec(d.T(), mat.NewVecDense(n, resid))
	grad := make([]float64, k)
	for j := range grad {
		grad[j] = g.AtVec(j)
		if j > 0 {
			grad[j] += m.Alpha * beta[j]
		}
	}
	return grad
}

// newtonStep solves H s = g with H = (1/n) Dᵀ diag(μ) D + αI (intercept
// unpenalized). A growing ridge is added when H is not positive definite.
func (m *PoissonRegressor) newtonStep(d *mat.Dense, mu, grad []float64) ([]float64, error) {
	n, k := d.Dims()
	var dw mat.Dense
	dw.Apply(func(i, _ int, v float64) float64 { return v * mu[i] }, d)
	var h mat.Dense
	h.Mul(d.T(), &dw)

	g := mat.NewVecDense(k, grad)
	for jitter := 0.0; jitter <= 1; {
		sym := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				v := h.At(i, j) / float64(n)
				if i == j {
					v += jitter
					if i > 0 {
						v += m.Alpha
					}
				}
				sym.SetSym(i, j, v)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			var step mat.VecDense
			if err := chol.SolveVecTo(&step, g); err == nil {
				return vecData(&step), nil
			}
		}
		if jitter == 0 {
			jitter = 1e-10
		} else {
			jitter *= 100
		}
	}
	return nil, errors.New("hessian is singular")
}

// designMatrix prepends the intercept column to x.
func designMatrix(x *mat.Dense, n, p int) *mat.Dense {
	d := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		d.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			d.Set(i, j+1, x.At(i, j))
		}
	}
	return d
}

// D2Score is 1 - D(y, μ)/D(y, ȳ) for the Poisson unit deviance.
func D2Score(y, mu []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	ybar := meanOf(y)
	var dev, null float64
	for i, v := range y {
		dev += unitDeviance(v, mu[i])
		null += unitDeviance(v, ybar)
	}
	if null == 0 {
		if dev == 0 {
			return 1
		}
		return 0
	}
	return 1 - dev/null
}

func unitDeviance(y, mu float64) float64 {
	if mu <= 0 {
		mu = math.SmallestNonzeroFloat64
	}
	var ylog float64
	if y > 0 {
		ylog = y * math.Log(y/mu)
	}
	return 2 * (ylog - y + mu)
}

func meanOf(xs []float64) float64 {
	var s float64
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

func maxAbs(xs []float64) float64 {
	var m float64
	for _, v := range xs {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func vecData(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
