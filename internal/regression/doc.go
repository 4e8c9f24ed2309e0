// Package regression implements the count-regression pipeline used to model
// litter counts: a column transformer (robust scaling of numeric features,
// one-hot encoding of categorical ones) followed by a Poisson generalized
// linear model with a log link and an L2 penalty.
//
// The Poisson model is fitted with Newton iterations (IRLS) on the penalized
// mean negative log-likelihood
//
//	(1/n) Σ (μᵢ - yᵢ ηᵢ) + (α/2) ‖w‖²,  η = Xw + b,  μ = exp(η)
//
// The intercept b is not penalized. Goodness of fit is reported as the
// fraction of Poisson deviance explained (D²).
package regression
