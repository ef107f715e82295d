package evt

import (
	"math"

	"evtlab/domain/core"
)

// LinkParameters maps baseline hyperparameters plus covariate values to
// effective GEV parameters:
//
//	mu    = mu0   + sum(beta_mu_i  * value_i)
//	zeta  = zeta0 + sum(beta_zeta_i * value_i)
//	sigma = exp(zeta)
//
// The shape xi passes through unchanged. The covariate value slice must be
// aligned with base.Covariates; the Value field on each Covariate is ignored
// here in favor of the explicit slice so callers can sweep scenarios without
// mutating the base parameter set.
func LinkParameters(base GEVParameters, covariateValues []float64) (GEVParams, error) {
	if len(covariateValues) != len(base.Covariates) {
		return GEVParams{}, core.DimensionMismatch(len(base.Covariates), len(covariateValues))
	}

	mu := base.Mu0
	zeta := base.Zeta0
	for i, cov := range base.Covariates {
		mu += cov.BetaMu * covariateValues[i]
		zeta += cov.BetaZeta * covariateValues[i]
	}

	return GEVParams{
		Mu:    mu,
		Sigma: math.Exp(zeta),
		Xi:    base.Xi,
	}, nil
}

// EffectiveParams applies the link using the Value field stored on each
// covariate, the common case when a parameter set carries current values.
func EffectiveParams(base GEVParameters) GEVParams {
	values := make([]float64, len(base.Covariates))
	for i, cov := range base.Covariates {
		values[i] = cov.Value
	}
	// Lengths match by construction, the error path is unreachable.
	params, _ := LinkParameters(base, values)
	return params
}
