package evt

import (
	"math"
	"testing"

	"evtlab/domain/core"
)

// TestLinkParameters_ZeroCovariates verifies the identity property: all
// covariate values at zero must return (mu0, exp(zeta0), xi) regardless of
// the beta coefficients.
func TestLinkParameters_ZeroCovariates(t *testing.T) {
	base := GEVParameters{
		Mu0:   -1.2,
		Zeta0: -0.7,
		Xi:    0.15,
		Covariates: []Covariate{
			{ID: "aadt", Name: "Traffic volume", BetaMu: 3.5, BetaZeta: -2.1},
			{ID: "speed", Name: "Speed limit", BetaMu: -0.9, BetaZeta: 0.4},
		},
	}

	params, err := LinkParameters(base, []float64{0, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if params.Mu != base.Mu0 {
		t.Errorf("Expected mu %g, got %g", base.Mu0, params.Mu)
	}
	if want := math.Exp(base.Zeta0); math.Abs(params.Sigma-want) > 1e-12 {
		t.Errorf("Expected sigma %g, got %g", want, params.Sigma)
	}
	if params.Xi != base.Xi {
		t.Errorf("Expected xi %g, got %g", base.Xi, params.Xi)
	}
}

// TestLinkParameters_Accumulation checks the linear accumulation on mu and
// the log-linear accumulation on sigma.
func TestLinkParameters_Accumulation(t *testing.T) {
	base := GEVParameters{
		Mu0:   0.0,
		Zeta0: 0.0,
		Xi:    -0.1,
		Covariates: []Covariate{
			{ID: "a", BetaMu: 2.0, BetaZeta: 0.5},
			{ID: "b", BetaMu: -1.0, BetaZeta: 0.25},
		},
	}

	params, err := LinkParameters(base, []float64{1.0, 2.0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// mu = 0 + 2*1 + (-1)*2 = 0
	if math.Abs(params.Mu) > 1e-12 {
		t.Errorf("Expected mu 0, got %g", params.Mu)
	}
	// zeta = 0 + 0.5*1 + 0.25*2 = 1 -> sigma = e
	if want := math.E; math.Abs(params.Sigma-want) > 1e-12 {
		t.Errorf("Expected sigma %g, got %g", want, params.Sigma)
	}
	if params.Xi != -0.1 {
		t.Errorf("Shape must pass through unchanged, got %g", params.Xi)
	}
}

// TestLinkParameters_DimensionMismatch verifies the precondition on value
// slice length.
func TestLinkParameters_DimensionMismatch(t *testing.T) {
	base := GEVParameters{
		Covariates: []Covariate{{ID: "a"}, {ID: "b"}},
	}

	_, err := LinkParameters(base, []float64{1.0})
	if err == nil {
		t.Fatal("Expected dimension mismatch error, got nil")
	}
	if !core.IsCode(err, core.CodeDimensionMismatch) {
		t.Errorf("Expected code %s, got %s", core.CodeDimensionMismatch, core.GetCode(err))
	}
}

// TestEffectiveParams uses the stored covariate values.
func TestEffectiveParams(t *testing.T) {
	base := GEVParameters{
		Mu0:   1.0,
		Zeta0: -1.0,
		Xi:    0.0,
		Covariates: []Covariate{
			{ID: "a", Value: 2.0, BetaMu: 0.5, BetaZeta: 0.0},
		},
	}

	params := EffectiveParams(base)
	if math.Abs(params.Mu-2.0) > 1e-12 {
		t.Errorf("Expected mu 2.0, got %g", params.Mu)
	}
	if want := math.Exp(-1.0); math.Abs(params.Sigma-want) > 1e-12 {
		t.Errorf("Expected sigma %g, got %g", want, params.Sigma)
	}
}

// TestGEVParams_Validate covers the sigma invariant.
func TestGEVParams_Validate(t *testing.T) {
	valid := GEVParams{Mu: 0, Sigma: 1, Xi: 0}
	if err := valid.Validate(); err != nil {
		t.Errorf("Unexpected error for valid params: %v", err)
	}

	invalid := GEVParams{Mu: 0, Sigma: 0, Xi: 0}
	err := invalid.Validate()
	if err == nil {
		t.Fatal("Expected error for sigma=0, got nil")
	}
	if !core.IsCode(err, core.CodeInvalidParameter) {
		t.Errorf("Expected code %s, got %s", core.CodeInvalidParameter, core.GetCode(err))
	}
}

// TestGEVParams_UpperBound checks the support bound for negative shape.
func TestGEVParams_UpperBound(t *testing.T) {
	bounded := GEVParams{Mu: -5, Sigma: 0.5, Xi: -0.4}
	bound, finite := bounded.UpperBound()
	if !finite {
		t.Fatal("Expected finite upper bound for xi < 0")
	}
	if math.Abs(bound-(-3.75)) > 1e-12 {
		t.Errorf("Expected bound -3.75, got %g", bound)
	}

	unbounded := GEVParams{Mu: 0, Sigma: 1, Xi: 0.2}
	if _, finite := unbounded.UpperBound(); finite {
		t.Error("Expected unbounded support for xi >= 0")
	}
}
