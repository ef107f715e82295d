// Package backtest implements the VaR backtesting suite: Kupiec's
// unconditional-coverage test, Christoffersen's conditional-coverage and
// independence decomposition, and the Dynamic Quantile regression test.
package backtest

import (
	"math"

	"evtlab/domain/core"
)

// logEps guards every log against log(0) on empty violation counts.
const logEps = 1e-10

// ViolationSequence marks which historical values met or exceeded a VaR
// threshold. Immutable once derived.
type ViolationSequence []bool

// NewViolationSequence derives the indicator sequence for a threshold.
func NewViolationSequence(values []float64, varThreshold float64) ViolationSequence {
	violations := make(ViolationSequence, len(values))
	for i, v := range values {
		violations[i] = v >= varThreshold
	}
	return violations
}

// Count returns the number of violations.
func (v ViolationSequence) Count() int {
	n := 0
	for _, hit := range v {
		if hit {
			n++
		}
	}
	return n
}

// Suite runs the three backtests against a chosen distribution set. The
// zero value is not usable; construct with NewSuite (legacy tutorial
// approximations) or NewExactSuite (gonum CDFs).
type Suite struct {
	dist Distributions
}

// NewSuite returns a suite using the legacy closed-form approximations.
func NewSuite() *Suite {
	return &Suite{dist: LegacyDistributions{}}
}

// NewExactSuite returns a suite using gonum's exact CDFs.
func NewExactSuite() *Suite {
	return &Suite{dist: ExactDistributions{}}
}

// NewSuiteWith injects a custom distribution set.
func NewSuiteWith(dist Distributions) *Suite {
	return &Suite{dist: dist}
}

// KupiecResult is the outcome of the unconditional-coverage test.
type KupiecResult struct {
	TestStatistic float64 `json:"test_statistic"`
	PValue        float64 `json:"p_value"`
	ObservedRate  float64 `json:"observed_rate"`
	ExpectedRate  float64 `json:"expected_rate"`
}

// Kupiec runs the likelihood-ratio test of unconditional coverage: does the
// observed violation frequency match the expected rate? The statistic is
// LR = -2*(logL0 - logL1) against chi-square with one degree of freedom.
func (s *Suite) Kupiec(observedViolations, totalObservations int, expectedRate float64) (KupiecResult, error) {
	if totalObservations <= 0 {
		return KupiecResult{}, core.InvalidParameterf("total observations must be positive, got %d", totalObservations)
	}
	if observedViolations < 0 || observedViolations > totalObservations {
		return KupiecResult{}, core.InvalidParameterf("observed violations %d outside [0, %d]", observedViolations, totalObservations)
	}
	if expectedRate <= 0 || expectedRate >= 1 {
		return KupiecResult{}, core.InvalidParameterf("expected rate must be in (0,1), got %g", expectedRate)
	}

	n := float64(totalObservations)
	x := float64(observedViolations)
	observedRate := x / n

	logL0 := (n-x)*math.Log(1-expectedRate+logEps) + x*math.Log(expectedRate+logEps)
	logL1 := (n-x)*math.Log(1-observedRate+logEps) + x*math.Log(observedRate+logEps)

	lr := -2 * (logL0 - logL1)
	return KupiecResult{
		TestStatistic: lr,
		PValue:        clampP(1 - s.dist.ChiSquareCDF(lr, 1)),
		ObservedRate:  observedRate,
		ExpectedRate:  expectedRate,
	}, nil
}

// CoverageTest is one statistic/p-value pair of the Christoffersen
// decomposition.
type CoverageTest struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// ChristoffersenResult decomposes conditional coverage into unconditional
// coverage and independence.
type ChristoffersenResult struct {
	UnconditionalCoverage CoverageTest `json:"unconditional_coverage"`
	Independence          CoverageTest `json:"independence"`
	ConditionalCoverage   CoverageTest `json:"conditional_coverage"`
}

// Christoffersen tests both the violation rate and the first-order
// independence of the violation sequence. The unconditional part reproduces
// Kupiec on the same data against expectedRate; the independence part
// compares a fitted first-order Markov transition model against a
// transition-independent Bernoulli null; their sum is the conditional
// coverage statistic against chi-square with two degrees of freedom.
func (s *Suite) Christoffersen(violations ViolationSequence, expectedRate float64) (ChristoffersenResult, error) {
	if len(violations) < 2 {
		return ChristoffersenResult{}, core.InsufficientData("christoffersen test needs at least 2 observations")
	}
	if expectedRate <= 0 || expectedRate >= 1 {
		return ChristoffersenResult{}, core.InvalidParameterf("expected rate must be in (0,1), got %g", expectedRate)
	}

	// transition frequencies over consecutive pairs
	var n00, n01, n10, n11 float64
	for i := 1; i < len(violations); i++ {
		prev, curr := violations[i-1], violations[i]
		switch {
		case !prev && !curr:
			n00++
		case !prev && curr:
			n01++
		case prev && !curr:
			n10++
		default:
			n11++
		}
	}

	uc, err := s.Kupiec(violations.Count(), len(violations), expectedRate)
	if err != nil {
		return ChristoffersenResult{}, err
	}

	// pooled and state-conditional violation probabilities
	total := n00 + n01 + n10 + n11
	pi := (n01 + n11) / total
	pi0 := n01 / math.Max(n00+n01, 1)
	pi1 := n11 / math.Max(n10+n11, 1)

	logL0 := (n00+n10)*math.Log(1-pi+logEps) + (n01+n11)*math.Log(pi+logEps)
	logL1 := n00*math.Log(1-pi0+logEps) + n01*math.Log(pi0+logEps) +
		n10*math.Log(1-pi1+logEps) + n11*math.Log(pi1+logEps)
	lrInd := -2 * (logL0 - logL1)
	if lrInd < 0 {
		// numerical guard, the alternative can never fit worse
		lrInd = 0
	}

	lrCC := uc.TestStatistic + lrInd

	return ChristoffersenResult{
		UnconditionalCoverage: CoverageTest{
			Statistic: uc.TestStatistic,
			PValue:    uc.PValue,
		},
		Independence: CoverageTest{
			Statistic: lrInd,
			PValue:    clampP(1 - s.dist.ChiSquareCDF(lrInd, 1)),
		},
		ConditionalCoverage: CoverageTest{
			Statistic: lrCC,
			PValue:    clampP(1 - s.dist.ChiSquareCDF(lrCC, 2)),
		},
	}, nil
}

// RegressionCoefficients holds the OLS fit of the DQ test.
type RegressionCoefficients struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// DynamicQuantileResult is the outcome of the DQ regression test.
type DynamicQuantileResult struct {
	TestStatistic float64                `json:"test_statistic"`
	PValue        float64                `json:"p_value"`
	Coefficients  RegressionCoefficients `json:"regression_coefficients"`
	RSquared      float64                `json:"r_squared"`
}

// DynamicQuantile regresses the 0/1 violation indicator on the lagged raw
// value. Under correct VaR calibration the lagged value carries no
// information about today's violation, so the slope should be
// indistinguishable from zero. The F statistic is t^2 for the single
// predictor, evaluated against F(1, n-2).
func (s *Suite) DynamicQuantile(violations ViolationSequence, laggedValues []float64) (DynamicQuantileResult, error) {
	if len(violations) != len(laggedValues) {
		return DynamicQuantileResult{}, core.DimensionMismatch(len(violations), len(laggedValues))
	}
	if len(violations) < 3 {
		return DynamicQuantileResult{}, core.InsufficientData("dynamic quantile test needs at least 3 observations")
	}

	n := float64(len(violations))
	y := make([]float64, len(violations))
	for i, hit := range violations {
		if hit {
			y[i] = 1
		}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, x := range laggedValues {
		sumX += x
		sumY += y[i]
		sumXY += x * y[i]
		sumX2 += x * x
	}

	meanX := sumX / n
	meanY := sumY / n
	sxx := sumX2 - n*meanX*meanX

	if sxx <= 0 {
		// constant regressor carries no information
		return DynamicQuantileResult{
			TestStatistic: 0,
			PValue:        1,
			Coefficients:  RegressionCoefficients{Intercept: meanY, Slope: 0},
			RSquared:      0,
		}, nil
	}

	slope := (sumXY - n*meanX*meanY) / sxx
	intercept := meanY - slope*meanX

	var sse, sst float64
	for i, x := range laggedValues {
		resid := y[i] - (intercept + slope*x)
		sse += resid * resid
		dev := y[i] - meanY
		sst += dev * dev
	}

	rSquared := 0.0
	if sst > 0 {
		rSquared = 1 - sse/sst
	}

	// F = t^2 with t = slope / se(slope)
	mse := sse / (n - 2)
	f := 0.0
	if mse > 0 {
		f = slope * slope * sxx / mse
	}

	return DynamicQuantileResult{
		TestStatistic: f,
		PValue:        clampP(1 - s.dist.FCDF(f, 1, int(n)-2)),
		Coefficients:  RegressionCoefficients{Intercept: intercept, Slope: slope},
		RSquared:      rSquared,
	}, nil
}
