package backtest

import (
	"math"
	"testing"
)

// TestLegacyNormalCDF_MatchesExact: the Abramowitz-Stegun approximation is
// accurate to better than 1e-7 absolute error.
func TestLegacyNormalCDF_MatchesExact(t *testing.T) {
	legacy := LegacyDistributions{}
	exact := ExactDistributions{}

	for x := -6.0; x <= 6.0; x += 0.05 {
		a, b := legacy.NormalCDF(x), exact.NormalCDF(x)
		if math.Abs(a-b) > 1e-6 {
			t.Errorf("Normal CDF mismatch at x=%g: legacy %g, exact %g", x, a, b)
		}
	}

	if got := legacy.NormalCDF(0); math.Abs(got-0.5) > 1e-8 {
		t.Errorf("Expected Phi(0)=0.5, got %g", got)
	}
}

// TestLegacyChiSquareCDF_DF1: the df=1 normal relation is near-exact.
func TestLegacyChiSquareCDF_DF1(t *testing.T) {
	legacy := LegacyDistributions{}
	exact := ExactDistributions{}

	for x := 0.1; x <= 20; x += 0.1 {
		a, b := legacy.ChiSquareCDF(x, 1), exact.ChiSquareCDF(x, 1)
		if math.Abs(a-b) > 1e-5 {
			t.Errorf("Chi-square df=1 mismatch at x=%g: legacy %g, exact %g", x, a, b)
		}
	}
}

// TestLegacyChiSquareCDF_DF2: the exponential form happens to be the true
// chi-square CDF at two degrees of freedom, so legacy and exact agree.
func TestLegacyChiSquareCDF_DF2(t *testing.T) {
	legacy := LegacyDistributions{}
	exact := ExactDistributions{}

	for x := 0.5; x <= 20; x += 0.5 {
		a, b := legacy.ChiSquareCDF(x, 2), exact.ChiSquareCDF(x, 2)
		if math.Abs(a-b) > 1e-9 {
			t.Errorf("Chi-square df=2 mismatch at x=%g: legacy %g, exact %g", x, a, b)
		}
	}
}

// TestLegacyChiSquareCDF_HigherDFDiverges documents the known precision
// limitation: for df >= 3 the placeholder is materially wrong, which is why
// ExactDistributions exists.
func TestLegacyChiSquareCDF_HigherDFDiverges(t *testing.T) {
	legacy := LegacyDistributions{}
	exact := ExactDistributions{}

	// chi-square df=5 at x=5: true CDF ~ 0.584, placeholder gives
	// 1-exp(-2.5) ~ 0.918
	a, b := legacy.ChiSquareCDF(5, 5), exact.ChiSquareCDF(5, 5)
	if math.Abs(a-b) < 0.1 {
		t.Errorf("Expected material divergence at df=5, legacy %g vs exact %g", a, b)
	}
}

// TestLegacyFCDF_LargeDenominator: with df1=1 and a large df2 the normal
// relation tracks the true F CDF closely.
func TestLegacyFCDF_LargeDenominator(t *testing.T) {
	legacy := LegacyDistributions{}
	exact := ExactDistributions{}

	for _, f := range []float64{0.5, 1, 2, 4, 8} {
		a, b := legacy.FCDF(f, 1, 200), exact.FCDF(f, 1, 200)
		if math.Abs(a-b) > 0.01 {
			t.Errorf("F CDF mismatch at f=%g: legacy %g, exact %g", f, a, b)
		}
	}
}

// TestCDFBounds: every CDF stays within [0,1] and is 0 at or below the
// origin of its support.
func TestCDFBounds(t *testing.T) {
	for _, dist := range []Distributions{LegacyDistributions{}, ExactDistributions{}} {
		if got := dist.ChiSquareCDF(-1, 1); got != 0 {
			t.Errorf("Expected 0 for negative chi-square argument, got %g", got)
		}
		if got := dist.FCDF(-1, 1, 50); got != 0 {
			t.Errorf("Expected 0 for negative F argument, got %g", got)
		}
		for x := 0.0; x <= 50; x += 2.5 {
			for _, df := range []int{1, 2, 3, 10} {
				if p := dist.ChiSquareCDF(x, df); p < 0 || p > 1 {
					t.Errorf("Chi-square CDF out of bounds at x=%g df=%d: %g", x, df, p)
				}
			}
		}
	}
}

// TestSuiteConstructors wire the expected distribution sets.
func TestSuiteConstructors(t *testing.T) {
	if _, ok := NewSuite().dist.(LegacyDistributions); !ok {
		t.Error("NewSuite should use the legacy approximations")
	}
	if _, ok := NewExactSuite().dist.(ExactDistributions); !ok {
		t.Error("NewExactSuite should use exact distributions")
	}
	custom := NewSuiteWith(ExactDistributions{})
	if _, ok := custom.dist.(ExactDistributions); !ok {
		t.Error("NewSuiteWith should use the injected set")
	}
}
