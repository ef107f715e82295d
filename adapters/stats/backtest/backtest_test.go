package backtest

import (
	"math"
	"testing"

	"evtlab/domain/core"
)

// TestKupiec_ExactMatch: 50 violations in 1000 observations at a 5%
// expected rate is a perfect hit, the test must fail to reject.
func TestKupiec_ExactMatch(t *testing.T) {
	suite := NewSuite()

	result, err := suite.Kupiec(50, 1000, 0.05)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.PValue <= 0.9 {
		t.Errorf("Expected p-value > 0.9 for exact coverage, got %g", result.PValue)
	}
	if result.ObservedRate != 0.05 {
		t.Errorf("Expected observed rate 0.05, got %g", result.ObservedRate)
	}
	if result.TestStatistic > 1e-6 {
		t.Errorf("Expected near-zero statistic, got %g", result.TestStatistic)
	}
}

// TestKupiec_GrossMismatch: 200 violations where 50 were expected must be
// rejected decisively.
func TestKupiec_GrossMismatch(t *testing.T) {
	suite := NewSuite()

	result, err := suite.Kupiec(200, 1000, 0.05)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.PValue >= 0.01 {
		t.Errorf("Expected p-value < 0.01 for gross mismatch, got %g", result.PValue)
	}
	if result.TestStatistic <= 0 {
		t.Errorf("Expected large positive statistic, got %g", result.TestStatistic)
	}
}

// TestKupiec_Validation covers the hard preconditions.
func TestKupiec_Validation(t *testing.T) {
	suite := NewSuite()

	cases := []struct {
		name     string
		x, n     int
		rate     float64
	}{
		{"zero observations", 0, 0, 0.05},
		{"negative violations", -1, 100, 0.05},
		{"violations exceed total", 101, 100, 0.05},
		{"rate zero", 5, 100, 0},
		{"rate one", 5, 100, 1},
	}

	for _, tc := range cases {
		if _, err := suite.Kupiec(tc.x, tc.n, tc.rate); !core.IsCode(err, core.CodeInvalidParameter) {
			t.Errorf("%s: expected INVALID_PARAMETER, got %v", tc.name, err)
		}
	}
}

// TestKupiec_PValueBounds sweeps violation counts and checks p stays in
// [0,1] even where the approximation is stressed.
func TestKupiec_PValueBounds(t *testing.T) {
	suite := NewSuite()
	for x := 0; x <= 500; x += 25 {
		result, err := suite.Kupiec(x, 500, 0.05)
		if err != nil {
			t.Fatalf("Unexpected error at x=%d: %v", x, err)
		}
		if result.PValue < 0 || result.PValue > 1 {
			t.Errorf("p-value out of [0,1] at x=%d: %g", x, result.PValue)
		}
	}
}

// independentViolations builds a 101-element sequence whose transition
// counts satisfy pi0 == pi1 == 0.1 exactly, so the independence statistic
// is identically zero: eight isolated violations, one double, padding
// zeros.
func independentViolations() ViolationSequence {
	seq := make(ViolationSequence, 0, 101)
	for g := 0; g < 8; g++ {
		for i := 0; i < 9; i++ {
			seq = append(seq, false)
		}
		seq = append(seq, true)
	}
	for i := 0; i < 9; i++ {
		seq = append(seq, false)
	}
	seq = append(seq, true, true)
	for i := 0; i < 10; i++ {
		seq = append(seq, false)
	}
	return seq
}

// clusteredViolations packs the same overall rate into long runs.
func clusteredViolations(n, runs, runLen int) ViolationSequence {
	seq := make(ViolationSequence, n)
	gap := n / runs
	for r := 0; r < runs; r++ {
		start := r * gap
		for i := 0; i < runLen && start+i < n; i++ {
			seq[start+i] = true
		}
	}
	return seq
}

// TestChristoffersen_IndependentSequence: a sequence with matched
// conditional violation rates must not be flagged for dependence, and its
// UC component must reproduce Kupiec on the same data.
func TestChristoffersen_IndependentSequence(t *testing.T) {
	suite := NewSuite()
	seq := independentViolations()

	result, err := suite.Christoffersen(seq, 0.1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Independence.Statistic > 1e-6 {
		t.Errorf("Expected zero independence statistic, got %g", result.Independence.Statistic)
	}
	if result.Independence.PValue < 0.99 {
		t.Errorf("Expected independence p ~ 1, got %g", result.Independence.PValue)
	}

	kupiec, err := suite.Kupiec(seq.Count(), len(seq), 0.1)
	if err != nil {
		t.Fatalf("Kupiec failed: %v", err)
	}
	if math.Abs(result.UnconditionalCoverage.Statistic-kupiec.TestStatistic) > 1e-12 {
		t.Errorf("UC statistic %g does not reproduce Kupiec %g",
			result.UnconditionalCoverage.Statistic, kupiec.TestStatistic)
	}

	if got, want := result.ConditionalCoverage.Statistic,
		result.UnconditionalCoverage.Statistic+result.Independence.Statistic; math.Abs(got-want) > 1e-12 {
		t.Errorf("CC statistic %g is not UC+IND %g", got, want)
	}
}

// TestChristoffersen_ClusteredSequence: violations packed into runs at the
// right overall rate must be rejected on independence.
func TestChristoffersen_ClusteredSequence(t *testing.T) {
	suite := NewSuite()
	// 50 violations in 1000 observations, but in 5 runs of 10
	seq := clusteredViolations(1000, 5, 10)

	result, err := suite.Christoffersen(seq, 0.05)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Independence.PValue >= 0.01 {
		t.Errorf("Expected clustering rejected (p < 0.01), got %g", result.Independence.PValue)
	}
	if result.ConditionalCoverage.PValue >= 0.05 {
		t.Errorf("Expected conditional coverage rejected, got %g", result.ConditionalCoverage.PValue)
	}
	// rate is correct, the UC component alone should not scream
	if result.UnconditionalCoverage.PValue <= 0.1 {
		t.Errorf("Expected UC to pass at matched rate, got %g", result.UnconditionalCoverage.PValue)
	}
}

// TestChristoffersen_Validation covers short sequences and bad rates.
func TestChristoffersen_Validation(t *testing.T) {
	suite := NewSuite()

	if _, err := suite.Christoffersen(ViolationSequence{true}, 0.05); !core.IsCode(err, core.CodeInsufficientData) {
		t.Errorf("Expected INSUFFICIENT_DATA for length-1 sequence, got %v", err)
	}
	if _, err := suite.Christoffersen(independentViolations(), 0); !core.IsCode(err, core.CodeInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for rate 0, got %v", err)
	}
}

// TestDynamicQuantile_NoRelationship uses a lagged regressor constructed to
// be exactly orthogonal to the violation indicator: slope 0, F 0, p 1.
func TestDynamicQuantile_NoRelationship(t *testing.T) {
	suite := NewSuite()

	n := 100
	violations := make(ViolationSequence, n)
	lagged := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			lagged[i] = 1
		} else {
			lagged[i] = -1
		}
	}
	// five violations on +1 positions, five on -1 positions
	for i := 0; i < 5; i++ {
		violations[2*i] = true
		violations[2*i+1] = true
	}

	result, err := suite.DynamicQuantile(violations, lagged)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result.Coefficients.Slope) > 1e-12 {
		t.Errorf("Expected slope 0, got %g", result.Coefficients.Slope)
	}
	if result.PValue < 0.99 {
		t.Errorf("Expected p ~ 1, got %g", result.PValue)
	}
	if math.Abs(result.RSquared) > 1e-12 {
		t.Errorf("Expected R^2 0, got %g", result.RSquared)
	}
}

// TestDynamicQuantile_StrongRelationship: violations that fire exactly when
// the lagged value is high must be rejected decisively.
func TestDynamicQuantile_StrongRelationship(t *testing.T) {
	suite := NewSuite()

	n := 200
	violations := make(ViolationSequence, n)
	lagged := make([]float64, n)
	for i := 0; i < n; i++ {
		lagged[i] = float64(i) / float64(n)
		violations[i] = lagged[i] > 0.9
	}

	result, err := suite.DynamicQuantile(violations, lagged)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.PValue >= 0.01 {
		t.Errorf("Expected rejection (p < 0.01), got %g", result.PValue)
	}
	if result.Coefficients.Slope <= 0 {
		t.Errorf("Expected positive slope, got %g", result.Coefficients.Slope)
	}
	if result.RSquared <= 0.1 {
		t.Errorf("Expected substantial R^2, got %g", result.RSquared)
	}
}

// TestDynamicQuantile_ConstantRegressor degrades to a null result instead
// of dividing by zero.
func TestDynamicQuantile_ConstantRegressor(t *testing.T) {
	suite := NewSuite()

	violations := ViolationSequence{true, false, false, true, false}
	lagged := []float64{2, 2, 2, 2, 2}

	result, err := suite.DynamicQuantile(violations, lagged)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Coefficients.Slope != 0 || result.PValue != 1 {
		t.Errorf("Expected null result for constant regressor, got %+v", result)
	}
}

// TestDynamicQuantile_Validation covers the dimension and size
// preconditions.
func TestDynamicQuantile_Validation(t *testing.T) {
	suite := NewSuite()

	_, err := suite.DynamicQuantile(ViolationSequence{true, false}, []float64{1})
	if !core.IsCode(err, core.CodeDimensionMismatch) {
		t.Errorf("Expected DIMENSION_MISMATCH, got %v", err)
	}

	_, err = suite.DynamicQuantile(ViolationSequence{true, false}, []float64{1, 2})
	if !core.IsCode(err, core.CodeInsufficientData) {
		t.Errorf("Expected INSUFFICIENT_DATA, got %v", err)
	}
}

// TestNewViolationSequence derives indicators with the >= convention.
func TestNewViolationSequence(t *testing.T) {
	values := []float64{1.0, 2.5, 2.49, 3.0, 0.0}
	seq := NewViolationSequence(values, 2.5)

	want := []bool{false, true, false, true, false}
	for i, hit := range seq {
		if hit != want[i] {
			t.Errorf("Index %d: expected %v, got %v", i, want[i], hit)
		}
	}
	if seq.Count() != 2 {
		t.Errorf("Expected 2 violations, got %d", seq.Count())
	}
}
