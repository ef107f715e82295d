// Package threshold provides Peak-Over-Threshold model diagnostics: the
// mean-residual-life curve and the GPD parameter-stability curve. Both are
// exploratory sweep tools and degrade gracefully, omitting thresholds with
// too few exceedances instead of failing the whole sweep.
package threshold

import (
	"math"

	"github.com/montanaflynn/stats"

	"evtlab/domain/core"
)

const (
	// minExcessesMRL is the minimum exceedance count for a mean-excess point.
	minExcessesMRL = 5
	// minExcessesStability is the minimum exceedance count for a GPD fit.
	minExcessesStability = 20
	// degenerateMomentEps bounds |2R-1| below which the moment ratio is
	// treated as the exponential special case.
	degenerateMomentEps = 1e-6
)

// MeanExcessPoint is one point on the mean-residual-life curve.
type MeanExcessPoint struct {
	Threshold  float64 `json:"threshold"`
	MeanExcess float64 `json:"mean_excess"`
	LowerCI    float64 `json:"lower_ci"`
	UpperCI    float64 `json:"upper_ci"`
}

// StabilityPoint is one point on the GPD parameter-stability curve. The
// modified scale sigma - xi*u should be approximately constant across
// thresholds when the GPD model holds; that flatness is the diagnostic.
type StabilityPoint struct {
	Threshold     float64 `json:"threshold"`
	Shape         float64 `json:"shape"`
	Scale         float64 `json:"scale"`
	ModifiedScale float64 `json:"modified_scale"`
}

// MeanResidualLife sweeps steps+1 equally spaced thresholds over
// [minThreshold, maxThreshold] and reports the sample mean excess with a
// 95% normal confidence band at each. Thresholds with fewer than 5
// exceedances are omitted, so the result can be shorter than steps+1.
func MeanResidualLife(data []float64, minThreshold, maxThreshold float64, steps int) ([]MeanExcessPoint, error) {
	if steps < 1 {
		return nil, core.InvalidParameterf("steps must be at least 1, got %d", steps)
	}
	if maxThreshold <= minThreshold {
		return nil, core.InvalidParameterf("threshold range is empty: [%g, %g]", minThreshold, maxThreshold)
	}

	points := make([]MeanExcessPoint, 0, steps+1)
	width := (maxThreshold - minThreshold) / float64(steps)

	for i := 0; i <= steps; i++ {
		u := minThreshold + float64(i)*width
		excesses := excessesOver(data, u)
		if len(excesses) < minExcessesMRL {
			continue
		}

		meanExcess, err := stats.Mean(excesses)
		if err != nil {
			continue
		}
		variance, err := stats.SampleVariance(excesses)
		if err != nil {
			continue
		}
		stdErr := math.Sqrt(variance / float64(len(excesses)))

		points = append(points, MeanExcessPoint{
			Threshold:  u,
			MeanExcess: meanExcess,
			LowerCI:    meanExcess - 1.96*stdErr,
			UpperCI:    meanExcess + 1.96*stdErr,
		})
	}

	return points, nil
}

// ParameterStability sweeps steps+1 thresholds and fits a GPD to the
// exceedances of each by method of moments. Thresholds with fewer than 20
// exceedances are omitted.
func ParameterStability(data []float64, minThreshold, maxThreshold float64, steps int) ([]StabilityPoint, error) {
	if steps < 1 {
		return nil, core.InvalidParameterf("steps must be at least 1, got %d", steps)
	}
	if maxThreshold <= minThreshold {
		return nil, core.InvalidParameterf("threshold range is empty: [%g, %g]", minThreshold, maxThreshold)
	}

	points := make([]StabilityPoint, 0, steps+1)
	width := (maxThreshold - minThreshold) / float64(steps)

	for i := 0; i <= steps; i++ {
		u := minThreshold + float64(i)*width
		excesses := excessesOver(data, u)
		if len(excesses) < minExcessesStability {
			continue
		}

		shape, scale, ok := FitGPDMoments(excesses)
		if !ok {
			continue
		}

		points = append(points, StabilityPoint{
			Threshold:     u,
			Shape:         shape,
			Scale:         scale,
			ModifiedScale: scale - shape*u,
		})
	}

	return points, nil
}

// FitGPDMoments fits a Generalized Pareto distribution to a sample of
// excesses by method of moments. With moment ratio R = variance/mean^2:
//
//	xi    = 0.5 * (R - 1) / (R - 0.5), clamped to [-1, 0.5]
//	sigma = mean * (1 - xi)
//
// When |2R - 1| is vanishingly small the moment equations degenerate; that
// case falls back to the exponential fit xi = 0, sigma = mean. The branch
// is deliberate and load-bearing, the general formula divides by R - 0.5.
func FitGPDMoments(excesses []float64) (shape, scale float64, ok bool) {
	if len(excesses) < 2 {
		return 0, 0, false
	}

	mean, err := stats.Mean(excesses)
	if err != nil || mean <= 0 {
		return 0, 0, false
	}
	variance, err := stats.SampleVariance(excesses)
	if err != nil || variance <= 0 {
		return 0, 0, false
	}

	r := variance / (mean * mean)
	if math.Abs(2*r-1) < degenerateMomentEps {
		// exponential special case
		return 0, mean, true
	}

	shape = 0.5 * (r - 1) / (r - 0.5)
	if shape < -1 {
		shape = -1
	}
	if shape > 0.5 {
		shape = 0.5
	}
	scale = mean * (1 - shape)
	return shape, scale, true
}

func excessesOver(data []float64, u float64) []float64 {
	excesses := make([]float64, 0)
	for _, x := range data {
		if x > u {
			excesses = append(excesses, x-u)
		}
	}
	return excesses
}
