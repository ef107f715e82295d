package evt

import (
	"math"

	"evtlab/domain/core"
)

// GEVParams is the three-parameter descriptor of a Generalized Extreme Value
// distribution: location mu, scale sigma (> 0), shape xi.
type GEVParams struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
	Xi    float64 `json:"xi"`
}

// Validate checks the sigma > 0 invariant.
func (p GEVParams) Validate() error {
	if p.Sigma <= 0 {
		return core.InvalidParameterf("sigma must be positive, got %g", p.Sigma)
	}
	if math.IsNaN(p.Mu) || math.IsNaN(p.Sigma) || math.IsNaN(p.Xi) {
		return core.InvalidParameter("GEV parameters must not be NaN")
	}
	return nil
}

// UpperBound returns the upper end of the distribution's support. The second
// return value is false when the support is unbounded above (xi >= 0).
func (p GEVParams) UpperBound() (float64, bool) {
	if p.Xi < 0 {
		return p.Mu - p.Sigma/p.Xi, true
	}
	return math.Inf(1), false
}

// Covariate is an explanatory factor with linear effect coefficients on
// location (BetaMu) and log-scale (BetaZeta).
type Covariate struct {
	ID       core.CovariateID `json:"id"`
	Name     string           `json:"name"`
	Value    float64          `json:"value"`
	BetaMu   float64          `json:"beta_mu"`
	BetaZeta float64          `json:"beta_zeta"`
}

// GEVParameters holds baseline hyperparameters; effective mu and sigma are
// derived through the covariate link, xi is fixed and never covariate-linked.
type GEVParameters struct {
	Mu0        float64     `json:"mu0"`
	Zeta0      float64     `json:"zeta0"`
	Xi         float64     `json:"xi"`
	Covariates []Covariate `json:"covariates,omitempty"`
}

// Observation is a single conflict/extreme-value sample with an arrival time.
type Observation struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Values extracts the raw sample values from an observation series.
func Values(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}

// Site is one location's baseline hierarchical parameters.
type Site struct {
	ID         core.SiteID `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Mu0        float64     `json:"mu0"`
	Zeta0      float64     `json:"zeta0"`
	SampleSize int         `json:"sample_size"`
}

// SiteEstimate is the per-site output of a pooling estimator. Interval bounds
// are nil when the estimator does not produce them (no-pooling path).
type SiteEstimate struct {
	SiteID    core.SiteID `json:"site_id"`
	Mu0       float64     `json:"mu0"`
	Zeta0     float64     `json:"zeta0"`
	Sigma0    float64     `json:"sigma0"`
	Mu0Lower  *float64    `json:"mu0_lower,omitempty"`
	Mu0Upper  *float64    `json:"mu0_upper,omitempty"`
	CrashRisk float64     `json:"crash_risk"`
}
