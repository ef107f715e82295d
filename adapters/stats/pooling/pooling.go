// Package pooling implements the multi-site hierarchical estimators: an
// independent no-pooling baseline and an empirical-Bayes partial-pooling
// (shrinkage-to-population-mean) estimator with credible-interval
// approximations.
package pooling

import (
	"math"

	"github.com/montanaflynn/stats"

	"evtlab/adapters/stats/gev"
	"evtlab/domain/evt"
)

const (
	// minBlockMaxima is the sample count below which a site falls back to
	// its supplied prior parameters.
	minBlockMaxima = 5
	// shrinkagePrior controls how fast the shrinkage weight n/(n+prior)
	// approaches 1 with sample size.
	shrinkagePrior = 50.0
	// maxWeight caps the shrinkage weight so even a huge site keeps a sliver
	// of population information.
	maxWeight = 0.95
)

// Model summarizes the population layer of a partial-pooling fit.
type Model struct {
	Mu0Pop   float64 `json:"mu0_pop"`
	Zeta0Pop float64 `json:"zeta0_pop"`
	// Tau is the population standard deviation of the site location
	// intercepts, used as the scale of the standard-error approximation.
	Tau float64 `json:"tau"`
	Xi  float64 `json:"xi"`
}

// ShrinkageWeight is the empirical-Bayes blending weight for a site with n
// observations: min(0.95, n/(n+50)). It rises monotonically with n, so
// large sites converge to their own estimate and empty sites to the
// population mean. The n+50 denominator never divides by zero.
func ShrinkageWeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	w := float64(n) / (float64(n) + shrinkagePrior)
	return math.Min(maxWeight, w)
}

// NoPooling estimates each site's GEV parameters independently from its own
// block maxima via simplified method of moments with a fixed shape:
//
//	sigma = sqrt(0.8 * variance)
//	mu    = mean - 0.5 * sigma
//
// Sites with fewer than 5 block maxima fall back to their supplied prior
// (mu0, zeta0). The shape xi is shared across sites and never estimated
// here.
func NoPooling(sites []evt.Site, blockMaxima map[string][]float64, xi float64) []evt.SiteEstimate {
	estimates := make([]evt.SiteEstimate, 0, len(sites))
	for _, site := range sites {
		mu0, zeta0 := estimateSite(site, blockMaxima[site.ID.String()])
		estimates = append(estimates, newEstimate(site, mu0, zeta0, xi))
	}
	return estimates
}

// PartialPooling blends each site's no-pooling estimate toward the
// population mean with the shrinkage weight, and attaches an approximate
// 95% credible interval mu0 +/- 1.96*se with se = tau/sqrt(max(n/50, 1)).
//
// Invariant: as n grows the weight approaches its cap and the blended
// estimate converges to the no-pooling one; as n shrinks to zero it
// converges to the population mean.
func PartialPooling(sites []evt.Site, blockMaxima map[string][]float64, xi float64) (Model, []evt.SiteEstimate) {
	if len(sites) == 0 {
		return Model{Xi: xi}, nil
	}

	// No-pooling baseline feeds both the population summary and the
	// per-site blend.
	siteMu := make([]float64, len(sites))
	siteZeta := make([]float64, len(sites))
	for i, site := range sites {
		siteMu[i], siteZeta[i] = estimateSite(site, blockMaxima[site.ID.String()])
	}

	mu0Pop, _ := stats.Mean(siteMu)
	zeta0Pop, _ := stats.Mean(siteZeta)
	tau := 0.0
	if len(sites) > 1 {
		tau, _ = stats.StandardDeviationSample(siteMu)
	}

	model := Model{Mu0Pop: mu0Pop, Zeta0Pop: zeta0Pop, Tau: tau, Xi: xi}

	estimates := make([]evt.SiteEstimate, 0, len(sites))
	for i, site := range sites {
		n := sampleSize(site, blockMaxima[site.ID.String()])
		w := ShrinkageWeight(n)

		mu0 := w*siteMu[i] + (1-w)*mu0Pop
		zeta0 := w*siteZeta[i] + (1-w)*zeta0Pop

		est := newEstimate(site, mu0, zeta0, xi)

		se := tau / math.Sqrt(math.Max(float64(n)/shrinkagePrior, 1))
		lower := mu0 - 1.96*se
		upper := mu0 + 1.96*se
		est.Mu0Lower = &lower
		est.Mu0Upper = &upper

		estimates = append(estimates, est)
	}

	return model, estimates
}

// estimateSite is the per-site no-pooling estimator with prior fallback.
func estimateSite(site evt.Site, maxima []float64) (mu0, zeta0 float64) {
	if len(maxima) < minBlockMaxima {
		return site.Mu0, site.Zeta0
	}

	mean, err := stats.Mean(maxima)
	if err != nil {
		return site.Mu0, site.Zeta0
	}
	variance, err := stats.SampleVariance(maxima)
	if err != nil || variance <= 0 {
		return site.Mu0, site.Zeta0
	}

	sigma := math.Sqrt(0.8 * variance)
	mu0 = mean - 0.5*sigma
	zeta0 = math.Log(sigma)
	return mu0, zeta0
}

// sampleSize prefers the site's declared sample size and falls back to the
// observed block-maxima count.
func sampleSize(site evt.Site, maxima []float64) int {
	if site.SampleSize > 0 {
		return site.SampleSize
	}
	return len(maxima)
}

func newEstimate(site evt.Site, mu0, zeta0, xi float64) evt.SiteEstimate {
	sigma0 := math.Exp(zeta0)
	risk, err := gev.CrashRisk(evt.GEVParams{Mu: mu0, Sigma: sigma0, Xi: xi})
	if err != nil {
		risk = 0
	}
	return evt.SiteEstimate{
		SiteID:    site.ID,
		Mu0:       mu0,
		Zeta0:     zeta0,
		Sigma0:    sigma0,
		CrashRisk: risk,
	}
}
