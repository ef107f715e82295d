package app

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"evtlab/adapters/stats/gev"
	"evtlab/adapters/stats/pooling"
	"evtlab/domain/core"
	"evtlab/domain/evt"
	"evtlab/domain/run"
	"evtlab/ports"
)

// AnalysisService orchestrates a multi-site extreme value analysis: fit the
// hierarchical pooling layer, then derive per-site risk measures from the
// pooled parameters.
type AnalysisService struct {
	ledger ports.RunLedgerWriter // optional, nil skips persistence
}

// AnalysisRequest defines the inputs for a deterministic multi-site analysis
type AnalysisRequest struct {
	Sites       []evt.Site           `json:"sites"`
	BlockMaxima map[string][]float64 `json:"block_maxima"`
	Xi          float64              `json:"xi"`
	VaRLevel    float64              `json:"var_level"`
	RunID       core.RunID           `json:"-"` // optional, generated if empty
}

// SiteRisk carries the derived risk measures for one site.
type SiteRisk struct {
	SiteID    core.SiteID `json:"site_id"`
	CrashRisk float64     `json:"crash_risk"`
	VaR       float64     `json:"var"`
	CVaR      float64     `json:"cvar"`
}

// AnalysisResult contains the complete output of an analysis run
type AnalysisResult struct {
	Run       *run.AnalysisRun   `json:"run"`
	Estimates []evt.SiteEstimate `json:"estimates"`
	Risks     []SiteRisk         `json:"risks"`
}

// NewAnalysisService creates an analysis service. Pass nil for ledger to run
// without persistence.
func NewAnalysisService(ledger ports.RunLedgerWriter) *AnalysisService {
	return &AnalysisService{ledger: ledger}
}

// RunAnalysis executes the full pipeline: partial pooling across sites, then
// per-site crash risk, VaR, and CVaR computed concurrently.
func (s *AnalysisService) RunAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	startTime := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}

	model, estimates := pooling.PartialPooling(req.Sites, req.BlockMaxima, req.Xi)

	risks := make([]SiteRisk, len(estimates))
	g, gctx := errgroup.WithContext(ctx)
	for i, est := range estimates {
		i, est := i, est
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			risk, err := siteRisk(est, req.Xi, req.VaRLevel)
			if err != nil {
				return core.Wrapf(err, "risk computation failed for site %s", est.SiteID)
			}
			risks[i] = risk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fingerprint, err := core.Fingerprint(req)
	if err != nil {
		return nil, core.Wrap(err, "fingerprint computation failed")
	}

	analysisRun := &run.AnalysisRun{
		ID:          runID,
		CreatedAt:   startTime.UTC(),
		Fingerprint: fingerprint,
		Xi:          req.Xi,
		VaRLevel:    req.VaRLevel,
		Mu0Pop:      model.Mu0Pop,
		Zeta0Pop:    model.Zeta0Pop,
		Tau:         model.Tau,
		Estimates:   estimates,
		RuntimeMs:   time.Since(startTime).Milliseconds(),
	}

	if s.ledger != nil {
		if err := s.ledger.StoreRun(ctx, analysisRun); err != nil {
			return nil, core.Wrap(err, "failed to persist analysis run")
		}
	}

	return &AnalysisResult{
		Run:       analysisRun,
		Estimates: estimates,
		Risks:     risks,
	}, nil
}

func validateRequest(req AnalysisRequest) error {
	if len(req.Sites) == 0 {
		return core.InsufficientData("analysis requires at least one site")
	}
	if req.VaRLevel <= 0 || req.VaRLevel >= 100 {
		return core.InvalidParameterf("VaR level must be in (0, 100), got %v", req.VaRLevel)
	}
	if math.Abs(req.Xi) >= 1 {
		return core.InvalidParameterf("shape parameter must satisfy |xi| < 1, got %v", req.Xi)
	}
	return nil
}

func siteRisk(est evt.SiteEstimate, xi, varLevel float64) (SiteRisk, error) {
	params := evt.GEVParams{Mu: est.Mu0, Sigma: est.Sigma0, Xi: xi}

	crashRisk, err := gev.CrashRisk(params)
	if err != nil {
		return SiteRisk{}, err
	}
	varValue, err := gev.ValueAtRisk(varLevel, params)
	if err != nil {
		return SiteRisk{}, err
	}
	cvar, err := gev.ConditionalValueAtRisk(params, varLevel, varValue)
	if err != nil {
		return SiteRisk{}, err
	}

	return SiteRisk{
		SiteID:    est.SiteID,
		CrashRisk: crashRisk,
		VaR:       varValue,
		CVaR:      cvar,
	}, nil
}
