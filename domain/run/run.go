// Package run defines the persisted record of a multi-site analysis run.
package run

import (
	"time"

	"evtlab/domain/core"
	"evtlab/domain/evt"
)

// AnalysisRun is the audit record of one multi-site risk analysis: the
// population layer of the hierarchical fit plus the per-site estimates.
// Identical requests produce identical fingerprints, so reruns can be
// recognized in the ledger.
type AnalysisRun struct {
	ID          core.RunID         `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Fingerprint core.Hash          `json:"fingerprint"`
	Xi          float64            `json:"xi"`
	VaRLevel    float64            `json:"var_level"`
	Mu0Pop      float64            `json:"mu0_pop"`
	Zeta0Pop    float64            `json:"zeta0_pop"`
	Tau         float64            `json:"tau"`
	Estimates   []evt.SiteEstimate `json:"estimates"`
	RuntimeMs   int64              `json:"runtime_ms"`
}
