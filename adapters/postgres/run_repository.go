package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"evtlab/domain/core"
	"evtlab/domain/evt"
	"evtlab/domain/run"
)

const runSchema = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id          TEXT PRIMARY KEY,
		created_at  TIMESTAMPTZ NOT NULL,
		fingerprint TEXT NOT NULL,
		xi          DOUBLE PRECISION NOT NULL,
		var_level   DOUBLE PRECISION NOT NULL,
		mu0_pop     DOUBLE PRECISION NOT NULL,
		zeta0_pop   DOUBLE PRECISION NOT NULL,
		tau         DOUBLE PRECISION NOT NULL,
		estimates   JSONB NOT NULL,
		runtime_ms  BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at
		ON analysis_runs (created_at DESC)`

// RunRepository persists analysis runs. Implements ports.RunLedger.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the runs table if it does not exist
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, runSchema); err != nil {
		return core.Wrap(core.DatabaseError(err.Error()), "failed to create analysis_runs schema")
	}
	return nil
}

// StoreRun inserts an analysis run with its per-site estimates as JSONB
func (r *RunRepository) StoreRun(ctx context.Context, analysisRun *run.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			id, created_at, fingerprint, xi, var_level,
			mu0_pop, zeta0_pop, tau, estimates, runtime_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	estimatesJSON, err := json.Marshal(analysisRun.Estimates)
	if err != nil {
		return core.Wrap(err, "failed to marshal site estimates")
	}

	_, err = r.db.ExecContext(ctx, query,
		analysisRun.ID.String(),
		analysisRun.CreatedAt,
		analysisRun.Fingerprint.String(),
		analysisRun.Xi,
		analysisRun.VaRLevel,
		analysisRun.Mu0Pop,
		analysisRun.Zeta0Pop,
		analysisRun.Tau,
		estimatesJSON,
		analysisRun.RuntimeMs,
	)
	if err != nil {
		return core.Wrap(core.DatabaseError(err.Error()), "failed to insert analysis run")
	}

	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error) {
	query := `
		SELECT id, created_at, fingerprint, xi, var_level,
			   mu0_pop, zeta0_pop, tau, estimates, runtime_ms
		FROM analysis_runs
		WHERE id = $1`

	analysisRun, err := scanRun(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NotFound("analysis run")
		}
		return nil, core.Wrap(core.DatabaseError(err.Error()), "failed to get analysis run")
	}

	return analysisRun, nil
}

// ListRuns returns up to limit runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]run.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, fingerprint, xi, var_level,
			   mu0_pop, zeta0_pop, tau, estimates, runtime_ms
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, core.Wrap(core.DatabaseError(err.Error()), "failed to list analysis runs")
	}
	defer rows.Close()

	var runs []run.AnalysisRun
	for rows.Next() {
		analysisRun, err := scanRun(rows)
		if err != nil {
			return nil, core.Wrap(core.DatabaseError(err.Error()), "failed to scan analysis run")
		}
		runs = append(runs, *analysisRun)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.DatabaseError(err.Error()), "failed to iterate analysis runs")
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*run.AnalysisRun, error) {
	var (
		analysisRun   run.AnalysisRun
		id            string
		fingerprint   string
		createdAt     time.Time
		estimatesJSON []byte
	)

	err := row.Scan(
		&id,
		&createdAt,
		&fingerprint,
		&analysisRun.Xi,
		&analysisRun.VaRLevel,
		&analysisRun.Mu0Pop,
		&analysisRun.Zeta0Pop,
		&analysisRun.Tau,
		&estimatesJSON,
		&analysisRun.RuntimeMs,
	)
	if err != nil {
		return nil, err
	}

	analysisRun.ID = core.RunID(id)
	analysisRun.CreatedAt = createdAt
	analysisRun.Fingerprint = core.Hash(fingerprint)

	var estimates []evt.SiteEstimate
	if err := json.Unmarshal(estimatesJSON, &estimates); err != nil {
		return nil, err
	}
	analysisRun.Estimates = estimates

	return &analysisRun, nil
}
