package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evtlab/adapters/report"
	"evtlab/adapters/stats/backtest"
	"evtlab/adapters/stats/gev"
	"evtlab/adapters/stats/pooling"
	"evtlab/adapters/stats/threshold"
	"evtlab/app"
	"evtlab/domain/core"
	"evtlab/domain/evt"
	"evtlab/domain/run"
)

// --- Risk measures ---

type riskRequest struct {
	Params evt.GEVParams `json:"params"`
	Level  float64       `json:"level,omitempty"`
}

func (a *App) handleCrashRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decode(w, r, &req) {
		return
	}

	risk, err := gev.CrashRisk(req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"crash_risk": risk})
}

func (a *App) handleValueAtRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decode(w, r, &req) {
		return
	}

	varValue, err := gev.ValueAtRisk(req.Level, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"var": varValue})
}

func (a *App) handleConditionalValueAtRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decode(w, r, &req) {
		return
	}

	varValue, err := gev.ValueAtRisk(req.Level, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	cvar, err := gev.ConditionalValueAtRisk(req.Params, req.Level, varValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"var": varValue, "cvar": cvar})
}

// --- Covariate link ---

type linkRequest struct {
	Base   evt.GEVParameters `json:"base"`
	Values []float64         `json:"values"`
}

func (a *App) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decode(w, r, &req) {
		return
	}

	params, err := evt.LinkParameters(req.Base, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// --- Threshold diagnostics ---

type diagnosticsRequest struct {
	Data         []float64 `json:"data"`
	MinThreshold float64   `json:"min_threshold"`
	MaxThreshold float64   `json:"max_threshold"`
	Steps        int       `json:"steps"`
}

func (a *App) handleMeanResidualLife(w http.ResponseWriter, r *http.Request) {
	var req diagnosticsRequest
	if !decode(w, r, &req) {
		return
	}

	points, err := threshold.MeanResidualLife(req.Data, req.MinThreshold, req.MaxThreshold, req.Steps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

func (a *App) handleParameterStability(w http.ResponseWriter, r *http.Request) {
	var req diagnosticsRequest
	if !decode(w, r, &req) {
		return
	}

	points, err := threshold.ParameterStability(req.Data, req.MinThreshold, req.MaxThreshold, req.Steps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

// --- Pooling and analysis runs ---

type poolRequest struct {
	Sites       []evt.Site           `json:"sites"`
	BlockMaxima map[string][]float64 `json:"block_maxima"`
	Xi          float64              `json:"xi"`
	Partial     bool                 `json:"partial"`
}

func (a *App) handlePool(w http.ResponseWriter, r *http.Request) {
	var req poolRequest
	if !decode(w, r, &req) {
		return
	}

	if !req.Partial {
		estimates := pooling.NoPooling(req.Sites, req.BlockMaxima, req.Xi)
		writeJSON(w, http.StatusOK, map[string]interface{}{"estimates": estimates})
		return
	}

	model, estimates := pooling.PartialPooling(req.Sites, req.BlockMaxima, req.Xi)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":     model,
		"estimates": estimates,
	})
}

func (a *App) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req app.AnalysisRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := a.service.RunAnalysis(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.reader == nil {
		writeError(w, core.NotFound("run ledger"))
		return
	}

	runs, err := a.reader.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	analysisRun, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analysisRun)
}

func (a *App) handleRunReport(w http.ResponseWriter, r *http.Request) {
	analysisRun, ok := a.lookupRun(w, r)
	if !ok {
		return
	}

	html := report.RenderHTML(report.MarkdownSummary(analysisRun))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (a *App) handleRunWorkbook(w http.ResponseWriter, r *http.Request) {
	analysisRun, ok := a.lookupRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="analysis.xlsx"`)
	if err := report.WriteWorkbook(w, analysisRun, nil, nil); err != nil {
		a.logger.Error().Err(err).Msg("workbook export failed")
	}
}

// --- Backtests ---

type kupiecRequest struct {
	Violations   int     `json:"violations"`
	Observations int     `json:"observations"`
	ExpectedRate float64 `json:"expected_rate"`
	Exact        bool    `json:"exact,omitempty"`
}

func (a *App) handleKupiec(w http.ResponseWriter, r *http.Request) {
	var req kupiecRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := suiteFor(req.Exact).Kupiec(req.Violations, req.Observations, req.ExpectedRate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type christoffersenRequest struct {
	Violations   []bool  `json:"violations"`
	ExpectedRate float64 `json:"expected_rate"`
	Exact        bool    `json:"exact,omitempty"`
}

func (a *App) handleChristoffersen(w http.ResponseWriter, r *http.Request) {
	var req christoffersenRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := suiteFor(req.Exact).Christoffersen(backtest.ViolationSequence(req.Violations), req.ExpectedRate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type dynamicQuantileRequest struct {
	Violations   []bool    `json:"violations"`
	LaggedValues []float64 `json:"lagged_values"`
	Exact        bool      `json:"exact,omitempty"`
}

func (a *App) handleDynamicQuantile(w http.ResponseWriter, r *http.Request) {
	var req dynamicQuantileRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := suiteFor(req.Exact).DynamicQuantile(backtest.ViolationSequence(req.Violations), req.LaggedValues)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func suiteFor(exact bool) *backtest.Suite {
	if exact {
		return backtest.NewExactSuite()
	}
	return backtest.NewSuite()
}

// --- Helpers ---

func (a *App) lookupRun(w http.ResponseWriter, r *http.Request) (*run.AnalysisRun, bool) {
	if a.reader == nil {
		writeError(w, core.NotFound("run ledger"))
		return nil, false
	}

	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, core.InvalidParameter("run ID is required"))
		return nil, false
	}

	stored, err := a.reader.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return stored, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, core.InvalidParameter("invalid JSON request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch core.GetCode(err) {
	case core.CodeInvalidParameter, core.CodeDimensionMismatch, core.CodeInsufficientData:
		status = http.StatusBadRequest
	case core.CodeNotFound:
		status = http.StatusNotFound
	case core.CodeConfigInvalid:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{
		"code":  core.GetCode(err),
		"error": err.Error(),
	})
}
