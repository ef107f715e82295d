package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"evtlab/adapters/stats/threshold"
	"evtlab/domain/core"
	"evtlab/domain/evt"
	"evtlab/domain/run"
)

func sampleRun() *run.AnalysisRun {
	lower, upper := 1.8, 2.4
	return &run.AnalysisRun{
		ID:          core.RunID("run-1"),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Fingerprint: core.NewHash([]byte("sample")),
		Xi:          -0.1,
		VaRLevel:    95,
		Mu0Pop:      2.1,
		Zeta0Pop:    0.2,
		Tau:         0.3,
		Estimates: []evt.SiteEstimate{
			{SiteID: "site-a", Mu0: 2.1, Zeta0: 0.2, Sigma0: 1.22, Mu0Lower: &lower, Mu0Upper: &upper, CrashRisk: 0.12},
			{SiteID: "site-b", Mu0: 1.9, Zeta0: 0.1, Sigma0: 1.11, CrashRisk: 0.08},
		},
		RuntimeMs: 42,
	}
}

func TestMarkdownSummary(t *testing.T) {
	md := MarkdownSummary(sampleRun())

	for _, want := range []string{"run-1", "site-a", "site-b", "[1.800, 2.400]", "n/a", "95.0%"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	html := string(RenderHTML(MarkdownSummary(sampleRun())))

	if !strings.Contains(html, "<table>") {
		t.Error("expected rendered tables in HTML output")
	}
	if !strings.Contains(html, "site-a") {
		t.Error("expected site IDs in HTML output")
	}
}

func TestWorkbookSheets(t *testing.T) {
	mrl := []threshold.MeanExcessPoint{
		{Threshold: 1.0, MeanExcess: 0.9, LowerCI: 0.7, UpperCI: 1.1},
		{Threshold: 1.5, MeanExcess: 0.8, LowerCI: 0.6, UpperCI: 1.0},
	}
	stability := []threshold.StabilityPoint{
		{Threshold: 1.0, Shape: -0.05, Scale: 1.1, ModifiedScale: 1.15},
	}

	f, err := Workbook(sampleRun(), mrl, stability)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{sheetEstimates, sheetMRL, sheetStability} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	got, err := f.GetCellValue(sheetEstimates, "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "site-a" {
		t.Errorf("A2 = %q, want site-a", got)
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRun(), nil, nil); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty workbook bytes")
	}
}
