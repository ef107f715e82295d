// Package report renders analysis results for humans: a markdown summary
// with an HTML rendering, and an Excel workbook for diagnostic curves.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"evtlab/domain/run"
)

// MarkdownSummary renders an analysis run as a markdown report with the
// population parameters and a per-site estimate table.
func MarkdownSummary(analysisRun *run.AnalysisRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Extreme Value Analysis Run %s\n\n", analysisRun.ID.String())
	fmt.Fprintf(&b, "Generated %s\n\n", analysisRun.CreatedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Population Parameters\n\n")
	fmt.Fprintf(&b, "| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| mu0 (population location) | %.4f |\n", analysisRun.Mu0Pop)
	fmt.Fprintf(&b, "| zeta0 (population log-scale) | %.4f |\n", analysisRun.Zeta0Pop)
	fmt.Fprintf(&b, "| tau (between-site spread) | %.4f |\n", analysisRun.Tau)
	fmt.Fprintf(&b, "| xi (shared shape) | %.4f |\n", analysisRun.Xi)
	fmt.Fprintf(&b, "| VaR level | %.1f%% |\n\n", analysisRun.VaRLevel)

	b.WriteString("## Site Estimates\n\n")
	b.WriteString("| Site | mu0 | sigma0 | 95% interval | Crash risk |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, est := range analysisRun.Estimates {
		interval := "n/a"
		if est.Mu0Lower != nil && est.Mu0Upper != nil {
			interval = fmt.Sprintf("[%.3f, %.3f]", *est.Mu0Lower, *est.Mu0Upper)
		}
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %s | %.4f |\n",
			est.SiteID.String(), est.Mu0, est.Sigma0, interval, est.CrashRisk)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Fingerprint: `%s`  \nRuntime: %d ms\n", analysisRun.Fingerprint.String(), analysisRun.RuntimeMs)

	return b.String()
}

// RenderHTML converts a markdown report to an HTML fragment.
func RenderHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.Tables
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	opts := html.RendererOptions{Flags: html.CommonFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}
