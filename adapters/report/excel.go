package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"evtlab/adapters/stats/threshold"
	"evtlab/domain/core"
	"evtlab/domain/run"
)

const (
	sheetEstimates = "Site Estimates"
	sheetMRL       = "Mean Residual Life"
	sheetStability = "Parameter Stability"
)

// Workbook builds an Excel workbook for an analysis run. The diagnostic
// sheets are optional; pass nil slices to omit them.
func Workbook(analysisRun *run.AnalysisRun, mrl []threshold.MeanExcessPoint, stability []threshold.StabilityPoint) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeEstimatesSheet(f, analysisRun); err != nil {
		return nil, err
	}
	if len(mrl) > 0 {
		if err := writeMRLSheet(f, mrl); err != nil {
			return nil, err
		}
	}
	if len(stability) > 0 {
		if err := writeStabilitySheet(f, stability); err != nil {
			return nil, err
		}
	}

	// Drop the default sheet left by excelize.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, core.Wrap(err, "failed to remove default sheet")
	}

	return f, nil
}

// WriteWorkbook builds the workbook and streams it to w.
func WriteWorkbook(w io.Writer, analysisRun *run.AnalysisRun, mrl []threshold.MeanExcessPoint, stability []threshold.StabilityPoint) error {
	f, err := Workbook(analysisRun, mrl, stability)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return core.Wrap(err, "failed to write workbook")
	}
	return nil
}

func writeEstimatesSheet(f *excelize.File, analysisRun *run.AnalysisRun) error {
	if _, err := f.NewSheet(sheetEstimates); err != nil {
		return core.Wrap(err, "failed to create estimates sheet")
	}

	headers := []string{"Site", "Mu0", "Sigma0", "Mu0 Lower", "Mu0 Upper", "Crash Risk"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetEstimates, cell, h); err != nil {
			return core.Wrap(err, "failed to write header")
		}
	}

	for row, est := range analysisRun.Estimates {
		values := []interface{}{est.SiteID.String(), est.Mu0, est.Sigma0, nil, nil, est.CrashRisk}
		if est.Mu0Lower != nil {
			values[3] = *est.Mu0Lower
		}
		if est.Mu0Upper != nil {
			values[4] = *est.Mu0Upper
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetEstimates, cell, v); err != nil {
				return core.Wrap(err, fmt.Sprintf("failed to write estimate row %d", row+1))
			}
		}
	}

	return nil
}

func writeMRLSheet(f *excelize.File, points []threshold.MeanExcessPoint) error {
	if _, err := f.NewSheet(sheetMRL); err != nil {
		return core.Wrap(err, "failed to create mean residual life sheet")
	}

	headers := []string{"Threshold", "Mean Excess", "Lower CI", "Upper CI"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetMRL, cell, h); err != nil {
			return core.Wrap(err, "failed to write header")
		}
	}

	for row, pt := range points {
		values := []float64{pt.Threshold, pt.MeanExcess, pt.LowerCI, pt.UpperCI}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetMRL, cell, v); err != nil {
				return core.Wrap(err, fmt.Sprintf("failed to write MRL row %d", row+1))
			}
		}
	}

	return nil
}

func writeStabilitySheet(f *excelize.File, points []threshold.StabilityPoint) error {
	if _, err := f.NewSheet(sheetStability); err != nil {
		return core.Wrap(err, "failed to create stability sheet")
	}

	headers := []string{"Threshold", "Shape", "Scale", "Modified Scale"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetStability, cell, h); err != nil {
			return core.Wrap(err, "failed to write header")
		}
	}

	for row, pt := range points {
		values := []float64{pt.Threshold, pt.Shape, pt.Scale, pt.ModifiedScale}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetStability, cell, v); err != nil {
				return core.Wrap(err, fmt.Sprintf("failed to write stability row %d", row+1))
			}
		}
	}

	return nil
}
