package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/volstat/analysis"
)

const (
	SheetVolatility = "volatility"
	SheetStats      = "stats"
)

// XLSX writes a workbook with a long-format "volatility" sheet and one
// "stats" row per report. Undefined years are left blank.
type XLSX struct{}

func (XLSX) Extension() string { return "xlsx" }

func (XLSX) Export(w io.Writer, reps []analysis.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetVolatility); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetStats); err != nil {
		return err
	}

	header := []any{"run_id", "symbol", "method", "timeframe", "year", "percent", "removed"}
	if err := f.SetSheetRow(SheetVolatility, "A1", &header); err != nil {
		return err
	}
	row := 2
	for _, yr := range Rows(reps) {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		var v any
		if yr.Percent != nil {
			v = *yr.Percent
		}
		vals := []any{yr.RunID, yr.Symbol, yr.Method, yr.Timeframe, int(yr.Year), v, yr.Removed}
		if err := f.SetSheetRow(SheetVolatility, cell, &vals); err != nil {
			return err
		}
		row++
	}

	header = []any{"run_id", "symbol", "method", "timeframe", "policy", "min", "max", "mean", "last_close"}
	if err := f.SetSheetRow(SheetStats, "A1", &header); err != nil {
		return err
	}
	for i, r := range reps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := []any{r.RunID, r.Symbol, r.Method, r.Timeframe, r.Policy, r.Stats.Min, r.Stats.Max, r.Stats.Mean, r.LastClose}
		if err := f.SetSheetRow(SheetStats, cell, &vals); err != nil {
			return err
		}
	}

	return f.Write(w)
}
