// Package report renders analysis reports to files: org-mode notes, plain
// text tables, spreadsheets, parquet and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/rustyeddy/volstat/analysis"
)

// Exporter writes reports in one format.
type Exporter interface {
	Export(w io.Writer, reps []analysis.Report) error
	Extension() string
}

// Formats lists the names accepted by NewExporter.
var Formats = []string{"text", "org", "xlsx", "parquet", "json"}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "txt", "":
		return Text{}, nil
	case "org":
		return Org{}, nil
	case "xlsx", "excel":
		return XLSX{}, nil
	case "parquet":
		return Parquet{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("report: unsupported format %q (use: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteFile exports reps to path.
func WriteFile(e Exporter, path string, reps []analysis.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Export(f, reps); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}

// JSON writes the reports as an indented array.
type JSON struct{}

func (JSON) Extension() string { return "json" }

func (JSON) Export(w io.Writer, reps []analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reps)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}
