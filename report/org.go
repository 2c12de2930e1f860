package report

import (
	"io"
	"text/template"
	"time"

	"github.com/rustyeddy/volstat/analysis"
)

var orgFuncs = template.FuncMap{
	"pct": pct,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTmpl = template.Must(template.New("volatility").Funcs(orgFuncs).Parse(OrgTemplate))

// Org writes one org-mode heading per report, with properties for the run
// and tables for the years and stats.
type Org struct{}

func (Org) Extension() string { return "org" }

func (Org) Export(w io.Writer, reps []analysis.Report) error {
	for _, r := range reps {
		if err := orgTmpl.Execute(w, r); err != nil {
			return err
		}
	}
	return nil
}

const OrgTemplate = `
* VOLATILITY: {{.Symbol}} {{.Title}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:SYMBOL:      {{.Symbol}}
:METHOD:      {{.Method}}
:TIMEFRAME:   {{.Timeframe}}
:POLICY:      {{.Policy}}
:START_YEAR:  {{.StartYear}}
:END_YEAR:    {{.EndYear}}
:BARS:        {{.Bars}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Volatility by Year
| Year | Percent |
|------+---------|
{{- range .Volatility }}
| {{.Year}} | {{pct .Value}} |
{{- end }}

** Stats
| Stat | Value |
|------+-------|
| min  | {{printf "%.2f" .Stats.Min}} |
| max  | {{printf "%.2f" .Stats.Max}} |
| mean | {{printf "%.2f" .Stats.Mean}} |
{{- if .Filtered }}

** Black Swans
- Quantile:  *{{printf "%.2f" .Quantile}}*
- Threshold: *{{pct .Threshold}}%*
{{- range .Removed }}
- {{.Year}}: {{pct .Value}}
{{- else }}
- (none removed)
{{- end }}
{{- end }}
{{- if .Bands }}

** Price Bands
| Band | Close |
|------+-------|
| +3sd | {{printf "%.2f" .Bands.Pos3}} |
| +2sd | {{printf "%.2f" .Bands.Pos2}} |
| +1sd | {{printf "%.2f" .Bands.Pos1}} |
| mean | {{printf "%.2f" .Bands.Mean}} |
| -1sd | {{printf "%.2f" .Bands.Neg1}} |
| -2sd | {{printf "%.2f" .Bands.Neg2}} |
| -3sd | {{printf "%.2f" .Bands.Neg3}} |
- Last close: *{{printf "%.2f" .LastClose}}*
{{- end }}
`
