// Package report renders ingestion run summaries for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/FranksOps/magpie/internal/ingest"
)

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary *ingest.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary *ingest.RunSummary) error {
	const textTmpl = `Magpie Ingestion Summary
------------------------
Run:           {{.RunID}}
Query:         {{.Query}} (id {{.QueryID}})
Time:          {{.Started.Format "2006-01-02 15:04:05"}} - {{.Finished.Format "2006-01-02 15:04:05"}}

Keywords:
{{- range .Keywords}}
  {{.}}
{{- else}}
  None
{{- end}}

URLs:          {{.TotalURLs}} found, {{.UniqueURLs}} unique, {{.Duplicates}} duplicates, {{.AdsRemoved}} ads removed
Measured:      {{.Measured}}
Reused:        {{.Reused}}
Skipped:       {{.Skipped}}
Failed:        {{.Failed}}

Gone (404):
{{- range .NotFoundURLs}}
  {{.}}
{{- else}}
  None
{{- end}}

Warnings:
{{- range .Warnings}}
  {{.}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary *ingest.RunSummary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Magpie Ingestion Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Magpie Ingestion Report</h1>
  <p><strong>Query:</strong> {{.Query}} (run {{.RunID}})</p>
  <p><strong>Time:</strong> {{.Started.Format "2006-01-02 15:04:05"}} to {{.Finished.Format "2006-01-02 15:04:05"}}</p>

  <div class="stat-card">
    <div>Unique URLs</div>
    <div class="stat-val">{{.UniqueURLs}}</div>
  </div>
  <div class="stat-card">
    <div>Measured</div>
    <div class="stat-val">{{.Measured}}</div>
  </div>
  <div class="stat-card">
    <div>Reused</div>
    <div class="stat-val">{{.Reused}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .Failed 0}}red{{else}}green{{end}};">{{.Failed}}</div>
  </div>

  <h3>Keywords</h3>
  <table>
    <tr><th>Keyword</th></tr>
    {{- range .Keywords}}
    <tr><td>{{.}}</td></tr>
    {{- else}}
    <tr><td>None</td></tr>
    {{- end}}
  </table>

  <h3>Gone (404)</h3>
  <table>
    <tr><th>URL</th></tr>
    {{- range .NotFoundURLs}}
    <tr><td>{{.}}</td></tr>
    {{- else}}
    <tr><td>None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}
