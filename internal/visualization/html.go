package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/nvandessel/coopnet/internal/sweep"
)

// htmlTemplateData holds data passed to the HTML template.
// ReportJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
// Seed is preformatted because JavaScript numbers lose precision above 2^53.
type htmlTemplateData struct {
	Title      string
	Seed       string
	ReportJSON template.JS
}

// RenderHTML produces a self-contained HTML page charting every run's
// cooperator fraction over time with a per-run summary table.
func RenderHTML(title string, report *sweep.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}

	tmpl, err := template.New("report").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	// json.HTMLEscape rewrites <, >, & so labels cannot close the script tag.
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, reportJSON)

	var buf bytes.Buffer
	data := htmlTemplateData{
		Title:      title,
		Seed:       strconv.FormatUint(report.Seed, 10),
		ReportJSON: template.JS(escaped.String()), // #nosec G203
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}

	return buf.Bytes(), nil
}
