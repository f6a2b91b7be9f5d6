package output

import (
	"encoding/json"
	"io"

	"github.com/ebarrett/subsuite/internal/report"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// PipelineReport captures one pipeline run in the JSON output schema.
type PipelineReport struct {
	Name       string              `json:"name"`
	Status     string              `json:"status"`
	ReportPath string              `json:"report,omitempty"`
	Error      string              `json:"error,omitempty"`
	Summary    report.Summary      `json:"summary"`
	Cases      []report.CaseResult `json:"cases,omitempty"`
}

// Report captures the full JSON output schema.
type Report struct {
	Pipelines []PipelineReport `json:"pipelines"`
	ExitCode  int              `json:"exit_code"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
