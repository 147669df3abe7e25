package checker

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported report formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Report collects the findings of one run over many files.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Root        string    `json:"root" yaml:"root"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Files       int       `json:"files" yaml:"files"`
	Findings    []Finding `json:"findings" yaml:"findings"`
	// Errors maps files that could not be checked to the reason.
	Errors map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewReport starts an empty report for the project at root.
func NewReport(root string) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Root:        root,
		GeneratedAt: time.Now().UTC(),
		Findings:    []Finding{},
	}
}

// Add records the outcome of checking one file.
func (r *Report) Add(filename string, findings []Finding, err error) {
	r.Files++
	if err != nil {
		if r.Errors == nil {
			r.Errors = make(map[string]string)
		}
		r.Errors[filename] = errors.UserMessage(err)
		return
	}
	r.Findings = append(r.Findings, findings...)
}

// Sort orders findings by file, line and column.
func (r *Report) Sort() {
	slices.SortStableFunc(r.Findings, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.Filename, b.Filename),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Col, b.Col),
		)
	})
}

// Failed reports whether the run found undeclared imports or files it
// could not check.
func (r *Report) Failed() bool {
	return len(r.Findings) > 0 || len(r.Errors) > 0
}

// Encode writes the report in format. The text format prints one finding
// per line.
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		for _, f := range r.Findings {
			if _, err := io.WriteString(w, f.String()+"\n"); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %v)", format, Formats)
}
