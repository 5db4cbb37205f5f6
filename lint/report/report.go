// Package report writes lint results for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/linter"
)

// Format represents the output format for reporting results.
type Format int

const (
	// FormatText outputs one line per diagnostic followed by a summary.
	FormatText Format = iota
	// FormatJSON outputs results as a JSON document.
	FormatJSON
	// FormatSARIF outputs results in SARIF (Static Analysis Results Interchange Format).
	FormatSARIF
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	default:
		return "unknown"
	}
}

// ParseFormat converts a flag or configuration value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSARIF, nil
	}
	return FormatText, fmt.Errorf("unknown format %q (want text, json or sarif)", s)
}

// Reporter handles formatting and outputting lint results.
type Reporter struct {
	writer io.Writer
	format Format
}

// NewReporter creates a new Reporter with the specified output writer and format.
func NewReporter(writer io.Writer, format Format) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report writes result in the reporter's format. Files keep the order of
// result; diagnostics keep the order they were reported in.
func (r *Reporter) Report(result *linter.Result) error {
	switch r.format {
	case FormatText:
		return r.reportText(result)
	case FormatJSON:
		return r.reportJSON(result)
	case FormatSARIF:
		return r.reportSARIF(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// ReportFile writes a single file result. Text output has no summary line.
func (r *Reporter) ReportFile(fr linter.FileResult) error {
	if r.format != FormatText {
		return r.Report(&linter.Result{Files: []linter.FileResult{fr}})
	}
	return r.writeFileText(fr)
}

// reportText outputs results in human-readable text format.
func (r *Reporter) reportText(result *linter.Result) error {
	for _, fr := range result.Files {
		if err := r.writeFileText(fr); err != nil {
			return err
		}
	}

	problems := result.Problems()
	if problems == 0 && result.Failures() == 0 {
		return nil
	}

	summary := fmt.Sprintf("\n%d %s", problems, plural(problems, "problem"))
	if failures := result.Failures(); failures > 0 {
		summary += fmt.Sprintf(", %d %s could not be linted", failures, plural(failures, "file"))
	}
	if _, err := fmt.Fprintln(r.writer, summary); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}
	return nil
}

func (r *Reporter) writeFileText(fr linter.FileResult) error {
	if fr.Err != nil {
		if _, err := fmt.Fprintf(r.writer, "%s: error: %v\n", fr.Path, fr.Err); err != nil {
			return fmt.Errorf("failed to write text output: %w", err)
		}
		return nil
	}

	for _, d := range fr.Diagnostics {
		if _, err := fmt.Fprintln(r.writer, FormatDiagnostic(d)); err != nil {
			return fmt.Errorf("failed to write text output: %w", err)
		}
	}
	return nil
}

// FormatDiagnostic renders a diagnostic as "file:line:col: severity message [rule]".
func FormatDiagnostic(d lint.Diagnostic) string {
	return fmt.Sprintf("%s: %s %s [%s]", d.Pos, d.Severity, d.Message, d.Rule)
}

type jsonFile struct {
	linter.FileResult
	Error string `json:"error,omitempty"`
}

type jsonReport struct {
	Files    []jsonFile `json:"files"`
	Problems int        `json:"problems"`
	Failures int        `json:"failures"`
}

// reportJSON outputs results in JSON format.
func (r *Reporter) reportJSON(result *linter.Result) error {
	output := jsonReport{
		Files:    make([]jsonFile, 0, len(result.Files)),
		Problems: result.Problems(),
		Failures: result.Failures(),
	}
	for _, fr := range result.Files {
		jf := jsonFile{FileResult: fr}
		if jf.Diagnostics == nil {
			jf.Diagnostics = []lint.Diagnostic{}
		}
		if fr.Err != nil {
			jf.Error = fr.Err.Error()
		}
		output.Files = append(output.Files, jf)
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// reportSARIF outputs results in SARIF 2.1.0.
func (r *Reporter) reportSARIF(result *linter.Result) error {
	var rules []map[string]any
	seenRules := make(map[string]bool)
	results := make([]map[string]any, 0)

	for _, fr := range result.Files {
		for _, d := range fr.Diagnostics {
			if !seenRules[d.Rule] {
				seenRules[d.Rule] = true
				rules = append(rules, map[string]any{
					"id":   d.Rule,
					"name": d.Rule,
				})
			}
			results = append(results, map[string]any{
				"ruleId":  d.Rule,
				"level":   sarifLevel(d.Severity),
				"message": map[string]any{"text": d.Message},
				"locations": []map[string]any{
					{
						"physicalLocation": map[string]any{
							"artifactLocation": map[string]any{"uri": fr.Path},
							"region": map[string]any{
								"startLine":   d.Pos.Line,
								"startColumn": d.Pos.Column,
							},
						},
					},
				},
			})
		}
	}

	sarif := map[string]any{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]any{
			{
				"tool": map[string]any{
					"driver": map[string]any{
						"name":  "classlint",
						"rules": rules,
					},
				},
				"results": results,
			},
		},
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sarif); err != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", err)
	}
	return nil
}

// sarifLevel maps a severity to a SARIF result level.
func sarifLevel(s lint.Severity) string {
	switch s {
	case lint.SeverityWarning:
		return "warning"
	case lint.SeverityInfo:
		return "note"
	default:
		return "error"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
