package main

import (
	"fmt"
	"os"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"golang.org/x/term"

	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/driver"
)

// jsonDiagnostic is the machine-readable shape for a --json rendering, one
// object per diagnostic.
type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	StartCol int    `json:"start_col"`
	EndCol   int    `json:"end_col"`
	Message  string `json:"message"`
}

// renderResults prints every file's diagnostics and returns a non-nil
// error if any file failed, so the caller exits nonzero.
func renderResults(results []driver.FileResult, jsonOutput bool) error {
	if jsonOutput {
		return renderJSON(results)
	}
	return renderText(results)
}

func renderText(results []driver.FileResult) error {
	color := term.IsTerminal(int(os.Stderr.Fd()))
	failed := false
	var wrong, weird int
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			failed = true
			continue
		}
		for _, d := range r.Diagnostics {
			fmt.Fprint(os.Stderr, d.Render(r.Path, r.Source, color))
			if d.Severity == diag.Wrong {
				wrong++
			} else {
				weird++
			}
		}
		if r.Diagnostics.HasFatal() {
			failed = true
		}
	}
	if wrong > 0 || weird > 0 {
		fmt.Fprintf(os.Stderr, "%d wrong, %d weird\n", wrong, weird)
	}
	if failed {
		return fmt.Errorf("compilation failed")
	}
	return nil
}

func renderJSON(results []driver.FileResult) error {
	var records []jsonDiagnostic
	failed := false
	for _, r := range results {
		if r.Err != nil {
			records = append(records, jsonDiagnostic{Severity: "wrong", Path: r.Path, Message: r.Err.Error()})
			failed = true
			continue
		}
		for _, d := range r.Diagnostics {
			records = append(records, jsonDiagnostic{
				Severity: d.Severity.String(),
				Path:     r.Path,
				Line:     d.Pos.Line,
				StartCol: d.Pos.StartCol,
				EndCol:   d.Pos.EndCol,
				Message:  d.Message,
			})
		}
		if r.Diagnostics.HasFatal() {
			failed = true
		}
	}
	data, err := jsonv2.Marshal(records, jsontext.Multiline(true))
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	os.Stdout.Write(data)
	os.Stdout.Write([]byte("\n"))
	if failed {
		return fmt.Errorf("compilation failed")
	}
	return nil
}
