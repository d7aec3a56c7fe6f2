package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/driver"
	"github.com/wu-lang/wu/internal/source"
)

// captureStderr redirects os.Stderr for the duration of fn and returns
// everything written to it.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestRenderTextNoFailures(t *testing.T) {
	results := []driver.FileResult{{Path: "a.wu"}}
	var err error
	out := captureStderr(t, func() {
		err = renderResults(results, false)
	})
	if err != nil {
		t.Fatalf("renderResults: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output for a clean result, got %q", out)
	}
}

func TestRenderTextReportsFatalDiagnostic(t *testing.T) {
	buf := source.New("a.wu", "x: int = \"oops\"\n")
	results := []driver.FileResult{{
		Path:        "a.wu",
		Source:      buf,
		Diagnostics: diag.Group{diag.New(source.Position{Line: 1, StartCol: 9, EndCol: 14}, "type mismatch")},
	}}
	var err error
	out := captureStderr(t, func() {
		err = renderResults(results, false)
	})
	if err == nil {
		t.Fatal("renderResults: want an error for a fatal diagnostic")
	}
	if !strings.Contains(out, "1 wrong, 0 weird") {
		t.Errorf("expected a wrong/weird tally line, got %q", out)
	}
}

func TestRenderTextReportsFileError(t *testing.T) {
	results := []driver.FileResult{{Path: "missing.wu", Err: os.ErrNotExist}}
	var err error
	out := captureStderr(t, func() {
		err = renderResults(results, false)
	})
	if err == nil {
		t.Fatal("renderResults: want an error when a file failed")
	}
	if !strings.Contains(out, "missing.wu") {
		t.Errorf("expected the failing path in output, got %q", out)
	}
}

func TestRenderJSONOutputsRecords(t *testing.T) {
	buf := source.New("a.wu", "x: int = \"oops\"\n")
	results := []driver.FileResult{{
		Path:        "a.wu",
		Source:      buf,
		Diagnostics: diag.Group{diag.New(source.Position{Line: 1, StartCol: 9, EndCol: 14}, "type mismatch")},
	}}
	var err error
	out := captureStdout(t, func() {
		err = renderResults(results, true)
	})
	if err == nil {
		t.Fatal("renderResults: want an error for a fatal diagnostic")
	}
	if !strings.Contains(out, `"severity"`) || !strings.Contains(out, "type mismatch") {
		t.Errorf("expected JSON diagnostic output, got %q", out)
	}
}
