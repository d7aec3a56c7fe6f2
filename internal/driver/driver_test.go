package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRunCompilesSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	writeFile(t, src, "x: int = 1 + 2\n")

	results, err := Run(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Err != nil {
		t.Fatalf("FileResult.Err = %v", r.Err)
	}
	if r.Diagnostics.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %v", r.Diagnostics)
	}
	out := luaSibling(src)
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected %s to be written: %v", out, err)
	}
}

func TestRunWalksDirectoryForWuFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.wu"), "x: int = 1\n")
	writeFile(t, filepath.Join(dir, "b.wu"), "y: int = 2\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored\n")

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "c.wu"), "z: int = 3\n")

	results, err := Run(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (a.wu, b.wu, sub/c.wu), got %+v", len(results), results)
	}
}

func TestRunSkipsFileWithFatalDiagnostics(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.wu")
	writeFile(t, src, "x: int = \"oops\"\n")

	results, err := Run(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !results[0].Diagnostics.HasFatal() {
		t.Fatal("expected a fatal diagnostic for a type mismatch")
	}
	if _, err := os.Stat(luaSibling(src)); err == nil {
		t.Error("no .lua sibling should be written for a file with fatal diagnostics")
	}
}

func TestCollectSourcesSingleFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wu")
	writeFile(t, a, "x: int = 1\n")

	files, err := collectSources(a)
	if err != nil {
		t.Fatalf("collectSources(file): %v", err)
	}
	if len(files) != 1 || files[0] != a {
		t.Errorf("collectSources(file) = %v, want [%s]", files, a)
	}

	files, err = collectSources(dir)
	if err != nil {
		t.Fatalf("collectSources(dir): %v", err)
	}
	if len(files) != 1 || files[0] != a {
		t.Errorf("collectSources(dir) = %v, want [%s]", files, a)
	}
}

func TestLuaSibling(t *testing.T) {
	if got := luaSibling("/x/y/a.wu"); got != "/x/y/a.lua" {
		t.Errorf("luaSibling = %q, want /x/y/a.lua", got)
	}
}

func TestUpToDate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	out := filepath.Join(dir, "a.lua")
	writeFile(t, src, "x: int = 1\n")

	if upToDate(src, out) {
		t.Error("upToDate: want false when out does not exist")
	}

	writeFile(t, out, "return {}\n")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(out, future, future); err != nil {
		t.Fatal(err)
	}
	if !upToDate(src, out) {
		t.Error("upToDate: want true when out is newer than src")
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(out, past, past); err != nil {
		t.Fatal(err)
	}
	if upToDate(src, out) {
		t.Error("upToDate: want false when out is older than src")
	}
}

func TestRunSkipsUpToDateOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	out := filepath.Join(dir, "a.lua")
	writeFile(t, src, "x: int = 1\n")
	writeFile(t, out, "return {}\n")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(out, future, future); err != nil {
		t.Fatal(err)
	}

	results, err := Run(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !results[0].Skipped {
		t.Error("expected the up-to-date file to be skipped")
	}
}

func TestCleanRemovesLuaSiblings(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	out := filepath.Join(dir, "a.lua")
	writeFile(t, src, "x: int = 1\n")
	writeFile(t, out, "return {}\n")

	if err := Clean(context.Background(), dir); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("expected a.lua to be removed")
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("Clean must not remove the .wu source itself")
	}
}

func TestCleanIsANoOpWhenNoLuaSiblingExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	writeFile(t, src, "x: int = 1\n")

	if err := Clean(context.Background(), dir); err != nil {
		t.Fatalf("Clean: %v", err)
	}
}

func TestRunWritesBytecodeSiblingWhenRequested(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	writeFile(t, src, "x: int = 1\n")

	results, err := Run(context.Background(), src, Options{Bytecode: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("FileResult.Err = %v", results[0].Err)
	}
	luac := filepath.Join(dir, "a.luac")
	if _, err := os.Stat(luac); err != nil {
		t.Errorf("expected a.luac to be written: %v", err)
	}
}

func TestRunRespectsCanceledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wu")
	writeFile(t, src, "x: int = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, src, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err == nil {
		t.Error("expected a canceled-context error on the file result")
	}
}
