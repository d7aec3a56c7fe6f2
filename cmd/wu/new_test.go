package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScaffoldWritesProjectFiles(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)

	if err := scaffold("myproj"); err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	for _, rel := range []string{
		filepath.Join("myproj", "init.wu"),
		filepath.Join("myproj", "src", "init.wu"),
		filepath.Join("myproj", "wu.toml"),
	} {
		if _, err := os.Stat(rel); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}

	srcInit, err := os.ReadFile(filepath.Join("myproj", "src", "init.wu"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(srcInit); got != srcInitTemplate {
		t.Errorf("src/init.wu = %q, want %q", got, srcInitTemplate)
	}
}

func TestScaffoldDefaultsProjectName(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)

	if err := scaffold("wu-project"); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	if _, err := os.Stat(filepath.Join("wu-project", "wu.toml")); err != nil {
		t.Errorf("expected default project dir wu-project: %v", err)
	}
}
