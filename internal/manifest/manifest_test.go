package manifest

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDependenciesTable(t *testing.T) {
	doc := `# a comment
[package]
name = "ignored outside dependencies"

[dependencies]
foo = "user/foo"
bar = "user/bar"
`
	m, err := Parse(bufio.NewScanner(strings.NewReader(doc)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Dependencies) != 2 {
		t.Fatalf("got %d dependencies, want 2: %v", len(m.Dependencies), m.Dependencies)
	}
	if m.Dependencies["foo"] != "user/foo" {
		t.Errorf("foo = %q, want user/foo", m.Dependencies["foo"])
	}
	if m.Dependencies["bar"] != "user/bar" {
		t.Errorf("bar = %q, want user/bar", m.Dependencies["bar"])
	}
}

func TestParseStopsCollectingAtNextSection(t *testing.T) {
	doc := `[dependencies]
foo = "user/foo"
[other]
bar = "user/bar"
`
	m, err := Parse(bufio.NewScanner(strings.NewReader(doc)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Dependencies) != 1 {
		t.Fatalf("got %v, want only foo", m.Dependencies)
	}
}

func TestParseMalformedLine(t *testing.T) {
	doc := "[dependencies]\nfoo bar baz\n"
	if _, err := Parse(bufio.NewScanner(strings.NewReader(doc))); err == nil {
		t.Error("Parse: want an error for a line with no \"=\"")
	}
}

func TestParseUnquotedValue(t *testing.T) {
	doc := "[dependencies]\nfoo = user/foo\n"
	if _, err := Parse(bufio.NewScanner(strings.NewReader(doc))); err == nil {
		t.Error("Parse: want an error for an unquoted value")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wu.toml")
	if err := os.WriteFile(path, []byte("[dependencies]\nfoo = \"user/foo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if m.Dependencies["foo"] != "user/foo" {
		t.Errorf("foo = %q, want user/foo", m.Dependencies["foo"])
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("ParseFile: want an error for a missing file")
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"hi"`, "hi", false},
		{`""`, "", false},
		{"hi", "", true},
		{`"hi`, "", true},
		{`h`, "", true},
	}
	for _, tt := range tests {
		got, err := unquote(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("unquote(%q): want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("unquote(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("unquote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestFetchSkipsAlreadyPresentDependencies exercises Fetch without
// touching the network: every dependency's destination directory is
// pre-created, so Fetch takes the "already present" branch for each and
// never shells out to git.
func TestFetchSkipsAlreadyPresentDependencies(t *testing.T) {
	dir := t.TempDir()
	libsDir := filepath.Join(dir, "src", "libs")
	if err := os.MkdirAll(filepath.Join(libsDir, "foo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(libsDir, "bar"), 0o755); err != nil {
		t.Fatal(err)
	}

	m := &Manifest{Dependencies: map[string]string{
		"foo": "user/foo",
		"bar": "user/bar",
	}}
	if err := Fetch(context.Background(), dir, m); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	init, err := os.ReadFile(filepath.Join(libsDir, "init.wu"))
	if err != nil {
		t.Fatalf("read init.wu: %v", err)
	}
	want := "import bar\nimport foo\n"
	if string(init) != want {
		t.Errorf("init.wu = %q, want %q", init, want)
	}
}

func TestRegenerateInit(t *testing.T) {
	dir := t.TempDir()
	if err := regenerateInit(dir, []string{"b", "a"}); err != nil {
		t.Fatalf("regenerateInit: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "init.wu"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "import b\nimport a\n" {
		t.Errorf("init.wu = %q", got)
	}
}
