// Package manifest parses wu.toml and fetches the dependencies it names.
// The manifest format is a single non-nested "[dependencies]" table of
// string values, so it is parsed with a small hand-written line scanner
// rather than a general TOML library — see DESIGN.md.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"zombiezen.com/go/log"
)

// Manifest is the parsed contents of a wu.toml file: a name→"owner/repo"
// map drawn from its [dependencies] table.
type Manifest struct {
	Dependencies map[string]string
}

// Parse reads a wu.toml-shaped document: blank lines and "#"-led
// comments are ignored; a "[dependencies]" header opens the only table
// this format recognizes; within it, "name = \"owner/repo\"" lines are
// collected. Any other section header ends dependency collection.
func Parse(r *bufio.Scanner) (*Manifest, error) {
	m := &Manifest{Dependencies: make(map[string]string)}
	inDeps := false
	lineNo := 0
	for r.Scan() {
		lineNo++
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inDeps = line == "[dependencies]"
			continue
		}
		if !inDeps {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("wu.toml:%d: expected \"name = value\"", lineNo)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		unquoted, err := unquote(value)
		if err != nil {
			return nil, fmt.Errorf("wu.toml:%d: %w", lineNo, err)
		}
		m.Dependencies[name] = unquoted
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse wu.toml: %w", err)
	}
	return m, nil
}

// ParseFile reads and parses the wu.toml at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse wu.toml: %w", err)
	}
	defer f.Close()
	return Parse(bufio.NewScanner(f))
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("value %q is not a quoted string", s)
	}
	return s[1 : len(s)-1], nil
}

// Fetch clones every dependency into projectRoot/src/libs/<name> (skipping
// any that already exist) and regenerates src/libs/init.wu as a sorted
// list of "import name" lines, per "wu get".
func Fetch(ctx context.Context, projectRoot string, m *Manifest) error {
	libsDir := filepath.Join(projectRoot, "src", "libs")
	if err := os.MkdirAll(libsDir, 0o755); err != nil {
		return fmt.Errorf("wu get: %w", err)
	}

	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dest := filepath.Join(libsDir, name)
		if _, err := os.Stat(dest); err == nil {
			log.Debugf(ctx, "skipping %s (already present)", name)
			continue
		}
		repo := m.Dependencies[name]
		url := fmt.Sprintf("https://github.com/%s.git", repo)
		log.Infof(ctx, "cloning %s into %s", url, dest)
		cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dest)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("wu get %s: %w", name, err)
		}
	}

	return regenerateInit(libsDir, names)
}

func regenerateInit(libsDir string, names []string) error {
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "import %s\n", name)
	}
	path := filepath.Join(libsDir, "init.wu")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("regenerate %s: %w", path, err)
	}
	return nil
}
