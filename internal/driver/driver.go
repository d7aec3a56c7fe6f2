// Package driver walks a file or directory tree, compiles every .wu
// source it finds, and writes sibling .lua (and optionally .luac)
// output.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/log"

	"github.com/wu-lang/wu/internal/compiler"
	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/source"
)

// Options controls one Run invocation.
type Options struct {
	// Bytecode, if true, additionally writes a .luac sibling for every
	// successfully compiled file.
	Bytecode bool
}

// FileResult is one compiled (or skipped, or failed) file's outcome,
// returned from Run for the caller to render.
type FileResult struct {
	Path        string
	Skipped     bool
	Diagnostics diag.Group
	Err         error
	// Source is the file's text, split for diagnostic excerpt lookup; nil
	// when Skipped or when Err was set before the file could be read.
	Source *source.Buffer
}

// Run enumerates every .wu file under root (root itself, if it is a
// single file), compiles each with a bounded worker pool, and writes
// sibling .lua files. It honors ctx cancellation between files, not
// mid-file.
func Run(ctx context.Context, root string, opts Options) ([]FileResult, error) {
	files, err := collectSources(root)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return nil
			}
			results[i] = compileFile(ctx, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// collectSources returns every .wu file under root in a deterministic
// (lexical) order: root itself if it names a file, or every .wu file
// found by a recursive walk if it names a directory.
func collectSources(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".wu") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}
	return files, nil
}

// luaSibling returns path with its extension replaced by .lua.
func luaSibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".lua"
}

// upToDate reports whether out exists and is newer than src, per the
// "skip if target exists and is newer than the source" rule.
func upToDate(src, out string) bool {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(out)
	if err != nil {
		return false
	}
	return outInfo.ModTime().After(srcInfo.ModTime())
}

func compileFile(ctx context.Context, path string, opts Options) FileResult {
	out := luaSibling(path)
	if upToDate(path, out) {
		log.Debugf(ctx, "skipping %s (up to date)", path)
		return FileResult{Path: path, Skipped: true}
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("compile %s: %w", path, err)}
	}
	buf := source.New(path, string(text))

	if opts.Bytecode {
		res, data, err := compiler.CompileToBytecode(path, string(text))
		if err != nil {
			return FileResult{Path: path, Source: buf, Err: fmt.Errorf("compile %s: %w", path, err)}
		}
		if res.Diagnostics.HasFatal() {
			return FileResult{Path: path, Source: buf, Diagnostics: res.Diagnostics}
		}
		if err := os.WriteFile(out, []byte(res.Lua), 0o644); err != nil {
			return FileResult{Path: path, Source: buf, Err: fmt.Errorf("write %s: %w", out, err)}
		}
		if data != nil {
			if err := os.WriteFile(strings.TrimSuffix(out, ".lua")+".luac", data, 0o644); err != nil {
				return FileResult{Path: path, Source: buf, Err: fmt.Errorf("write bytecode for %s: %w", path, err)}
			}
		}
		log.Infof(ctx, "compiled %s", path)
		return FileResult{Path: path, Source: buf, Diagnostics: res.Diagnostics}
	}

	res, err := compiler.Compile(path, string(text))
	if err != nil {
		return FileResult{Path: path, Source: buf, Err: fmt.Errorf("compile %s: %w", path, err)}
	}
	if res.Diagnostics.HasFatal() {
		return FileResult{Path: path, Source: buf, Diagnostics: res.Diagnostics}
	}
	if err := os.WriteFile(out, []byte(res.Lua), 0o644); err != nil {
		return FileResult{Path: path, Source: buf, Err: fmt.Errorf("write %s: %w", out, err)}
	}
	log.Infof(ctx, "compiled %s", path)
	return FileResult{Path: path, Source: buf, Diagnostics: res.Diagnostics}
}

// Clean deletes every .lua sibling of a .wu file found under root, per
// "wu clean".
func Clean(ctx context.Context, root string) error {
	files, err := collectSources(root)
	if err != nil {
		return err
	}
	for _, path := range files {
		out := luaSibling(path)
		if _, err := os.Stat(out); err == nil {
			if err := os.Remove(out); err != nil {
				return fmt.Errorf("clean %s: %w", out, err)
			}
			log.Infof(ctx, "removed %s", out)
		}
	}
	return nil
}
