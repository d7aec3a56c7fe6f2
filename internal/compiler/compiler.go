// Package compiler orchestrates the four pipeline stages — lexer, parser,
// semantic analyzer, code generator — for one compilation unit.
package compiler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wu-lang/wu/internal/codegen"
	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/luacode"
	"github.com/wu-lang/wu/internal/parser"
	"github.com/wu-lang/wu/internal/sema"
)

// Result is one file's compilation outcome.
type Result struct {
	Lua         string
	Diagnostics diag.Group
}

// Compile runs a single source text through lex → parse → analyze →
// generate, stopping at the first failing stage: there is no error
// recovery. path names the unit for positioned diagnostics; it is not
// read from disk here — callers own I/O.
func Compile(path, src string) (*Result, error) {
	toks, err := lexer.New(src).Lex()
	if err != nil {
		return wrapStageError(err)
	}

	stmts, err := parser.Parse(toks)
	if err != nil {
		return wrapStageError(err)
	}

	analysis := sema.Analyze(stmts)
	if analysis.HasFatal() {
		return &Result{Diagnostics: analysis.Diagnostics}, nil
	}

	gen := codegen.New(analysis.MethodCalls)
	lua := gen.Generate(stmts)
	return &Result{Lua: lua, Diagnostics: analysis.Diagnostics}, nil
}

// wrapStageError normalizes a lexer/parser failure (always a single
// diag.Diagnostic, per the fail-fast contract both stages share) into a
// one-member Result.Diagnostics group, or returns err unchanged if it is
// not a diagnostic at all (an internal invariant violation).
func wrapStageError(err error) (*Result, error) {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return &Result{Diagnostics: diag.Group{d}}, nil
	}
	return nil, fmt.Errorf("internal error: %w", err)
}

// CompileToBytecode runs Compile and, on success with no fatal
// diagnostics, additionally compiles the emitted Lua text to a
// precompiled chunk using the bundled Lua 5.4 frontend, producing the
// sibling ".luac" that "--bytecode" requests. It returns nil bytecode
// (not an error) if the compilation itself failed or produced fatal
// diagnostics — there is nothing valid to compile further.
func CompileToBytecode(path, src string) (*Result, []byte, error) {
	res, err := Compile(path, src)
	if err != nil {
		return nil, nil, err
	}
	if res.Diagnostics.HasFatal() {
		return res, nil, nil
	}
	proto, err := luacode.Parse(luacode.FilenameSource(path), bytes.NewReader([]byte(res.Lua)))
	if err != nil {
		return res, nil, fmt.Errorf("internal error: generated invalid Lua: %w", err)
	}
	data, err := proto.MarshalBinary()
	if err != nil {
		return res, nil, fmt.Errorf("internal error: marshaling bytecode: %w", err)
	}
	return res, data, nil
}
