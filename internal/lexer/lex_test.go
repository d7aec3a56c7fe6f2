package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wu-lang/wu/internal/source"
)

func kindsAndLexemes(toks []Token) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Kind: t.Kind, Lexeme: t.Lexeme}
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Token
		bad  bool
	}{
		{name: "empty", src: "", want: []Token{{Kind: EOF}}},
		{
			name: "ident",
			src:  "foo_bar?",
			want: []Token{{Kind: Identifier, Lexeme: "foo_bar?"}, {Kind: EOF}},
		},
		{
			name: "keywords and bools",
			src:  "fun if true false nil",
			want: []Token{
				{Kind: Keyword, Lexeme: "fun"},
				{Kind: Keyword, Lexeme: "if"},
				{Kind: Bool, Lexeme: "true"},
				{Kind: Bool, Lexeme: "false"},
				{Kind: Keyword, Lexeme: "nil"},
				{Kind: EOF},
			},
		},
		{
			name: "numbers",
			src:  "42 3.14",
			want: []Token{
				{Kind: Int, Lexeme: "42"},
				{Kind: Float, Lexeme: "3.14"},
				{Kind: EOF},
			},
		},
		{
			name: "string with escape",
			src:  `"a\nb"`,
			want: []Token{{Kind: Str, Lexeme: "a\nb"}, {Kind: EOF}},
		},
		{
			name: "raw string ignores escapes",
			src:  `r"a\nb"`,
			want: []Token{{Kind: Str, Lexeme: `a\nb`}, {Kind: EOF}},
		},
		{
			name: "char literal",
			src:  "'x'",
			want: []Token{{Kind: Char, Lexeme: "x"}, {Kind: EOF}},
		},
		{
			name: "comment becomes EOL",
			src:  "-- hi\nx",
			want: []Token{{Kind: EOL, Lexeme: "\n"}, {Kind: Identifier, Lexeme: "x"}, {Kind: EOF}},
		},
		{
			name: "multi-char operators prefer longest match",
			src:  "a <| b |> c",
			want: []Token{
				{Kind: Identifier, Lexeme: "a"},
				{Kind: Operator, Lexeme: "<|"},
				{Kind: Identifier, Lexeme: "b"},
				{Kind: Operator, Lexeme: "|>"},
				{Kind: Identifier, Lexeme: "c"},
				{Kind: EOF},
			},
		},
		{
			name: "ellipsis symbol",
			src:  "...",
			want: []Token{{Kind: Symbol, Lexeme: "..."}, {Kind: EOF}},
		},
		{
			name: "unterminated string fails",
			src:  `"abc`,
			bad:  true,
		},
		{
			name: "stray character fails",
			src:  "`",
			bad:  true,
		},
		{
			name: "bad escape fails",
			src:  `"\q"`,
			bad:  true,
		},
		{
			name: "multi-codepoint char literal fails",
			src:  "'ab'",
			bad:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := New(tt.src).Lex()
			if tt.bad {
				if err == nil {
					t.Fatalf("Lex(%q): want error, got none", tt.src)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lex(%q): %v", tt.src, err)
			}
			got := kindsAndLexemes(toks)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateComparable(source.Position{})); diff != "" {
				t.Errorf("Lex(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	toks, err := New("foo bar").Lex()
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
	want := source.Position{Line: 1, StartCol: 0, EndCol: 3}
	if toks[0].Pos != want {
		t.Errorf("first token position = %+v, want %+v", toks[0].Pos, want)
	}
	want2 := source.Position{Line: 1, StartCol: 4, EndCol: 7}
	if toks[1].Pos != want2 {
		t.Errorf("second token position = %+v, want %+v", toks[1].Pos, want2)
	}
}
