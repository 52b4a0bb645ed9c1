package cpp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []string {
	t.Helper()
	lexer := Lex("test.c", strings.NewReader(src))
	var toks []string
	for {
		tok, err := lexer.Next()
		require.NoError(t, err, "lexing %q", src)
		toks = append(toks, fmt.Sprintf("%s:%s:%d:%d", tok.Kind, tok.Val, tok.Pos.Line, tok.Pos.Col))
		if tok.Kind == EOF {
			return toks
		}
	}
}

var lexTestCases = []struct {
	name     string
	src      string
	expected []string
}{
	{
		name:     "declaration",
		src:      "int x;",
		expected: []string{"int:int:1:1", "ident:x:1:5", "';':;:1:6", "EOF::1:7"},
	},
	{
		name: "function like define",
		src:  "#define F(a) a\nF",
		expected: []string{
			"cppdirective:define:1:2", "ident:F:1:9", "funclikedefine::1:10",
			"'(':(:1:10", "ident:a:1:11", "')':):1:12", "ident:a:1:14",
			"enddirective::1:15", "ident:F:2:1", "EOF::2:2",
		},
	},
	{
		name: "object define starting with paren",
		src:  "#define F (a)",
		expected: []string{
			"cppdirective:define:1:2", "ident:F:1:9", "'(':(:1:11", "ident:a:1:12",
			"')':):1:13", "enddirective::1:14", "EOF::1:14",
		},
	},
	{
		name: "include header",
		src:  "#include <foo.h>\n",
		expected: []string{
			"cppdirective:include:1:2", "header:<foo.h>:1:10", "enddirective::1:17", "EOF::2:1",
		},
	},
	{
		name:     "line splice",
		src:      "fo\\\no",
		expected: []string{"ident:foo:1:1", "EOF::2:2"},
	},
	{
		name: "literals",
		src:  `1.5e3 0x1fUL 'a' "s\""`,
		expected: []string{
			"floatconst:1.5e3:1:1", "intconst:0x1fUL:1:7", "charconst:'a':1:14",
			`string:"s\"":1:18`, "EOF::1:23",
		},
	},
	{
		name:     "comments",
		src:      "a /* x */ b // c\nd",
		expected: []string{"ident:a:1:1", "ident:b:1:11", "ident:d:2:1", "EOF::2:2"},
	},
	{
		name: "punctuators",
		src:  "a->b...c<<=d",
		expected: []string{
			"ident:a:1:1", "'->':->:1:2", "ident:b:1:4", "'...':...:1:5",
			"ident:c:1:8", "'<<=':<<=:1:9", "ident:d:1:12", "EOF::1:13",
		},
	},
	{
		name:     "hash not at line start",
		src:      "a # b",
		expected: []string{"ident:a:1:1", "'#':#:1:3", "ident:b:1:5", "EOF::1:6"},
	},
	{
		name:     "null directive",
		src:      "#\nx",
		expected: []string{"ident:x:2:1", "EOF::2:2"},
	},
}

func TestLexer(t *testing.T) {
	for _, tc := range lexTestCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, lexAll(t, tc.src))
		})
	}
}

func TestLexerErrors(t *testing.T) {
	for _, tc := range []struct {
		src string
		msg string
	}{
		{`"abc`, "eof in string literal"},
		{"'a\n'", "new line in char literal"},
		{"/* x", "unclosed comment"},
		{"#include <foo.h", "EOF encountered in header include"},
		{"int @", "1:5"},
	} {
		lexer := Lex("test.c", strings.NewReader(tc.src))
		var err error
		for err == nil {
			var tok *Token
			tok, err = lexer.Next()
			if err == nil && tok.Kind == EOF {
				break
			}
		}
		require.Error(t, err, tc.src)
		assert.Contains(t, err.Error(), tc.msg)

		// The error is sticky.
		tok, again := lexer.Next()
		assert.Equal(t, err, again)
		assert.Equal(t, TokenKind(ERROR), tok.Kind)
	}
}

func TestLexerErrorLocation(t *testing.T) {
	lexer := Lex("test.c", strings.NewReader("int\n  @"))
	_, err := lexer.Next()
	require.NoError(t, err)
	_, err = lexer.Next()
	var loc ErrorLoc
	require.ErrorAs(t, err, &loc)
	assert.Equal(t, FilePos{File: "test.c", Line: 2, Col: 3}, loc.Pos)
}
