package cpp

import (
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapIncludeSearcher serves headers from memory.
type mapIncludeSearcher map[string]string

func (m mapIncludeSearcher) IncludeQuote(requestingFile, headerPath string) (string, io.Reader, error) {
	return m.IncludeAngled(requestingFile, headerPath)
}

func (m mapIncludeSearcher) IncludeAngled(requestingFile, headerPath string) (string, io.Reader, error) {
	src, ok := m[headerPath]
	if !ok {
		return "", nil, errors.Errorf("header %s not found", headerPath)
	}
	return headerPath, strings.NewReader(src), nil
}

var testHeaders = mapIncludeSearcher{
	"foo.h":    "int x;",
	"guard.h":  "#ifndef GUARD\n#define GUARD\nguarded\n#endif\n",
	"nested.h": "#include \"foo.h\"\nnested",
}

func preprocess(src string, defines map[string]string) ([]*Token, error) {
	pp := New(Lex("test.c", strings.NewReader(src)), testHeaders)
	for k, v := range defines {
		if err := pp.Define(k, v); err != nil {
			return nil, err
		}
	}
	var toks []*Token
	for {
		tok, err := pp.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

var cppTestCases = []struct {
	name     string
	src      string
	expected string
}{
	{"object macro", "#define X 1\nX", "1"},
	{"empty macro", "#define X\na X b", "a b"},
	{"function macro", "#define F(a,b) a+b\nF(1,2)", "1 + 2"},
	{"nested parens in args", "#define F(a) [a]\nF((1,2))", "[ ( 1 , 2 ) ]"},
	{"no arguments", "#define F() z\nF()", "z"},
	{"self reference", "#define foo foo\nfoo", "foo"},
	{"mutual recursion", "#define a b\n#define b a\na", "a"},
	{"stringify", "#define F(x) #x\nF(a  +  \"q\")", `"a + \"q\""`},
	{"paste idents", "#define CAT(a,b) a##b\nCAT(fo,o)", "foo"},
	{"paste number", "#define CAT(a,b) a ## b\nCAT(x,1)", "x1"},
	{"paste empty", "#define CAT(a,b) a##b\nCAT(,y)", "y"},
	{"argument expanded", "#define ONE 1\n#define ID(x) x\nID(ONE)", "1"},
	{"name without arguments", "#define F(x) x\nF", "F"},
	{"name then other token", "#define F(x) x\nF + 1", "F + 1"},
	{"rescan", "#define G F\n#define F(x) <x>\nG(1)", "< 1 >"},
	{"variadic", "#define V(a,...) a __VA_ARGS__\nV(1,2,3)", "1 2 , 3"},
	{"variadic empty", "#define V(a,...) a __VA_ARGS__\nV(1)", "1"},
	{"keyword macro", "#define const\nconst int x;", "int x ;"},
	{"if elif else", "#if 0\na\n#elif 1\nb\n#else\nc\n#endif", "b"},
	{"if true else", "#if 1\na\n#else\nb\n#endif\nc", "a c"},
	{"elif after taken", "#if 1\na\n#elif 1\nb\n#endif", "a"},
	{"ifdef undefined", "#ifdef X\na\n#else\nb\n#endif", "b"},
	{"ifdef defined", "#define X\n#ifdef X\na\n#endif", "a"},
	{"ifndef", "#ifndef X\na\n#endif", "a"},
	{"nested skip", "#if 0\n#if 1\na\n#else\nb\n#endif\n#else\nc\n#endif", "c"},
	{"defined operator", "#define foo\n#if defined(foo) && !defined bar\nyes\n#endif", "yes"},
	{"macro in if", "#define N 3\n#if N > 2\nbig\n#endif", "big"},
	{"unknown ident in if", "#if UNKNOWN\na\n#else\nb\n#endif", "b"},
	{"char in if", "#if 'a' == 97\na\n#endif", "a"},
	{"undef", "#define X 1\n#undef X\nX", "X"},
	{"undef unknown", "#undef X\nX", "X"},
	{"benign redefinition", "#define X 1\n#define X 1\nX", "1"},
	{"ignored directives", "#pragma once\n#line 10\n#ident \"x\"\na", "a"},
	{"null directive", "#\na", "a"},
	{"directives skipped in false block", "#if 0\n#error nope\n#foo\n#endif\na", "a"},
	{"include", "#include \"foo.h\"\ny", "int x ; y"},
	{"include angled", "#include <foo.h>\ny", "int x ; y"},
	{"include nested", "#include <nested.h>\ny", "int x ; nested y"},
	{"include guard", "#include \"guard.h\"\n#include \"guard.h\"\n", "guarded"},
	{"include macro", "#define H \"foo.h\"\n#include H\n", "int x ;"},
}

func TestPreprocessor(t *testing.T) {
	for _, tc := range cppTestCases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := preprocess(tc.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, joinTokens(toks))
		})
	}
}

var cppErrorTestCases = []struct {
	name string
	src  string
	msg  string
}{
	{"redefinition", "#define X 1\n#define X 2", "macro redefinition X"},
	{"func redefined as obj", "#define X(a) a\n#define X 2", "macro redefinition X"},
	{"unterminated if", "#if 1\na", "unterminated conditional directive"},
	{"endif without if", "#endif", "#endif without #if"},
	{"else without if", "#else\n", "#else without #if"},
	{"else after else", "#if 1\n#else\n#else\n#endif", "#else after #else"},
	{"elif after else", "#if 1\n#else\n#elif 1\n#endif", "#elif after #else"},
	{"error directive", "#error boom here", "#error boom here"},
	{"eof in arguments", "#define F(x) x\nF(1", "EOF while reading arguments of macro F"},
	{"argument count", "#define F(x) x\nF(1,2)", "macro F invoked with 2 arguments but 1 were expected"},
	{"unknown directive", "#foo", "unknown directive #foo"},
	{"missing include", "#include \"missing.h\"", "error during include"},
	{"bad if expression", "#if 1/0\n#endif", "divide by zero"},
	{"empty if", "#if\n#endif", "#if with no expression"},
	{"duplicate parameter", "#define F(a,a) a", "duplicate macro parameter a"},
	{"junk after endif", "#if 1\n#endif x", "unexpected token after #endif"},
	{"bad paste", "#define CAT(a,b) a##b\nCAT(+,/)", "does not give a valid preprocessing token"},
	{"malformed defined", "#if defined(\n#endif", "malformed defined check"},
}

func TestPreprocessorErrors(t *testing.T) {
	for _, tc := range cppErrorTestCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := preprocess(tc.src, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
			var loc ErrorLoc
			assert.ErrorAs(t, err, &loc)
		})
	}
}

func TestPreprocessorDefine(t *testing.T) {
	toks, err := preprocess("N M", map[string]string{"N": "42", "M": ""})
	require.NoError(t, err)
	assert.Equal(t, "42", joinTokens(toks))

	pp := New(Lex("test.c", strings.NewReader("")), nil)
	assert.Error(t, pp.Define("1X", "1"))
	assert.Error(t, pp.Define("", "1"))
	require.NoError(t, pp.Define("X", "1"))
	assert.Error(t, pp.Define("X", "2"))
}

func TestPreprocessorExpansionPos(t *testing.T) {
	toks, err := preprocess("#define X 1 2\na\n  X", nil)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.False(t, toks[0].WasMacroExpanded)
	for _, tok := range toks[1:] {
		assert.True(t, tok.WasMacroExpanded)
		assert.Equal(t, FilePos{File: "test.c", Line: 3, Col: 3}, tok.Pos)
	}
}

func TestPreprocessorWarning(t *testing.T) {
	pp := New(Lex("test.c", strings.NewReader("#warning careful now\na")), nil)
	var got []string
	pp.SetWarningHandler(func(pos FilePos, msg string) {
		got = append(got, pos.String()+" "+msg)
	})
	tok, err := pp.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Val)
	assert.Equal(t, []string{"test.c:1:2 careful now"}, got)
}

func TestPreprocessorNoSearcher(t *testing.T) {
	pp := New(Lex("test.c", strings.NewReader("#include <x.h>\n")), nil)
	_, err := pp.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no include searcher")
}
