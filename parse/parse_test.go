package parse

import (
	"strings"
	"testing"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(src string, opts ...Option) ([]*TopLevel, error) {
	pp := cpp.New(cpp.Lex("test.c", strings.NewReader(src)), nil)
	return Parse(pp, opts...)
}

func describeAll(t *testing.T, toplevels []*TopLevel) []string {
	t.Helper()
	var lines []string
	for _, tl := range toplevels {
		switch root := tl.Root.(type) {
		case *decl.Field:
			s, err := decl.Describe(root)
			require.NoError(t, err)
			lines = append(lines, s)
		case *decl.Aggregate:
			s, err := decl.DescribeAggregate(root)
			require.NoError(t, err)
			lines = append(lines, s...)
		default:
			t.Fatalf("unexpected root %T", root)
		}
	}
	return lines
}

var parseTestCases = []struct {
	name     string
	src      string
	expected []string
}{
	{"int", "int x;", []string{"x is a int"}},
	{"pointer", "int *p;", []string{"p is a pointer to int"}},
	{"pointer to pointer", "char **argv;", []string{"argv is a pointer to pointer to char"}},
	{"sized array", "int a[3];", []string{"a is a array[3] of int"}},
	{"unsized array", "extern int a[];", []string{"a is a extern array[] of int"}},
	{"array of arrays", "int a[2][3];", []string{"a is a array[2] of array[3] of int"}},
	{"array of pointers", "int *a[3];", []string{"a is a array[3] of pointer to int"}},
	{"pointer to array", "int (*a)[3];", []string{"a is a pointer to array[3] of int"}},
	{"void params", "int f(void);", []string{"f is a function(void) returning int"}},
	{"empty params", "int f();", []string{"f is a function() returning int"}},
	{"function returning pointer", "int *f(char);", []string{"f is a function(char) returning pointer to int"}},
	{"pointer to function", "int (*fp)(char);", []string{"fp is a pointer to function(char) returning int"}},
	{
		"pointer to function returning pointer",
		"int *(*fp)(char);",
		[]string{"fp is a pointer to function(char) returning pointer to int"},
	},
	{
		"variadic",
		"int printf(const char *fmt, ...);",
		[]string{"printf is a function(pointer to const char, ...) returning int"},
	},
	{
		"array of function pointers",
		"int (*fns[4])(void);",
		[]string{"fns is a array[4] of pointer to function(void) returning int"},
	},
	{
		"signal",
		"extern void (*signal(int sig, void (*handler)(int)))(int);",
		[]string{"signal is a extern function(int, pointer to function(int) returning void) returning pointer to function(int) returning void"},
	},
	{"abstract params", "void qsort(void *, int (*)(const void *, const void *));",
		[]string{"qsort is a function(pointer to void, pointer to function(pointer to const void, pointer to const void) returning int) returning void"}},
	{"specifiers", "static const unsigned long x;", []string{"x is a static const unsigned long"}},
	{"const pointer", "char *const p;", []string{"p is a const pointer to char"}},
	{"restrict pointer", "char *restrict p;", []string{"p is a pointer to char"}},
	{"several declarators", "int a, *b, c[2];", []string{"a is a int", "b is a pointer to int", "c is a array[2] of int"}},
	{"implicit int", "static x;", []string{"x is a static int"}},
	{"bool", "_Bool flag;", []string{"flag is a _Bool"}},
	{"register param", "int f(register int x);", []string{"f is a function(int) returning int"}},
	{"typedef", "typedef unsigned int uint;\nuint x;", []string{"uint is a typedef unsigned int", "x is a uint"}},
	{"unknown type name", "size_t n;\nFILE *f;", []string{"n is a size_t", "f is a pointer to FILE"}},
	{"param hides typedef", "typedef int T;\nvoid f(int T, char *p);", []string{"T is a typedef int", "f is a function(int, pointer to char) returning void"}},
	{"struct definition", "struct point { int x; int y; };", []string{"x is a int", "y is a int"}},
	{"struct reference", "struct point p;", []string{"p is a struct point"}},
	{"anonymous struct type", "struct { int a; } s;", []string{"s is a struct containing {a is a int}"}},
	{
		"tagged struct with declarators",
		"struct node { int v; struct node *next; } head, *tail;",
		[]string{
			"head is a struct node containing {v is a int, next is a pointer to struct node}",
			"tail is a pointer to struct node",
		},
	},
	{"union definition", "union u { int i; float f; };", []string{"i is a int", "f is a float"}},
	{
		"anonymous member",
		"struct s { union { int a; char b; }; int c; };",
		[]string{"a is a int", "b is a char", "c is a int"},
	},
	{"enum constants", "enum { N = 4, M };\nint a[M];", []string{"a is a array[5] of int"}},
	{"enum type", "enum color c;", []string{"c is a enum color"}},
	{"constant dimension", "int a[2*3+1];", []string{"a is a array[7] of int"}},
	{
		"function definition",
		"int main(int argc, char **argv) { if (x) { y; } return 0; }\nint z;",
		[]string{"main is a function(int, pointer to pointer to char) returning int", "z is a int"},
	},
	{
		"initializers",
		"int x = 1, y = f(2, 3), z[] = {1, 2};",
		[]string{"x is a int", "y is a int", "z is a array[] of int"},
	},
	{"stray semicolons", ";int x;;", []string{"x is a int"}},
	{
		"gnu extensions",
		"extern int foo(void) __attribute__((noreturn));\n__extension__ typedef long long __int64_t;",
		[]string{"foo is a extern function(void) returning int", "__int64_t is a typedef long long"},
	},
	{"gnu const", "__const char *s;", []string{"s is a pointer to const char"}},
	{"macro dimension", "#define N 8\nchar buf[N];", []string{"buf is a array[8] of char"}},
}

func TestParser(t *testing.T) {
	for _, tc := range parseTestCases {
		t.Run(tc.name, func(t *testing.T) {
			toplevels, err := parseString(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, describeAll(t, toplevels))
		})
	}
}

func TestParserTree(t *testing.T) {
	toplevels, err := parseString("const char *p;")
	require.NoError(t, err)
	require.Len(t, toplevels, 1)
	expected := &decl.Field{
		Name: "p",
		Type: &decl.PointerTo{
			Inner: &decl.Qualified{Qualifiers: decl.Const, Inner: decl.Named("char")},
		},
	}
	assert.Equal(t, expected, toplevels[0].Root)
	assert.Equal(t, cpp.FilePos{File: "test.c", Line: 1, Col: 13}, toplevels[0].Pos)
}

func TestParserWithTypedefs(t *testing.T) {
	src := "T (*fp)(void);"
	toplevels, err := parseString(src, WithTypedefs("T"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fp is a pointer to function(void) returning T"}, describeAll(t, toplevels))
}

func TestParserUnrecognized(t *testing.T) {
	toplevels, err := parseString("struct s { int flag : 1; int ok; };\nint f(int n, int a[n]);")
	require.NoError(t, err)
	require.Len(t, toplevels, 2)

	agg, ok := toplevels[0].Root.(*decl.Aggregate)
	require.True(t, ok)
	assert.Equal(t, &decl.Unrecognized{Tag: "bitfield"}, agg.Members[0].Type)
	lines, err := decl.DescribeAggregate(agg)
	assert.Equal(t, []string{"ok is a int"}, lines)
	assert.True(t, decl.IsUnsupported(err))

	fn, ok := toplevels[1].Root.(*decl.Field).Type.(*decl.FunctionReturning)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, &decl.Unrecognized{Tag: "variable length array"}, fn.Params[1].(*decl.Field).Type)
}

func TestParserAggregateRootPos(t *testing.T) {
	toplevels, err := parseString("\n  struct s { int a; };")
	require.NoError(t, err)
	require.Len(t, toplevels, 1)
	assert.Equal(t, cpp.FilePos{File: "test.c", Line: 2, Col: 3}, toplevels[0].Pos)
}

func TestParserMemberPos(t *testing.T) {
	toplevels, err := parseString("struct s {\n  int a, *b;\n  union { char c; };\n};")
	require.NoError(t, err)
	require.Len(t, toplevels, 1)
	assert.Equal(t, []cpp.FilePos{
		{File: "test.c", Line: 2, Col: 7},
		{File: "test.c", Line: 2, Col: 11},
		{File: "test.c", Line: 3, Col: 16},
	}, toplevels[0].MemberPos)

	toplevels, err = parseString("struct s { int a; } x;")
	require.NoError(t, err)
	require.Len(t, toplevels, 1)
	assert.Nil(t, toplevels[0].MemberPos)
}

var parseErrorTestCases = []struct {
	name string
	src  string
	msg  string
}{
	{"missing semicolon", "int x", "expected '=', ',' or ';'"},
	{"unterminated body", "int f() {", "unterminated block"},
	{"negative dimension", "int a[-1];", "size of array is negative"},
	{"bad declarator", "int 3;", "expected ident, '(' or '*'"},
	{"struct without tag", "struct ;", "expected tag or '{' after struct"},
	{"unbalanced initializer", "int x = (1;", "unexpected end of input"},
	{"enum value", "enum { A = x };", "value of A is not an integer constant"},
	{"variadic without parameter", "int f(...);", "named argument before '...'"},
	{"two types", "int char x;", "two or more data types"},
	{"body after variable", "int x { }", "unexpected '{'"},
	{"member storage", "struct s { static int a; };", "storage class static"},
	{"preprocessor", "#error nope\n", "#error nope"},
}

func TestParserErrors(t *testing.T) {
	for _, tc := range parseErrorTestCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseString(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
			var loc cpp.ErrorLoc
			assert.ErrorAs(t, err, &loc)
		})
	}
}

func TestParserKeepsDeclarationsBeforeError(t *testing.T) {
	toplevels, err := parseString("int a;\nint 3;")
	require.Error(t, err)
	var loc cpp.ErrorLoc
	require.ErrorAs(t, err, &loc)
	assert.Equal(t, 2, loc.Pos.Line)
	assert.Equal(t, []string{"a is a int"}, describeAll(t, toplevels))
}
