package decl

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var explainTestCases = []struct {
	node     Node
	expected string
}{
	{Named("int"), "int"},
	{Named("unsigned", "long"), "unsigned long"},
	{Named("struct", "point"), "struct point"},
	{Pointer(Named("int")), "pointer to int"},
	{Pointer(Pointer(Named("int"))), "pointer to pointer to int"},
	{Array(10, Named("int")), "array[10] of int"},
	{UnsizedArray(Named("int")), "array[] of int"},
	{Array(0, Named("char")), "array[0] of char"},
	{Func(Named("int")), "function() returning int"},
	{Func(Named("int"), Named("int"), Named("char")), "function(int, char) returning int"},
	{Pointer(Func(Named("int"))), "pointer to function() returning int"},
	{Func(Pointer(Named("int"))), "function() returning pointer to int"},
	{Array(4, Pointer(Named("char"))), "array[4] of pointer to char"},
	{Pointer(Array(4, Named("char"))), "pointer to array[4] of char"},
	{Array(2, Array(3, Named("int"))), "array[2] of array[3] of int"},
	{&Qualified{Qualifiers: Const, Inner: Named("char")}, "const char"},
	{&Qualified{Qualifiers: Volatile | Const, Inner: Named("int")}, "const volatile int"},
	{&Qualified{Inner: Named("int")}, "int"},
	{&PointerTo{Qualifiers: Const, Inner: Named("int")}, "const pointer to int"},
	{
		&PointerTo{Qualifiers: Volatile, Inner: &Qualified{Qualifiers: Const, Inner: Named("char")}},
		"volatile pointer to const char",
	},
	{
		&FunctionReturning{
			Params:   []Node{Pointer(&Qualified{Qualifiers: Const, Inner: Named("char")})},
			Variadic: true,
			Returns:  Named("int"),
		},
		"function(pointer to const char, ...) returning int",
	},
	{
		Func(Named("void"), &Field{Name: "n", Type: Named("int")}, &Field{Type: Pointer(Named("char"))}),
		"function(int, pointer to char) returning void",
	},
	{
		// void (*signal(int, void (*)(int)))(int);
		Func(
			Pointer(Func(Named("void"), Named("int"))),
			Named("int"),
			Pointer(Func(Named("void"), Named("int"))),
		),
		"function(int, pointer to function(int) returning void) returning pointer to function(int) returning void",
	},
	{&Field{Name: "x", Storage: Register, Type: Named("int")}, "int"},
	{&Aggregate{Name: "point"}, "struct point"},
	{&Aggregate{Kind: Union}, "union"},
	{
		&Aggregate{Members: []*Field{
			{Name: "a", Type: Named("int")},
			{Name: "b", Type: Pointer(Named("char"))},
		}},
		"struct containing {a is a int, b is a pointer to char}",
	},
}

func TestExplain(t *testing.T) {
	for idx := range explainTestCases {
		tc := &explainTestCases[idx]
		got, err := Explain(tc.node)
		if assert.NoError(t, err, "case %d", idx) {
			assert.Equal(t, tc.expected, got, "case %d", idx)
		}
	}
}

func TestExplainPointerToFunctionIsNotFunctionReturningPointer(t *testing.T) {
	a, err := Explain(Pointer(Func(Named("int"))))
	require.NoError(t, err)
	b, err := Explain(Func(Pointer(Named("int"))))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "pointer to function() returning int", a)
	assert.Equal(t, "function() returning pointer to int", b)
}

func TestExplainNamedTypeUnaffectedByWrapping(t *testing.T) {
	for _, names := range [][]string{{"int"}, {"unsigned", "long", "long"}, {"size_t"}} {
		joined := strings.Join(names, " ")
		got, err := Explain(Named(names...))
		require.NoError(t, err)
		assert.Equal(t, joined, got)

		got, err = Explain(Pointer(Array(2, Named(names...))))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(got, " of "+joined), got)
	}
}

func TestQualifierSetsRenderInFixedOrder(t *testing.T) {
	assert.Equal(t, "const volatile", (Volatile | Const).String())
	assert.Equal(t, "const", (Const | Const).String())
	assert.Equal(t, "", Qualifiers(0).String())
	assert.Equal(t, "static extern typedef register", (Register | Typedef | Extern | Static).String())
}

func nest(depth int) Node {
	var n Node = Named("int")
	for i := 0; i < depth; i++ {
		n = Pointer(n)
	}
	return n
}

func TestExplainDeepNesting(t *testing.T) {
	got, err := Explain(nest(64))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("pointer to ", 64)+"int", got)

	_, err = Explain(nest(DefaultMaxDepth + 1))
	assert.True(t, IsMalformed(err), "got %v", err)

	ex := &Explainer{MaxDepth: 8}
	_, err = ex.Explain(nest(9))
	assert.True(t, IsMalformed(err), "got %v", err)
	_, err = ex.Explain(nest(8))
	assert.NoError(t, err)
}

func TestExplainCycleIsMalformed(t *testing.T) {
	p := &PointerTo{}
	p.Inner = &Qualified{Qualifiers: Const, Inner: p}
	_, err := Explain(p)
	assert.True(t, IsMalformed(err), "got %v", err)
}

func TestExplainMissingChild(t *testing.T) {
	var nilPtr *PointerTo
	for idx, n := range []Node{
		nil,
		nilPtr,
		&PointerTo{},
		&ArrayOf{Sized: true, Length: 3},
		&FunctionReturning{Params: []Node{Named("int")}},
		Func(Named("int"), nil),
		&NamedType{},
	} {
		_, err := Explain(n)
		assert.True(t, IsMalformed(err), "case %d: got %v", idx, err)
	}
}

func TestExplainUnrecognized(t *testing.T) {
	_, err := Explain(Pointer(&Unrecognized{Tag: "bitfield"}))
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.Contains(t, err.Error(), "bitfield")
}

func TestExplainIsDeterministicUnderConcurrency(t *testing.T) {
	trees := make([]Node, 16)
	want := make([]string, len(trees))
	for i := range trees {
		trees[i] = Array(uint64(i), Pointer(Func(nest(i), Named("char"))))
		s, err := Explain(trees[i])
		require.NoError(t, err)
		want[i] = s
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(trees)*8)
	for g := 0; g < 8; g++ {
		for i := range trees {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got, err := Explain(trees[i])
				if err != nil {
					errs <- err
					return
				}
				if got != want[i] {
					errs <- fmt.Errorf("tree %d: got %q expected %q", i, got, want[i])
				}
			}(i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
