package decl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		field    *Field
		expected string
	}{
		{&Field{Name: "x", Type: Named("int")}, "x is a int"},
		{&Field{Name: "x", Storage: Static, Type: Named("int")}, "x is a static int"},
		{&Field{Name: "x", Storage: Register | Static, Type: Named("int")}, "x is a static register int"},
		{&Field{Name: "size_t", Storage: Typedef, Type: Named("unsigned", "long")}, "size_t is a typedef unsigned long"},
		{
			&Field{Name: "fp", Type: Pointer(Func(Pointer(Named("int")), Named("char")))},
			"fp is a pointer to function(char) returning pointer to int",
		},
		{
			&Field{Name: "argv", Type: Pointer(Pointer(&Qualified{Qualifiers: Const, Inner: Named("char")}))},
			"argv is a pointer to pointer to const char",
		},
	}
	for _, tc := range cases {
		got, err := Describe(tc.field)
		if assert.NoError(t, err) {
			assert.Equal(t, tc.expected, got)
		}
	}
}

func TestDescribeEmptyName(t *testing.T) {
	_, err := Describe(&Field{Type: Named("int")})
	require.Error(t, err)
	assert.True(t, IsEmptyName(err))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "<anonymous>", fe.Subject())
}

func TestDescribeParamAllowsAnonymous(t *testing.T) {
	got, err := DescribeParam(&Field{Type: Pointer(Named("char"))})
	require.NoError(t, err)
	assert.Equal(t, "pointer to char", got)

	got, err = DescribeParam(&Field{Name: "n", Type: Named("int")})
	require.NoError(t, err)
	assert.Equal(t, "int", got)
}

func TestDescribeErrorNamesSubject(t *testing.T) {
	_, err := Describe(&Field{Name: "flags", Type: &Unrecognized{Tag: "bitfield"}})
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.Equal(t, "flags: unsupported node kind bitfield", err.Error())

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "flags", fe.Subject())
}

func TestDescribeNil(t *testing.T) {
	_, err := Describe(nil)
	assert.True(t, IsMalformed(err))
	_, err = Describe(&Field{Name: "x"})
	assert.True(t, IsMalformed(err))
}
