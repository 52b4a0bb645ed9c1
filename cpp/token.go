package cpp

import (
	"fmt"
)

// The list of tokens.
const (

	// Single char tokens are themselves.
	ADD       = '+'
	SUB       = '-'
	MUL       = '*'
	QUO       = '/'
	REM       = '%'
	AND       = '&'
	OR        = '|'
	XOR       = '^'
	QUESTION  = '?'
	HASH      = '#'
	LSS       = '<'
	GTR       = '>'
	ASSIGN    = '='
	NOT       = '!'
	BNOT      = '~'
	LPAREN    = '('
	LBRACK    = '['
	LBRACE    = '{'
	COMMA     = ','
	PERIOD    = '.'
	RPAREN    = ')'
	RBRACK    = ']'
	RBRACE    = '}'
	SEMICOLON = ';'
	COLON     = ':'

	ERROR = 10000 + iota
	EOF
	// cpp only tokens
	FUNCLIKE_DEFINE // Occurs after ident before paren #define ident(
	DIRECTIVE       // #if #include etc
	END_DIRECTIVE   // New line at the end of a directive
	HEADER          // <stdio.h> or "foo.h" after #include
	HASHHASH        // ## inside a macro body

	IDENT          // main
	INT_CONSTANT   // 12345
	FLOAT_CONSTANT // 123.45
	CHAR_CONSTANT  // 'a'
	STRING         // "abc"

	SHL        // <<
	SHR        // >>
	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	QUO_ASSIGN // /=
	REM_ASSIGN // %=
	AND_ASSIGN // &=
	OR_ASSIGN  // |=
	XOR_ASSIGN // ^=
	SHL_ASSIGN // <<=
	SHR_ASSIGN // >>=
	LAND       // &&
	LOR        // ||
	ARROW      // ->
	INC        // ++
	DEC        // --
	EQL        // ==
	NEQ        // !=
	LEQ        // <=
	GEQ        // >=
	ELLIPSIS   // ...

	keyword_beg
	AUTO
	BOOL
	BREAK
	CASE
	CHAR
	CONST
	CONTINUE
	DEFAULT
	DO
	DOUBLE
	ELSE
	ENUM
	EXTERN
	FLOAT
	FOR
	GOTO
	IF
	INLINE
	INT
	LONG
	REGISTER
	RESTRICT
	RETURN
	SHORT
	SIGNED
	SIZEOF
	STATIC
	STRUCT
	SWITCH
	TYPEDEF
	UNION
	UNSIGNED
	VOID
	VOLATILE
	WHILE
	keyword_end
)

var keywordLUT = map[string]TokenKind{
	"auto":     AUTO,
	"_Bool":    BOOL,
	"break":    BREAK,
	"case":     CASE,
	"char":     CHAR,
	"const":    CONST,
	"continue": CONTINUE,
	"default":  DEFAULT,
	"do":       DO,
	"double":   DOUBLE,
	"else":     ELSE,
	"enum":     ENUM,
	"extern":   EXTERN,
	"float":    FLOAT,
	"for":      FOR,
	"goto":     GOTO,
	"if":       IF,
	"inline":   INLINE,
	"int":      INT,
	"long":     LONG,
	"register": REGISTER,
	"restrict": RESTRICT,
	"return":   RETURN,
	"short":    SHORT,
	"signed":   SIGNED,
	"sizeof":   SIZEOF,
	"static":   STATIC,
	"struct":   STRUCT,
	"switch":   SWITCH,
	"typedef":  TYPEDEF,
	"union":    UNION,
	"unsigned": UNSIGNED,
	"void":     VOID,
	"volatile": VOLATILE,
	"while":    WHILE,
}

// Operators print as their spelling in quotes, e.g. '<<='.
const singleCharTokens = "+-*/%&|^?#<>=!~([{,.)]};:"

var multiCharTokens = map[TokenKind]string{
	HASHHASH:   "##",
	SHL:        "<<",
	SHR:        ">>",
	ADD_ASSIGN: "+=",
	SUB_ASSIGN: "-=",
	MUL_ASSIGN: "*=",
	QUO_ASSIGN: "/=",
	REM_ASSIGN: "%=",
	AND_ASSIGN: "&=",
	OR_ASSIGN:  "|=",
	XOR_ASSIGN: "^=",
	SHL_ASSIGN: "<<=",
	SHR_ASSIGN: ">>=",
	LAND:       "&&",
	LOR:        "||",
	ARROW:      "->",
	INC:        "++",
	DEC:        "--",
	EQL:        "==",
	NEQ:        "!=",
	LEQ:        "<=",
	GEQ:        ">=",
	ELLIPSIS:   "...",
}

var tokenKindToStr = map[TokenKind]string{
	ERROR:           "error",
	EOF:             "EOF",
	FUNCLIKE_DEFINE: "funclikedefine",
	DIRECTIVE:       "cppdirective",
	END_DIRECTIVE:   "enddirective",
	HEADER:          "header",
	IDENT:           "ident",
	INT_CONSTANT:    "intconst",
	FLOAT_CONSTANT:  "floatconst",
	CHAR_CONSTANT:   "charconst",
	STRING:          "string",
}

func init() {
	for _, c := range singleCharTokens {
		tokenKindToStr[TokenKind(c)] = "'" + string(c) + "'"
	}
	for k, s := range multiCharTokens {
		tokenKindToStr[k] = "'" + s + "'"
	}
	for s, k := range keywordLUT {
		tokenKindToStr[k] = s
	}
}

type TokenKind uint32

func (tk TokenKind) String() string {
	ret, ok := tokenKindToStr[tk]
	if !ok {
		return "Unknown"
	}
	return ret
}

// IsKeyword reports whether tk is one of the C keywords.
func (tk TokenKind) IsKeyword() bool {
	return tk > keyword_beg && tk < keyword_end
}

type FilePos struct {
	File string
	Line int
	Col  int
}

func (pos FilePos) String() string {
	return fmt.Sprintf("%s:%d:%d", pos.File, pos.Line, pos.Col)
}

// Token represents a grouping of characters
// that provide semantic meaning in a C program.
type Token struct {
	Kind             TokenKind
	Val              string
	Pos              FilePos
	WasMacroExpanded bool
	hs               *hideset
}

func (t *Token) copy() *Token {
	ret := *t
	return &ret
}

// identLike is true for tokens a macro may be named after.
func (t *Token) identLike() bool {
	return t.Kind == IDENT || t.Kind.IsKeyword()
}

func (t Token) String() string {
	if t.WasMacroExpanded {
		return fmt.Sprintf("%s expanded from macro at %s", t.Val, t.Pos)
	}
	return fmt.Sprintf("%s at %s", t.Val, t.Pos)
}
