package cpp

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Lexer reads unprocessed C tokens from a reader on demand.
//
// Newlines are invisible except at the end of a # directive line, where
// END_DIRECTIVE is produced so the preprocessor can find the end of the
// directive.
type Lexer struct {
	brdr *bufio.Reader
	// Position of the next rune brdr will produce.
	pos FilePos
	// Runes pushed back by unread, the next to be read is last.
	back []lexRune
	// At the beginning of a line, ignoring whitespace and comments.
	bol bool
	// Currently reading a # directive line.
	inDirective bool
	// Set after #include and #define to lex the directive argument specially.
	wantHeader  bool
	wantDefine  bool
	queue       []*Token
	markedPos   FilePos
	err         error
}

type lexRune struct {
	r   rune
	pos FilePos
	eof bool
}

type lexBreakout struct {
	err error
}

// Lex creates a lexer reading the contents of r.
// fname is used for error messages when showing the source location.
// No preprocessing is done, this is just pure reading of the unprocessed
// source file.
func Lex(fname string, r io.Reader) *Lexer {
	lx := new(Lexer)
	lx.pos = FilePos{File: fname, Line: 1, Col: 1}
	lx.brdr = bufio.NewReader(r)
	lx.bol = true
	return lx
}

// Next returns the next token. Once the input is exhausted it keeps
// returning EOF. After an error it keeps returning the same error.
func (lx *Lexer) Next() (tok *Token, err error) {
	if lx.err != nil {
		return &Token{Kind: ERROR, Val: lx.err.Error(), Pos: lx.pos}, lx.err
	}
	if len(lx.queue) != 0 {
		tok = lx.queue[0]
		lx.queue = lx.queue[1:]
		return tok, nil
	}
	defer func() {
		if e := recover(); e != nil {
			b := e.(lexBreakout) // Will re-panic if not a breakout.
			lx.err = b.err
			tok = &Token{Kind: ERROR, Val: b.err.Error(), Pos: lx.pos}
			err = b.err
		}
	}()
	return lx.lex(), nil
}

func (lx *Lexer) error(m string) {
	panic(lexBreakout{ErrWithLoc(errors.New(m), lx.pos)})
}

func (lx *Lexer) errorf(format string, args ...interface{}) {
	panic(lexBreakout{errorfAt(lx.markedPos, format, args...)})
}

func advance(pos FilePos, r rune) FilePos {
	switch r {
	case '\n':
		pos.Line += 1
		pos.Col = 1
	case '\t':
		pos.Col += 4
	default:
		pos.Col += 1
	}
	return pos
}

// readRaw reads from the underlying reader, splicing away backslash
// newline pairs.
func (lx *Lexer) readRaw() lexRune {
	for {
		pos := lx.pos
		r, _, err := lx.brdr.ReadRune()
		if err == io.EOF {
			return lexRune{pos: pos, eof: true}
		}
		if err != nil {
			lx.error(err.Error())
		}
		lx.pos = advance(pos, r)
		if r != '\\' {
			return lexRune{r: r, pos: pos}
		}
		next, _, err := lx.brdr.ReadRune()
		if err != nil || next != '\n' {
			if err == nil {
				lx.brdr.UnreadRune()
			}
			return lexRune{r: r, pos: pos}
		}
		lx.pos = advance(lx.pos, next)
	}
}

func (lx *Lexer) read() lexRune {
	if n := len(lx.back); n != 0 {
		c := lx.back[n-1]
		lx.back = lx.back[:n-1]
		return c
	}
	return lx.readRaw()
}

func (lx *Lexer) unread(c lexRune) {
	lx.back = append(lx.back, c)
}

func (lx *Lexer) peek() lexRune {
	c := lx.read()
	lx.unread(c)
	return c
}

func (lx *Lexer) tok(kind TokenKind, val string) *Token {
	if kind != END_DIRECTIVE {
		lx.bol = false
	}
	return &Token{Kind: kind, Val: val, Pos: lx.markedPos, hs: emptyHS}
}

func (lx *Lexer) lex() *Token {
	for {
		c := lx.read()
		lx.markedPos = c.pos
		if c.eof {
			if lx.inDirective {
				lx.inDirective = false
				return lx.tok(END_DIRECTIVE, "")
			}
			return lx.tok(EOF, "")
		}
		if c.r == '\n' {
			lx.bol = true
			if lx.inDirective {
				lx.inDirective = false
				lx.wantHeader = false
				lx.wantDefine = false
				return lx.tok(END_DIRECTIVE, "")
			}
			continue
		}
		if isWhiteSpace(c.r) {
			continue
		}
		if c.r == '/' && lx.skipComment() {
			continue
		}
		switch {
		case lx.wantHeader && (c.r == '<' || c.r == '"'):
			lx.wantHeader = false
			return lx.readHeader(c)
		case c.r == '#' && lx.bol && !lx.inDirective:
			if t := lx.readDirective(); t != nil {
				return t
			}
			continue
		case isValidIdentStart(c.r):
			lx.unread(c)
			t := lx.readIdentOrKeyword()
			if lx.wantDefine {
				lx.wantDefine = false
				// Only a paren touching the name makes a function like macro.
				if n := lx.peek(); !n.eof && n.r == '(' {
					lx.queue = append(lx.queue, &Token{Kind: FUNCLIKE_DEFINE, Pos: n.pos, hs: emptyHS})
				}
			}
			return t
		case isNumeric(c.r):
			lx.unread(c)
			return lx.readNumber()
		case c.r == '.' && isNumeric(lx.peek().r):
			lx.unread(c)
			return lx.readNumber()
		case c.r == '"':
			return lx.readQuoted(c, '"', STRING, "string literal")
		case c.r == '\'':
			return lx.readQuoted(c, '\'', CHAR_CONSTANT, "char literal")
		}
		lx.unread(c)
		return lx.readPunctuator()
	}
}

// skipComment is called after reading '/', it consumes a comment and
// reports whether there was one.
func (lx *Lexer) skipComment() bool {
	c := lx.read()
	switch {
	case !c.eof && c.r == '*':
		for {
			c = lx.read()
			if c.eof {
				lx.error("unclosed comment.")
			}
			if c.r == '*' {
				if n := lx.peek(); !n.eof && n.r == '/' {
					lx.read()
					return true
				}
			}
		}
	case !c.eof && c.r == '/':
		for {
			c = lx.read()
			if c.eof || c.r == '\n' {
				// The newline may end a directive.
				lx.unread(c)
				return true
			}
		}
	}
	lx.unread(c)
	return false
}

func (lx *Lexer) skipLineWhiteSpace() {
	for {
		c := lx.read()
		if c.eof || c.r == '\n' || !isWhiteSpace(c.r) {
			if !c.eof && c.r == '/' && lx.skipComment() {
				continue
			}
			lx.unread(c)
			return
		}
	}
}

// readDirective is called after a '#' at the start of a line. A line
// holding only '#' is a null directive and produces no token.
func (lx *Lexer) readDirective() *Token {
	lx.skipLineWhiteSpace()
	c := lx.peek()
	if c.eof || c.r == '\n' {
		return nil
	}
	if !isAlpha(c.r) {
		// wasnt a directive, error will be caught by
		// cpp or parser.
		return lx.tok(HASH, "#")
	}
	lx.markedPos = c.pos
	var buff strings.Builder
	for {
		c = lx.read()
		if c.eof || !isValidIdentTail(c.r) {
			lx.unread(c)
			break
		}
		buff.WriteRune(c.r)
	}
	lx.inDirective = true
	directive := buff.String()
	switch directive {
	case "include":
		lx.wantHeader = true
	case "define":
		lx.wantDefine = true
	}
	return lx.tok(DIRECTIVE, directive)
}

func (lx *Lexer) readHeader(opening lexRune) *Token {
	terminator := '"'
	if opening.r == '<' {
		terminator = '>'
	}
	var buff strings.Builder
	buff.WriteRune(opening.r)
	for {
		c := lx.read()
		if c.eof {
			lx.error("EOF encountered in header include.")
		}
		if c.r == '\n' {
			lx.error("new line in header include.")
		}
		buff.WriteRune(c.r)
		if c.r == terminator {
			break
		}
	}
	return lx.tok(HEADER, buff.String())
}

func (lx *Lexer) readIdentOrKeyword() *Token {
	var buff strings.Builder
	for {
		c := lx.read()
		if c.eof || !isValidIdentTail(c.r) {
			lx.unread(c)
			break
		}
		buff.WriteRune(c.r)
	}
	str := buff.String()
	kind, ok := keywordLUT[str]
	if !ok {
		kind = IDENT
	}
	return lx.tok(kind, str)
}

// readNumber reads a preprocessing number, which is more permissive than
// a C constant. Classification as int or float is by its shape, the
// evaluator rejects malformed constants.
func (lx *Lexer) readNumber() *Token {
	var buff strings.Builder
	kind := TokenKind(INT_CONSTANT)
	hex := false
	for {
		c := lx.read()
		if c.eof {
			break
		}
		r := c.r
		if buff.Len() == 1 && (r == 'x' || r == 'X') && buff.String() == "0" {
			hex = true
			buff.WriteRune(r)
			continue
		}
		isExp := (!hex && (r == 'e' || r == 'E')) || (hex && (r == 'p' || r == 'P'))
		switch {
		case isExp:
			kind = FLOAT_CONSTANT
			buff.WriteRune(r)
			if s := lx.read(); !s.eof && (s.r == '+' || s.r == '-') {
				buff.WriteRune(s.r)
			} else {
				lx.unread(s)
			}
			continue
		case r == '.':
			kind = FLOAT_CONSTANT
		case isValidIdentTail(r):
		default:
			lx.unread(c)
			return lx.tok(kind, buff.String())
		}
		buff.WriteRune(r)
	}
	return lx.tok(kind, buff.String())
}

func (lx *Lexer) readQuoted(opening lexRune, terminator rune, kind TokenKind, what string) *Token {
	var buff strings.Builder
	buff.WriteRune(opening.r)
	for {
		c := lx.read()
		if c.eof {
			lx.error("eof in " + what)
		}
		if c.r == '\n' {
			lx.error("new line in " + what)
		}
		buff.WriteRune(c.r)
		if c.r == '\\' {
			e := lx.read()
			if e.eof {
				lx.error("eof in " + what)
			}
			buff.WriteRune(e.r)
			continue
		}
		if c.r == terminator {
			return lx.tok(kind, buff.String())
		}
	}
}

// Longest first within each leading character.
var punctuators = []struct {
	s    string
	kind TokenKind
}{
	{"...", ELLIPSIS},
	{"<<=", SHL_ASSIGN},
	{">>=", SHR_ASSIGN},
	{"->", ARROW},
	{"++", INC},
	{"--", DEC},
	{"<<", SHL},
	{">>", SHR},
	{"<=", LEQ},
	{">=", GEQ},
	{"==", EQL},
	{"!=", NEQ},
	{"&&", LAND},
	{"||", LOR},
	{"+=", ADD_ASSIGN},
	{"-=", SUB_ASSIGN},
	{"*=", MUL_ASSIGN},
	{"/=", QUO_ASSIGN},
	{"%=", REM_ASSIGN},
	{"&=", AND_ASSIGN},
	{"|=", OR_ASSIGN},
	{"^=", XOR_ASSIGN},
	{"##", HASHHASH},
}

const singleCharPunctuators = "+-*/%&|^?#<>=!~([{,.)]};:"

func (lx *Lexer) readPunctuator() *Token {
	var got []lexRune
	for len(got) < 3 {
		c := lx.read()
		got = append(got, c)
		if c.eof {
			break
		}
	}
	text := ""
	for _, c := range got {
		if !c.eof {
			text += string(c.r)
		}
	}
	n := 0
	var kind TokenKind
	for _, p := range punctuators {
		if strings.HasPrefix(text, p.s) {
			n, kind = len(p.s), p.kind
			break
		}
	}
	if n == 0 && len(text) > 0 && strings.ContainsRune(singleCharPunctuators, got[0].r) {
		n, kind = 1, TokenKind(got[0].r)
	}
	for i := len(got) - 1; i >= n; i-- {
		lx.unread(got[i])
	}
	if n == 0 {
		lx.markedPos = got[0].pos
		lx.errorf("invalid character %q", got[0].r)
	}
	return lx.tok(kind, text[:n])
}

func isValidIdentTail(b rune) bool {
	return isValidIdentStart(b) || isNumeric(b) || b == '$'
}

func isValidIdentStart(b rune) bool {
	return b == '_' || isAlpha(b)
}

func isAlpha(b rune) bool {
	if b >= 'a' && b <= 'z' {
		return true
	}
	if b >= 'A' && b <= 'Z' {
		return true
	}
	return false
}

func isWhiteSpace(b rune) bool {
	return b == ' ' || b == '\r' || b == '\n' || b == '\t' || b == '\f' || b == '\v'
}

func isNumeric(b rune) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b rune) bool {
	return isNumeric(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
