package cpp

import (
	"io"
	"strings"
)

const maxIncludeDepth = 200

type Preprocessor struct {
	is IncludeSearcher
	// Stack of lexers, the last one reads the innermost #include.
	lexers []*Lexer
	// Pushed back tokens, the next token to return is last.
	pending []*Token
	// Map of defined macros
	objMacros map[string]*objMacro
	// Map of defined FUNC macros
	funcMacros map[string]*funcMacro
	// Stack of conditional contexts for #if blocks.
	conds []*condContext
	warn  func(pos FilePos, msg string)
}

type condContext struct {
	pos FilePos
	// Tokens of the current branch are passed through.
	active bool
	// A branch has been taken, later #elif and #else are skipped.
	taken   bool
	sawElse bool
}

// New creates a preprocessor reading from l. is resolves #include
// directives, it may be nil if includes are not wanted.
func New(l *Lexer, is IncludeSearcher) *Preprocessor {
	ret := new(Preprocessor)
	ret.lexers = []*Lexer{l}
	ret.is = is
	ret.objMacros = make(map[string]*objMacro)
	ret.funcMacros = make(map[string]*funcMacro)
	return ret
}

// SetWarningHandler sets the function called for #warning directives.
func (pp *Preprocessor) SetWarningHandler(f func(pos FilePos, msg string)) {
	pp.warn = f
}

type cppbreakout struct {
	err error
}

func (pp *Preprocessor) cppError(pos FilePos, format string, args ...interface{}) {
	panic(&cppbreakout{errorfAt(pos, format, args...)})
}

func (pp *Preprocessor) nextNoExpand() *Token {
	if n := len(pp.pending); n != 0 {
		t := pp.pending[n-1]
		pp.pending = pp.pending[:n-1]
		return t
	}
	for {
		t, err := pp.lexers[len(pp.lexers)-1].Next()
		if err != nil {
			panic(&cppbreakout{err})
		}
		if t.Kind == EOF && len(pp.lexers) > 1 {
			pp.lexers = pp.lexers[:len(pp.lexers)-1]
			continue
		}
		return t
	}
}

func (pp *Preprocessor) ungetToken(t *Token) {
	pp.pending = append(pp.pending, t)
}

func (pp *Preprocessor) ungetTokens(toks []*Token) {
	for i := len(toks) - 1; i >= 0; i-- {
		pp.pending = append(pp.pending, toks[i])
	}
}

func (pp *Preprocessor) skipping() bool {
	n := len(pp.conds)
	return n != 0 && !pp.conds[n-1].active
}

// Next returns the next fully preprocessed token, EOF at the end of input.
func (pp *Preprocessor) Next() (t *Token, err error) {

	defer func() {
		if e := recover(); e != nil {
			b := e.(*cppbreakout) // Will re-panic if not a breakout.
			t = &Token{Kind: ERROR, Val: b.err.Error()}
			err = b.err
		}
	}()

	for {
		t = pp.nextNoExpand()
		switch {
		case t.Kind == DIRECTIVE:
			pp.handleDirective(t)
		case t.Kind == EOF:
			if n := len(pp.conds); n != 0 {
				pp.cppError(pp.conds[n-1].pos, "unterminated conditional directive")
			}
			return t, nil
		case pp.skipping():
		case pp.expand(t):
		default:
			return t, nil
		}
	}
}

// expand pushes back the expansion of t and returns true if t names a
// macro that may be expanded here.
func (pp *Preprocessor) expand(t *Token) bool {
	if !t.identLike() || t.hs.contains(t.Val) {
		return false
	}
	if m, ok := pp.objMacros[t.Val]; ok {
		pp.ungetTokens(pp.subst(m.tokens, nil, nil, t.hs.add(t.Val), t.Pos))
		return true
	}
	m, ok := pp.funcMacros[t.Val]
	if !ok {
		return false
	}
	opening := pp.nextNoExpand()
	if opening.Kind != LPAREN {
		// A function like macro name without arguments is left alone.
		pp.ungetToken(opening)
		return false
	}
	args, rparen := pp.readMacroInvokeArguments(t)
	if m.nparams == 0 && len(args) == 1 && len(args[0]) == 0 {
		args = nil
	}
	if m.variadic {
		args = mergeVariadic(args, m.nparams)
	}
	if len(args) != m.nparams {
		pp.cppError(t.Pos, "macro %s invoked with %d arguments but %d were expected", t.Val, len(args), m.nparams)
	}
	hs := t.hs.intersection(rparen.hs).add(t.Val)
	pp.ungetTokens(pp.subst(m.tokens, m, args, hs, t.Pos))
	return true
}

// mergeVariadic folds the trailing arguments of a variadic invocation into
// the last parameter, __VA_ARGS__, keeping their commas.
func mergeVariadic(args [][]*Token, nparams int) [][]*Token {
	if len(args) == nparams-1 {
		return append(args, nil)
	}
	if len(args) <= nparams {
		return args
	}
	rest := args[nparams-1]
	for _, a := range args[nparams:] {
		rest = append(rest, &Token{Kind: COMMA, Val: ",", hs: emptyHS})
		rest = append(rest, a...)
	}
	return append(args[:nparams-1], rest)
}

// Read the tokens that are part of a macro invocation, not including the first paren.
// But including the last paren. Handles nested parens.
// returns a slice of token lists and the closing paren.
// Each token list in the returned value represents a read macro param.
// e.g. FOO(BAR,(A,B),C)  -> { <BAR> , <(A,B)> , <C> } , )
// Where FOO( has already been consumed.
func (pp *Preprocessor) readMacroInvokeArguments(name *Token) ([][]*Token, *Token) {
	parenDepth := 1
	args := [][]*Token{nil}
	for {
		t := pp.nextNoExpand()
		last := len(args) - 1
		switch t.Kind {
		case EOF:
			pp.cppError(name.Pos, "EOF while reading arguments of macro %s", name.Val)
		case DIRECTIVE:
			pp.cppError(t.Pos, "directive inside arguments of macro %s", name.Val)
		case LPAREN:
			parenDepth += 1
			args[last] = append(args[last], t)
		case RPAREN:
			parenDepth -= 1
			if parenDepth == 0 {
				return args, t
			}
			args[last] = append(args[last], t)
		case COMMA:
			if parenDepth == 1 {
				args = append(args, nil)
			} else {
				args[last] = append(args[last], t)
			}
		default:
			args[last] = append(args[last], t)
		}
	}
}

// expandList fully expands toks on their own, as needed for macro
// arguments and #if lines.
func (pp *Preprocessor) expandList(toks []*Token) []*Token {
	saved := pp.pending
	pp.pending = nil
	end := &Token{Kind: EOF}
	pp.ungetToken(end)
	pp.ungetTokens(toks)
	var out []*Token
	for {
		t := pp.nextNoExpand()
		if t == end {
			break
		}
		if !pp.expand(t) {
			out = append(out, t)
		}
	}
	pp.pending = saved
	return out
}

// subst builds the replacement list of a macro invocation. m and args are
// nil for object like macros.
func (pp *Preprocessor) subst(body []*Token, m *funcMacro, args [][]*Token, hs *hideset, invokePos FilePos) []*Token {
	var out []*Token
	param := func(t *Token) ([]*Token, bool) {
		if m == nil {
			return nil, false
		}
		idx, ok := m.paramIndex(t)
		if !ok {
			return nil, false
		}
		return args[idx], true
	}
	for i := 0; i < len(body); i++ {
		t := body[i]
		hasNext := i+1 < len(body)
		if t.Kind == HASH && hasNext && m != nil {
			if arg, ok := param(body[i+1]); ok {
				out = append(out, stringify(arg, invokePos))
				i++
				continue
			}
		}
		if t.Kind == HASHHASH && hasNext {
			i++
			right, ok := param(body[i])
			if !ok {
				right = []*Token{body[i]}
			}
			if len(out) == 0 {
				out = append(out, right...)
				continue
			}
			if len(right) == 0 {
				continue
			}
			pasted := pp.paste(out[len(out)-1], right[0])
			out = append(out[:len(out)-1], pasted)
			out = append(out, right[1:]...)
			continue
		}
		if arg, ok := param(t); ok {
			// Operands of ## are pasted unexpanded.
			if hasNext && body[i+1].Kind == HASHHASH {
				out = append(out, arg...)
			} else {
				out = append(out, pp.expandList(arg)...)
			}
			continue
		}
		out = append(out, t)
	}
	for i, t := range out {
		c := t.copy()
		c.hs = c.hs.union(hs)
		c.Pos = invokePos
		c.WasMacroExpanded = true
		out[i] = c
	}
	return out
}

func (pp *Preprocessor) paste(l, r *Token) *Token {
	text := l.Val + r.Val
	lx := Lex(l.Pos.File, strings.NewReader(text))
	lx.bol = false
	t, err := lx.Next()
	if err == nil {
		var end *Token
		end, err = lx.Next()
		if err == nil && end.Kind == EOF {
			t.Pos = l.Pos
			t.hs = l.hs
			return t
		}
	}
	pp.cppError(l.Pos, "pasting %s and %s does not give a valid preprocessing token", l.Val, r.Val)
	panic("unreachable")
}

func stringify(arg []*Token, pos FilePos) *Token {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range arg {
		if i != 0 {
			b.WriteByte(' ')
		}
		if t.Kind == STRING || t.Kind == CHAR_CONSTANT {
			b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Val))
		} else {
			b.WriteString(t.Val)
		}
	}
	b.WriteByte('"')
	return &Token{Kind: STRING, Val: b.String(), Pos: pos, hs: emptyHS}
}

// readLine returns the remaining tokens of the current directive.
func (pp *Preprocessor) readLine() []*Token {
	var line []*Token
	for {
		t := pp.nextNoExpand()
		if t.Kind == END_DIRECTIVE {
			return line
		}
		if t.Kind == EOF {
			pp.ungetToken(t)
			return line
		}
		line = append(line, t)
	}
}

func (pp *Preprocessor) expectEndDirective(dirTok *Token) {
	t := pp.nextNoExpand()
	if t.Kind != END_DIRECTIVE {
		pp.cppError(t.Pos, "unexpected token after #%s", dirTok.Val)
	}
}

func (pp *Preprocessor) handleDirective(dirTok *Token) {
	if pp.skipping() {
		switch dirTok.Val {
		case "if", "ifdef", "ifndef":
			pp.readLine()
			// Nothing inside a skipped block is ever taken.
			pp.conds = append(pp.conds, &condContext{pos: dirTok.Pos, taken: true})
		case "elif":
			pp.handleElif(dirTok)
		case "else":
			pp.handleElse(dirTok)
		case "endif":
			pp.handleEndif(dirTok)
		default:
			pp.readLine()
		}
		return
	}
	switch dirTok.Val {
	case "if":
		pp.pushCond(dirTok.Pos, pp.evalCondition(dirTok))
	case "ifdef":
		name := pp.readMacroName(dirTok)
		pp.expectEndDirective(dirTok)
		pp.pushCond(dirTok.Pos, pp.isDefined(name.Val))
	case "ifndef":
		name := pp.readMacroName(dirTok)
		pp.expectEndDirective(dirTok)
		pp.pushCond(dirTok.Pos, !pp.isDefined(name.Val))
	case "elif":
		pp.handleElif(dirTok)
	case "else":
		pp.handleElse(dirTok)
	case "endif":
		pp.handleEndif(dirTok)
	case "undef":
		pp.handleUndefine(dirTok)
	case "define":
		pp.handleDefine(dirTok)
	case "include":
		pp.handleInclude(dirTok)
	case "error":
		pp.cppError(dirTok.Pos, "#error %s", joinTokens(pp.readLine()))
	case "warning":
		msg := joinTokens(pp.readLine())
		if pp.warn != nil {
			pp.warn(dirTok.Pos, msg)
		}
	case "pragma", "line", "ident":
		pp.readLine()
	default:
		pp.cppError(dirTok.Pos, "unknown directive #%s", dirTok.Val)
	}
}

func joinTokens(toks []*Token) string {
	vals := make([]string, len(toks))
	for i, t := range toks {
		vals[i] = t.Val
	}
	return strings.Join(vals, " ")
}

func (pp *Preprocessor) pushCond(pos FilePos, ok bool) {
	pp.conds = append(pp.conds, &condContext{pos: pos, active: ok, taken: ok})
}

func (pp *Preprocessor) topCond(dirTok *Token) *condContext {
	n := len(pp.conds)
	if n == 0 {
		pp.cppError(dirTok.Pos, "#%s without #if", dirTok.Val)
	}
	return pp.conds[n-1]
}

func (pp *Preprocessor) handleElif(dirTok *Token) {
	ctx := pp.topCond(dirTok)
	if ctx.sawElse {
		pp.cppError(dirTok.Pos, "#elif after #else")
	}
	if ctx.taken {
		pp.readLine()
		ctx.active = false
		return
	}
	ctx.active = pp.evalCondition(dirTok)
	ctx.taken = ctx.active
}

func (pp *Preprocessor) handleElse(dirTok *Token) {
	ctx := pp.topCond(dirTok)
	if ctx.sawElse {
		pp.cppError(dirTok.Pos, "#else after #else")
	}
	pp.expectEndDirective(dirTok)
	ctx.sawElse = true
	ctx.active = !ctx.taken
	ctx.taken = true
}

func (pp *Preprocessor) handleEndif(dirTok *Token) {
	pp.topCond(dirTok)
	pp.conds = pp.conds[:len(pp.conds)-1]
	pp.expectEndDirective(dirTok)
}

// evalCondition reads and evaluates the expression of #if or #elif.
func (pp *Preprocessor) evalCondition(dirTok *Token) bool {
	line := pp.readLine()
	// defined must be handled before macro expansion.
	var replaced []*Token
	for i := 0; i < len(line); i++ {
		t := line[i]
		if t.Kind != IDENT || t.Val != "defined" {
			replaced = append(replaced, t)
			continue
		}
		j := i + 1
		paren := j < len(line) && line[j].Kind == LPAREN
		if paren {
			j++
		}
		if j >= len(line) || !line[j].identLike() {
			pp.cppError(t.Pos, "malformed defined check")
		}
		name := line[j].Val
		j++
		if paren {
			if j >= len(line) || line[j].Kind != RPAREN {
				pp.cppError(t.Pos, "malformed defined check, missing )")
			}
			j++
		}
		val := "0"
		if pp.isDefined(name) {
			val = "1"
		}
		replaced = append(replaced, &Token{Kind: INT_CONSTANT, Val: val, Pos: t.Pos, hs: emptyHS})
		i = j - 1
	}
	if len(replaced) == 0 {
		pp.cppError(dirTok.Pos, "#%s with no expression", dirTok.Val)
	}
	// Identifiers left after expansion are zero.
	v, err := EvalConstExpr(pp.expandList(replaced), func(*Token) (int64, error) { return 0, nil })
	if err != nil {
		panic(&cppbreakout{ErrWithLoc(err, dirTok.Pos)})
	}
	return v != 0
}

func (pp *Preprocessor) readMacroName(dirTok *Token) *Token {
	ident := pp.nextNoExpand()
	if !ident.identLike() {
		pp.cppError(ident.Pos, "#%s expected an identifier", dirTok.Val)
	}
	return ident
}

func (pp *Preprocessor) handleInclude(dirTok *Token) {
	tok := pp.nextNoExpand()
	headerStr := tok.Val
	if tok.Kind != HEADER {
		// #include MACRO, the expansion must be a string.
		pp.ungetToken(tok)
		line := pp.expandList(pp.readLine())
		pp.ungetToken(&Token{Kind: END_DIRECTIVE})
		if len(line) != 1 || line[0].Kind != STRING {
			pp.cppError(tok.Pos, "expected a header after #include")
		}
		headerStr = line[0].Val
	}
	pp.expectEndDirective(dirTok)
	if pp.is == nil {
		pp.cppError(tok.Pos, "cannot include %s, no include searcher", headerStr)
	}
	if len(pp.lexers) >= maxIncludeDepth {
		pp.cppError(tok.Pos, "#include nested too deeply")
	}
	path := headerStr[1 : len(headerStr)-1]
	var (
		headerName string
		rdr        io.Reader
		err        error
	)
	if headerStr[0] == '<' {
		headerName, rdr, err = pp.is.IncludeAngled(tok.Pos.File, path)
	} else {
		headerName, rdr, err = pp.is.IncludeQuote(tok.Pos.File, path)
	}
	if err != nil {
		pp.cppError(tok.Pos, "error during include %s", err)
	}
	pp.lexers = append(pp.lexers, Lex(headerName, rdr))
}

func (pp *Preprocessor) handleUndefine(dirTok *Token) {
	ident := pp.readMacroName(dirTok)
	delete(pp.objMacros, ident.Val)
	delete(pp.funcMacros, ident.Val)
	pp.expectEndDirective(dirTok)
}

func (pp *Preprocessor) handleDefine(dirTok *Token) {
	ident := pp.readMacroName(dirTok)
	t := pp.nextNoExpand()
	if t.Kind == FUNCLIKE_DEFINE {
		pp.handleFuncLikeDefine(ident)
		return
	}
	pp.ungetToken(t)
	pp.defineObj(ident, pp.readLine())
}

func (pp *Preprocessor) isDefined(s string) bool {
	_, ok1 := pp.funcMacros[s]
	_, ok2 := pp.objMacros[s]
	return ok1 || ok2
}

func (pp *Preprocessor) handleFuncLikeDefine(ident *Token) {
	paren := pp.nextNoExpand()
	if paren.Kind != LPAREN {
		panic("Bug, func like define without opening LPAREN")
	}

	var params []*Token
	variadic := false
	if next := pp.nextNoExpand(); next.Kind != RPAREN {
		pp.ungetToken(next)
		for {
			t := pp.nextNoExpand()
			if t.Kind == ELLIPSIS {
				variadic = true
				params = append(params, &Token{Kind: IDENT, Val: "__VA_ARGS__", Pos: t.Pos})
				if end := pp.nextNoExpand(); end.Kind != RPAREN {
					pp.cppError(end.Pos, "expected ) after ... in macro definition")
				}
				break
			}
			if !t.identLike() {
				pp.cppError(t.Pos, "Expected macro argument")
			}
			params = append(params, t)
			t2 := pp.nextNoExpand()
			if t2.Kind == COMMA {
				continue
			} else if t2.Kind == RPAREN {
				break
			}
			pp.cppError(t2.Pos, "Error in macro definition expected , or )")
		}
	}

	macro, err := newFuncMacro(params, pp.readLine())
	if err != nil {
		panic(&cppbreakout{err})
	}
	macro.variadic = variadic
	if _, ok := pp.objMacros[ident.Val]; ok {
		pp.cppError(ident.Pos, "macro redefinition %s", ident.Val)
	}
	if old, ok := pp.funcMacros[ident.Val]; ok {
		if !sameParams(old, macro) || !sameTokens(old.tokens, macro.tokens) || old.variadic != macro.variadic {
			pp.cppError(ident.Pos, "macro redefinition %s", ident.Val)
		}
	}
	pp.funcMacros[ident.Val] = macro
}

func (pp *Preprocessor) defineObj(ident *Token, body []*Token) {
	if _, ok := pp.funcMacros[ident.Val]; ok {
		pp.cppError(ident.Pos, "macro redefinition %s", ident.Val)
	}
	if old, ok := pp.objMacros[ident.Val]; ok && !sameTokens(old.tokens, body) {
		pp.cppError(ident.Pos, "macro redefinition %s", ident.Val)
	}
	pp.objMacros[ident.Val] = &objMacro{tokens: body}
}

// Define predefines an object like macro as if by #define name value.
func (pp *Preprocessor) Define(name, value string) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = e.(*cppbreakout).err
		}
	}()
	pos := FilePos{File: "<command line>", Line: 1, Col: 1}
	if name == "" || !isValidIdentStart(rune(name[0])) || strings.IndexFunc(name, func(r rune) bool { return !isValidIdentTail(r) }) >= 0 {
		return errorfAt(pos, "invalid macro name %q", name)
	}
	lx := Lex(pos.File, strings.NewReader(value))
	lx.bol = false
	var body []*Token
	for {
		t, err := lx.Next()
		if err != nil {
			return err
		}
		if t.Kind == EOF {
			break
		}
		body = append(body, t)
	}
	pp.defineObj(&Token{Kind: IDENT, Val: name, Pos: pos, hs: emptyHS}, body)
	return nil
}
