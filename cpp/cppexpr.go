package cpp

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
   Constant expression evaluation, used by #if and by array dimensions.

   The caller resolves identifiers. For #if, "defined name" has already
   been replaced and macros expanded, so every remaining identifier is 0.

   An expression may contain:

   Integer constants, with or without u/l suffixes.

   Character constants, which are interpreted as they would be in normal code.

   Arithmetic operators for most of C, including ?: and the comma operator.
*/

type exprCtx struct {
	toks  []*Token
	idx   int
	ident func(*Token) (int64, error)
}

func (ctx *exprCtx) nextToken() *Token {
	if ctx.idx >= len(ctx.toks) {
		return nil
	}
	tok := ctx.toks[ctx.idx]
	ctx.idx++
	return tok
}

func (ctx *exprCtx) peek() *Token {
	if ctx.idx >= len(ctx.toks) {
		return nil
	}
	return ctx.toks[ctx.idx]
}

// EvalConstExpr evaluates toks as an integer constant expression. ident is
// called for identifiers and keywords.
func EvalConstExpr(toks []*Token, ident func(*Token) (int64, error)) (int64, error) {
	ctx := &exprCtx{toks: toks, ident: ident}
	ret, err := parseExpr(ctx)
	if err != nil {
		return 0, err
	}
	if t := ctx.nextToken(); t != nil {
		return 0, errors.Errorf("stray token %s", t.Val)
	}
	return ret, nil
}

func parseAtom(ctx *exprCtx) (int64, error) {
	toCheck := ctx.nextToken()
	if toCheck == nil {
		return 0, errors.New("expected integer, char, or identifier but got nothing")
	}
	switch toCheck.Kind {
	case NOT:
		v, err := parseAtom(ctx)
		if err != nil {
			return 0, err
		}
		return boolInt(v == 0), nil
	case BNOT:
		v, err := parseAtom(ctx)
		if err != nil {
			return 0, err
		}
		return ^v, nil
	case SUB:
		v, err := parseAtom(ctx)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case ADD:
		return parseAtom(ctx)
	case LPAREN:
		v, err := parseExpr(ctx)
		if err != nil {
			return 0, err
		}
		rparen := ctx.nextToken()
		if rparen == nil || rparen.Kind != RPAREN {
			return 0, errors.New("unclosed parenthesis")
		}
		return v, nil
	case INT_CONSTANT:
		return parseIntConstant(toCheck.Val)
	case CHAR_CONSTANT:
		return charConstantValue(toCheck.Val)
	case FLOAT_CONSTANT:
		return 0, errors.Errorf("floating constant %s in integer expression", toCheck.Val)
	}
	if toCheck.identLike() {
		return ctx.ident(toCheck)
	}
	return 0, errors.Errorf("expected integer, char, or identifier but got %s", toCheck.Val)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func parseIntConstant(s string) (int64, error) {
	digits := strings.TrimRight(s, "uUlL")
	v, err := strconv.ParseInt(digits, 0, 64)
	if err == nil {
		return v, nil
	}
	u, uerr := strconv.ParseUint(digits, 0, 64)
	if uerr != nil {
		return 0, errors.Errorf("invalid integer constant %s", s)
	}
	return int64(u), nil
}

// charConstantValue evaluates a quoted character constant such as '\n'.
func charConstantValue(s string) (int64, error) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, errors.Errorf("invalid character constant %s", s)
	}
	body := []rune(s[1 : len(s)-1])
	if body[0] != '\\' {
		if len(body) != 1 {
			return 0, errors.Errorf("multi-character constant %s", s)
		}
		return int64(body[0]), nil
	}
	if len(body) < 2 {
		return 0, errors.Errorf("invalid character constant %s", s)
	}
	esc := body[1]
	rest := body[2:]
	var v int64
	switch esc {
	case 'n':
		v = '\n'
	case 't':
		v = '\t'
	case 'r':
		v = '\r'
	case 'a':
		v = '\a'
	case 'b':
		v = '\b'
	case 'f':
		v = '\f'
	case 'v':
		v = '\v'
	case '\\', '\'', '"', '?':
		v = int64(esc)
	case 'x':
		if len(rest) == 0 {
			return 0, errors.Errorf("\\x used with no following hex digits in %s", s)
		}
		for _, c := range rest {
			if !isHexDigit(c) {
				return 0, errors.Errorf("invalid hex escape in %s", s)
			}
		}
		u, err := strconv.ParseUint(string(rest), 16, 64)
		if err != nil {
			return 0, errors.Errorf("hex escape out of range in %s", s)
		}
		return int64(u), nil
	default:
		if esc < '0' || esc > '7' {
			return 0, errors.Errorf("unknown escape sequence in %s", s)
		}
		digits := string(body[1:])
		if len(digits) > 3 || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '7' }) >= 0 {
			return 0, errors.Errorf("invalid octal escape in %s", s)
		}
		u, _ := strconv.ParseUint(digits, 8, 64)
		return int64(u), nil
	}
	if len(rest) != 0 {
		return 0, errors.Errorf("multi-character constant %s", s)
	}
	return v, nil
}

func evalBinop(k TokenKind, l int64, r int64) (int64, error) {
	switch k {
	case LOR:
		return boolInt(l != 0 || r != 0), nil
	case LAND:
		return boolInt(l != 0 && r != 0), nil
	case OR:
		return l | r, nil
	case XOR:
		return l ^ r, nil
	case AND:
		return l & r, nil
	case ADD:
		return l + r, nil
	case SUB:
		return l - r, nil
	case MUL:
		return l * r, nil
	case SHR, SHL:
		if r < 0 {
			return 0, errors.Errorf("negative shift count %d", r)
		}
		if k == SHR {
			return l >> uint64(r), nil
		}
		return l << uint64(r), nil
	case QUO:
		if r == 0 {
			return 0, errors.New("divide by zero in expression")
		}
		return l / r, nil
	case REM:
		if r == 0 {
			return 0, errors.New("divide by zero in expression")
		}
		return l % r, nil
	case EQL:
		return boolInt(l == r), nil
	case LSS:
		return boolInt(l < r), nil
	case GTR:
		return boolInt(l > r), nil
	case LEQ:
		return boolInt(l <= r), nil
	case GEQ:
		return boolInt(l >= r), nil
	case NEQ:
		return boolInt(l != r), nil
	default:
		return 0, errors.Errorf("internal error %s", k)
	}
}

func parseTernary(ctx *exprCtx) (int64, error) {
	cond, err := parseBinop(ctx, 0)
	if err != nil {
		return 0, err
	}
	t := ctx.peek()
	if t == nil || t.Kind != QUESTION {
		return cond, nil
	}
	ctx.nextToken()
	a, err := parseExpr(ctx)
	if err != nil {
		return 0, err
	}
	colon := ctx.nextToken()
	if colon == nil || colon.Kind != COLON {
		return 0, errors.New("ternary without :")
	}
	b, err := parseTernary(ctx)
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func parseExpr(ctx *exprCtx) (int64, error) {
	v, err := parseTernary(ctx)
	if err != nil {
		return 0, err
	}
	for {
		t := ctx.peek()
		if t == nil || t.Kind != COMMA {
			break
		}
		ctx.nextToken()
		v, err = parseTernary(ctx)
		if err != nil {
			return 0, err
		}
	}
	return v, nil
}

func getPrec(k TokenKind) int {
	switch k {
	case MUL, REM, QUO:
		return 10
	case ADD, SUB:
		return 9
	case SHR, SHL:
		return 8
	case LSS, GTR, GEQ, LEQ:
		return 7
	case EQL, NEQ:
		return 6
	case AND:
		return 5
	case XOR:
		return 4
	case OR:
		return 3
	case LAND:
		return 2
	case LOR:
		return 1
	}
	return -1
}

// Precedence climbing, simplified because all the binary operators are
// left associative.
func parseBinop(ctx *exprCtx, prec int) (int64, error) {
	l, err := parseAtom(ctx)
	if err != nil {
		return 0, err
	}
	for {
		t := ctx.peek()
		if t == nil {
			break
		}
		p := getPrec(t.Kind)
		if p == -1 || p < prec {
			break
		}
		ctx.nextToken()
		r, err := parseBinop(ctx, p+1)
		if err != nil {
			return 0, err
		}
		l, err = evalBinop(t.Kind, l, r)
		if err != nil {
			return 0, err
		}
	}
	return l, nil
}
