package parse

import (
	"os"
	"runtime/debug"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
	"github.com/pkg/errors"
)

// TopLevel is one explainable declaration found in the source. Root is a
// *decl.Field for each declarator or a *decl.Aggregate for a struct or union
// definition that declares nothing else.
type TopLevel struct {
	Pos  cpp.FilePos
	Root decl.Node
	// MemberPos holds the position of each member of an aggregate Root,
	// in the order of its Members. It may be short or nil.
	MemberPos []cpp.FilePos
}

type Option func(*parser)

// WithTypedefs predeclares type names, typically ones that come from
// headers that are not available.
func WithTypedefs(names ...string) Option {
	return func(p *parser) {
		for _, name := range names {
			p.types.define(name, typedefSym{})
		}
	}
}

type parser struct {
	types       *scope
	pp          *cpp.Preprocessor
	curt, nextt *cpp.Token
	toplevels   []*TopLevel
	memberPos   map[*decl.Aggregate][]cpp.FilePos
}

type parseErrorBreakOut struct {
	err error
}

// Parse reads declarations from pp until EOF. On a syntax error the
// declarations parsed so far are returned along with the error.
func Parse(pp *cpp.Preprocessor, opts ...Option) (toplevels []*TopLevel, errRet error) {
	p := &parser{}
	p.pp = pp
	p.types = newScope(nil)
	p.memberPos = make(map[*decl.Aggregate][]cpp.FilePos)
	for _, o := range opts {
		o(p)
	}

	defer func() {
		if e := recover(); e != nil {
			peb := e.(parseErrorBreakOut) // Will re-panic if not a breakout.
			toplevels = p.toplevels
			errRet = peb.err
		}
	}()
	p.next()
	p.next()
	p.parseTranslationUnit()
	return p.toplevels, nil
}

func (p *parser) errorPos(m string, pos cpp.FilePos, vals ...interface{}) {
	err := errors.Errorf("syntax error: "+m, vals...)
	if os.Getenv("CDECLDEBUG") == "true" {
		err = errors.Errorf("%s\n%s", err, debug.Stack())
	}
	panic(parseErrorBreakOut{cpp.ErrWithLoc(err, pos)})
}

func (p *parser) expect(k cpp.TokenKind) {
	if p.curt.Kind != k {
		p.errorPos("expected %s got %s", p.curt.Pos, k, p.curt.Kind)
	}
	p.next()
}

func (p *parser) next() {
	p.curt = p.nextt
	t, err := p.pp.Next()
	if err != nil {
		// Preprocessor errors already carry their location.
		panic(parseErrorBreakOut{err})
	}
	p.nextt = t
}

func (p *parser) emit(pos cpp.FilePos, root decl.Node) {
	p.toplevels = append(p.toplevels, &TopLevel{Pos: pos, Root: root})
}

func (p *parser) parseTranslationUnit() {
	for p.curt.Kind != cpp.EOF {
		if p.curt.Kind == ';' {
			p.next()
			continue
		}
		p.parseDeclaration()
	}
}

func (p *parser) parseDeclaration() {
	specs := p.parseDeclarationSpecifiers()
	if p.curt.Kind == ';' {
		// struct foo { ... }; declares only the tag.
		if specs.defined != nil {
			p.emit(specs.pos, specs.defined)
			p.toplevels[len(p.toplevels)-1].MemberPos = p.memberPos[specs.defined]
		}
		p.next()
		return
	}

	firstDecl := true
	for {
		d := p.parseDeclarator(false)
		ty := d.wrap(specs.typeFor(firstDecl))
		if specs.storage&decl.Typedef != 0 {
			p.types.define(d.name, typedefSym{})
		}
		p.emit(d.pos, &decl.Field{Name: d.name, Storage: specs.storage, Type: ty})

		if firstDecl && p.curt.Kind == '{' {
			if _, ok := ty.(*decl.FunctionReturning); !ok {
				p.errorPos("unexpected '{' after declaration of %s", p.curt.Pos, d.name)
			}
			p.skipBlock()
			return
		}
		if p.curt.Kind == '=' {
			p.next()
			p.skipUntil(',', ';')
		}
		if p.curt.Kind != ',' {
			break
		}
		p.next()
		firstDecl = false
	}
	if p.curt.Kind != ';' {
		p.errorPos("expected '=', ',' or ';'", p.curt.Pos)
	}
	p.expect(';')
}

// skipBlock skips a brace enclosed block such as a function body.
func (p *parser) skipBlock() {
	start := p.curt.Pos
	p.expect('{')
	depth := 1
	for depth != 0 {
		switch p.curt.Kind {
		case '{':
			depth++
		case '}':
			depth--
		case cpp.EOF:
			p.errorPos("unterminated block", start)
		}
		p.next()
	}
}

// collectUntil returns the tokens before the first of stops that is not
// nested in brackets. The stop token is not consumed.
func (p *parser) collectUntil(stops ...cpp.TokenKind) []*cpp.Token {
	var toks []*cpp.Token
	depth := 0
	for {
		k := p.curt.Kind
		if depth == 0 {
			for _, s := range stops {
				if k == s {
					return toks
				}
			}
		}
		switch k {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				p.errorPos("unbalanced %s", p.curt.Pos, k)
			}
			depth--
		case cpp.EOF:
			p.errorPos("unexpected end of input", p.curt.Pos)
		}
		toks = append(toks, p.curt)
		p.next()
	}
}

func (p *parser) skipUntil(stops ...cpp.TokenKind) {
	p.collectUntil(stops...)
}

// constExpr evaluates an integer constant expression, enum constants are
// the only identifiers allowed.
func (p *parser) constExpr(toks []*cpp.Token) (int64, error) {
	return cpp.EvalConstExpr(toks, func(t *cpp.Token) (int64, error) {
		if sym, ok := p.types.lookup(t.Val); ok {
			if c, ok := sym.(enumSym); ok {
				return c.val, nil
			}
		}
		return 0, errors.Errorf("%s is not an integer constant", t.Val)
	})
}
