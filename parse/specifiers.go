package parse

import (
	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
)

// declSpecs is the result of reading the declaration specifiers shared by
// every declarator of a declaration.
type declSpecs struct {
	pos     cpp.FilePos
	storage decl.Storage
	quals   decl.Qualifiers
	base    decl.Node
	// ref replaces base after the first declarator when base is a tagged
	// body, so the body is spelled out only once.
	ref decl.Node
	// defined is the struct or union body written in these specifiers.
	defined *decl.Aggregate
}

func (s *declSpecs) typeFor(first bool) decl.Node {
	base := s.base
	if !first && s.ref != nil {
		base = s.ref
	}
	if s.quals != 0 {
		return &decl.Qualified{Qualifiers: s.quals, Inner: base}
	}
	return base
}

// GNU spellings found in system headers.
var gnuQualifiers = map[string]decl.Qualifiers{
	"__const":      decl.Const,
	"__const__":    decl.Const,
	"__volatile":   decl.Volatile,
	"__volatile__": decl.Volatile,
}

var gnuIgnored = map[string]bool{
	"__extension__": true,
	"__inline":      true,
	"__inline__":    true,
	"__restrict":    true,
	"__restrict__":  true,
}

var gnuWithArgs = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
	"__declspec":    true,
}

// skipExtension consumes one GNU extension keyword and its parenthesized
// arguments, if the current token is one.
func (p *parser) skipExtension() bool {
	if p.curt.Kind != cpp.IDENT {
		return false
	}
	switch {
	case gnuIgnored[p.curt.Val]:
		p.next()
		return true
	case gnuWithArgs[p.curt.Val]:
		p.next()
		if p.curt.Kind == '(' {
			p.next()
			p.skipUntil(')')
			p.expect(')')
		}
		return true
	}
	return false
}

func (p *parser) skipExtensions() {
	for p.skipExtension() {
	}
}

// parseQualifiers reads const, volatile and restrict after a '*'.
func (p *parser) parseQualifiers() decl.Qualifiers {
	var quals decl.Qualifiers
	for {
		switch {
		case p.curt.Kind == cpp.CONST || p.curt.Kind == cpp.VOLATILE:
			q, _ := decl.QualifierByName(p.curt.Val)
			quals |= q
		case p.curt.Kind == cpp.RESTRICT:
		case p.curt.Kind == cpp.IDENT && gnuQualifiers[p.curt.Val] != 0:
			quals |= gnuQualifiers[p.curt.Val]
		case p.skipExtension():
			continue
		default:
			return quals
		}
		p.next()
	}
}

// isTypeName reports whether t begins a type. Names not declared with
// typedef are guessed to be types when followed by a declarator.
func (p *parser) isTypeName(t, next *cpp.Token) bool {
	if sym, ok := p.types.lookup(t.Val); ok {
		_, isType := sym.(typedefSym)
		return isType
	}
	switch next.Kind {
	case cpp.IDENT, '*', cpp.CONST, cpp.VOLATILE:
		return true
	}
	return false
}

func (p *parser) parseDeclarationSpecifiers() *declSpecs {
	s := &declSpecs{pos: p.curt.Pos}
	var names []string
	// One of void, _Bool, char, int, float or double has been seen.
	sawBase := false
	twoTypes := func() {
		p.errorPos("two or more data types in declaration specifiers", p.curt.Pos)
	}
loop:
	for {
		switch p.curt.Kind {
		case cpp.REGISTER, cpp.EXTERN, cpp.STATIC, cpp.TYPEDEF:
			// Typedef is a storage class like static.
			sc, _ := decl.StorageByName(p.curt.Val)
			s.storage |= sc
		case cpp.AUTO, cpp.INLINE, cpp.RESTRICT:
		case cpp.CONST, cpp.VOLATILE:
			q, _ := decl.QualifierByName(p.curt.Val)
			s.quals |= q
		case cpp.VOID, cpp.BOOL, cpp.CHAR, cpp.INT, cpp.FLOAT, cpp.DOUBLE:
			if s.base != nil || sawBase {
				twoTypes()
			}
			sawBase = true
			names = append(names, p.curt.Val)
		case cpp.SHORT, cpp.LONG, cpp.SIGNED, cpp.UNSIGNED:
			if s.base != nil {
				twoTypes()
			}
			names = append(names, p.curt.Val)
		case cpp.STRUCT, cpp.UNION:
			if s.base != nil || len(names) != 0 {
				twoTypes()
			}
			p.parseStructOrUnion(s)
			continue
		case cpp.ENUM:
			if s.base != nil || len(names) != 0 {
				twoTypes()
			}
			p.parseEnum(s)
			continue
		case cpp.IDENT:
			if q, ok := gnuQualifiers[p.curt.Val]; ok {
				s.quals |= q
				break
			}
			if p.curt.Val == "__signed__" {
				names = append(names, "signed")
				break
			}
			if p.skipExtension() {
				continue
			}
			if s.base != nil || len(names) != 0 || !p.isTypeName(p.curt, p.nextt) {
				break loop
			}
			s.base = &decl.NamedType{Names: []string{p.curt.Val}}
		default:
			break loop
		}
		p.next()
	}
	if s.base == nil {
		if len(names) == 0 {
			// Implicit int.
			names = []string{"int"}
		}
		s.base = &decl.NamedType{Names: names}
	}
	return s
}

func (p *parser) parseStructOrUnion(s *declSpecs) {
	kind := decl.Struct
	if p.curt.Kind == cpp.UNION {
		kind = decl.Union
	}
	p.next()
	p.skipExtensions()
	tag := ""
	if p.curt.Kind == cpp.IDENT {
		tag = p.curt.Val
		p.next()
	}
	if p.curt.Kind != '{' {
		if tag == "" {
			p.errorPos("expected tag or '{' after %s", p.curt.Pos, kind)
		}
		s.base = &decl.NamedType{Names: []string{kind.String(), tag}}
		return
	}
	p.next()
	agg := &decl.Aggregate{Kind: kind, Name: tag}
	for p.curt.Kind != '}' {
		if p.curt.Kind == ';' {
			p.next()
			continue
		}
		if p.curt.Kind == cpp.EOF {
			p.errorPos("unterminated %s body", p.curt.Pos, kind)
		}
		p.parseMemberDeclaration(agg)
	}
	p.expect('}')
	p.skipExtensions()
	s.base = agg
	s.defined = agg
	if tag != "" {
		s.ref = &decl.NamedType{Names: []string{kind.String(), tag}}
	}
}

func (p *parser) parseMemberDeclaration(agg *decl.Aggregate) {
	specs := p.parseDeclarationSpecifiers()
	if specs.storage != 0 {
		p.errorPos("storage class %s on a %s member", specs.pos, specs.storage, agg.Kind)
	}
	if p.curt.Kind == ';' {
		// Members of an anonymous struct or union belong to the enclosing one.
		if specs.defined != nil && specs.defined.Name == "" {
			agg.Members = append(agg.Members, specs.defined.Members...)
			p.memberPos[agg] = append(p.memberPos[agg], p.memberPos[specs.defined]...)
		}
		p.next()
		return
	}
	first := true
	for {
		if p.curt.Kind == ':' {
			// Unnamed bitfields only pad.
			p.next()
			p.skipUntil(',', ';')
		} else {
			d := p.parseDeclarator(false)
			var ty decl.Node = d.wrap(specs.typeFor(first))
			if p.curt.Kind == ':' {
				p.next()
				p.skipUntil(',', ';')
				ty = &decl.Unrecognized{Tag: "bitfield"}
			}
			agg.Members = append(agg.Members, &decl.Field{Name: d.name, Type: ty})
			p.memberPos[agg] = append(p.memberPos[agg], d.pos)
		}
		first = false
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	p.expect(';')
}

func (p *parser) parseEnum(s *declSpecs) {
	p.expect(cpp.ENUM)
	p.skipExtensions()
	names := []string{"enum"}
	if p.curt.Kind == cpp.IDENT {
		names = append(names, p.curt.Val)
		p.next()
	}
	s.base = &decl.NamedType{Names: names}
	if p.curt.Kind != '{' {
		if len(names) == 1 {
			p.errorPos("expected tag or '{' after enum", p.curt.Pos)
		}
		return
	}
	p.next()
	var val int64
	for p.curt.Kind != '}' {
		if p.curt.Kind != cpp.IDENT {
			p.errorPos("expected enumeration constant got %s", p.curt.Pos, p.curt.Kind)
		}
		name := p.curt
		p.next()
		if p.curt.Kind == '=' {
			p.next()
			v, err := p.constExpr(p.collectUntil(',', '}'))
			if err != nil {
				p.errorPos("value of %s is not an integer constant: %s", name.Pos, name.Val, err)
			}
			val = v
		}
		p.types.define(name.Val, enumSym{val: val})
		val++
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	p.expect('}')
}
