package parse

import (
	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
)

// Declarator
// ----------
//
// unsigned int a, *b, **c, *const*d *volatile*e ;
//              ^  ^^  ^^^  ^^^^^^^^ ^^^^^^^^^^^
//
// A declarator reads inside out: in *a[3] the array suffix binds tighter
// than the pointer, so a is an array of pointers. Parsing produces a wrap
// function that builds the declared type around the base type of the
// declaration specifiers. Each layer applies its own derivation to the base
// before handing it to the layer inside it, which puts the innermost
// derivation outermost in the tree.

type declarator struct {
	// name is empty for abstract declarators.
	name string
	pos  cpp.FilePos
	wrap func(decl.Node) decl.Node
}

func identity(n decl.Node) decl.Node { return n }

// parseDeclarator reads a declarator. If abstract is set the name may be
// missing, as in parameter declarations.
func (p *parser) parseDeclarator(abstract bool) declarator {
	if p.curt.Kind == '*' {
		p.next()
		quals := p.parseQualifiers()
		inner := p.parseDeclarator(abstract)
		return declarator{
			name: inner.name,
			pos:  inner.pos,
			wrap: func(base decl.Node) decl.Node {
				return inner.wrap(&decl.PointerTo{Qualifiers: quals, Inner: base})
			},
		}
	}
	return p.parseDirectDeclarator(abstract)
}

// Direct Declarator
// -----------------
//
// A direct declarator is missing the pointer prefix.
//
// e.g.
// unsigned int *a[32], b[];
//               ^^^^^  ^^^
func (p *parser) parseDirectDeclarator(abstract bool) declarator {
	var d declarator
	switch {
	case p.curt.Kind == cpp.IDENT:
		d = declarator{name: p.curt.Val, pos: p.curt.Pos, wrap: identity}
		p.next()
	case p.curt.Kind == '(' && p.startsNestedDeclarator(abstract):
		p.next()
		d = p.parseDeclarator(abstract)
		p.expect(')')
	case abstract:
		d = declarator{pos: p.curt.Pos, wrap: identity}
	default:
		p.errorPos("expected ident, '(' or '*' but got %s", p.curt.Pos, p.curt.Kind)
	}
	suffix := p.parseDeclaratorTail()
	p.skipExtensions()
	inner := d.wrap
	d.wrap = func(base decl.Node) decl.Node {
		return inner(suffix(base))
	}
	return d
}

// startsNestedDeclarator decides what a '(' opens. In an abstract
// declarator it may also be a parameter list, as in int (*)(int).
func (p *parser) startsNestedDeclarator(abstract bool) bool {
	if !abstract {
		return true
	}
	switch p.nextt.Kind {
	case '*', '(', '[':
		return true
	}
	return false
}

// parseDeclaratorTail reads the array and function suffixes of a
// declarator. The first suffix is the outermost derivation.
func (p *parser) parseDeclaratorTail() func(decl.Node) decl.Node {
	var suffixes []func(decl.Node) decl.Node
	for {
		switch p.curt.Kind {
		case '[':
			suffixes = append(suffixes, p.parseArraySuffix())
		case '(':
			p.next()
			params, variadic := p.parseParameterList()
			p.expect(')')
			suffixes = append(suffixes, func(base decl.Node) decl.Node {
				return &decl.FunctionReturning{Params: params, Variadic: variadic, Returns: base}
			})
		default:
			return func(base decl.Node) decl.Node {
				for i := len(suffixes) - 1; i >= 0; i-- {
					base = suffixes[i](base)
				}
				return base
			}
		}
	}
}

func (p *parser) parseArraySuffix() func(decl.Node) decl.Node {
	p.expect('[')
	// static and qualifiers inside [] only matter for parameters.
	for p.curt.Kind == cpp.STATIC || p.curt.Kind == cpp.CONST ||
		p.curt.Kind == cpp.VOLATILE || p.curt.Kind == cpp.RESTRICT {
		p.next()
	}
	if p.curt.Kind == ']' {
		p.next()
		return func(base decl.Node) decl.Node {
			return decl.UnsizedArray(base)
		}
	}
	pos := p.curt.Pos
	toks := p.collectUntil(']')
	p.expect(']')
	n, err := p.constExpr(toks)
	if err != nil {
		return func(decl.Node) decl.Node {
			return &decl.Unrecognized{Tag: "variable length array"}
		}
	}
	if n < 0 {
		p.errorPos("size of array is negative", pos)
	}
	return func(base decl.Node) decl.Node {
		return decl.Array(uint64(n), base)
	}
}

// parseParameterList reads the parameters after '('. Parameter names get
// their own scope so they can hide typedef names.
func (p *parser) parseParameterList() ([]decl.Node, bool) {
	if p.curt.Kind == ')' {
		return nil, false
	}
	p.types = newScope(p.types)
	defer func() { p.types = p.types.parent }()

	var params []decl.Node
	for {
		if p.curt.Kind == cpp.ELLIPSIS {
			p.next()
			if len(params) == 0 {
				p.errorPos("ISO C requires a named argument before '...'", p.curt.Pos)
			}
			return params, true
		}
		specs := p.parseDeclarationSpecifiers()
		if specs.storage&^decl.Register != 0 {
			p.errorPos("invalid storage class %s for a parameter", specs.pos, specs.storage)
		}
		d := p.parseDeclarator(true)
		if d.name != "" {
			p.types.define(d.name, objectSym{})
		}
		params = append(params, &decl.Field{Name: d.name, Storage: specs.storage, Type: d.wrap(specs.typeFor(true))})
		if p.curt.Kind != ',' {
			return params, false
		}
		p.next()
	}
}
