package parse

import "fmt"

// scope tracks the ordinary identifiers that change how later tokens
// parse: typedef names and enum constants. Other declarations are only
// recorded when they shadow one of those.
type scope struct {
	parent *scope
	kv     map[string]symbol
}

func (s *scope) lookup(k string) (symbol, bool) {
	sym, ok := s.kv[k]
	if ok {
		return sym, true
	}
	if s.parent != nil {
		return s.parent.lookup(k)
	}
	return nil, false
}

// define binds k in s. Redeclaration replaces the old binding, C allows
// repeating a typedef and the parser does not check type compatibility.
func (s *scope) define(k string, v symbol) {
	s.kv[k] = v
}

func (s *scope) isTypedef(k string) bool {
	sym, ok := s.lookup(k)
	if !ok {
		return false
	}
	_, ok = sym.(typedefSym)
	return ok
}

func (s *scope) String() string {
	str := ""
	if s.parent != nil {
		str += s.parent.String() + "\n"
	}
	str += fmt.Sprintf("%v", s.kv)
	return str
}

func newScope(parent *scope) *scope {
	ret := &scope{}
	ret.parent = parent
	ret.kv = make(map[string]symbol)
	return ret
}

type symbol interface{}

type typedefSym struct{}

type enumSym struct {
	val int64
}

// objectSym is a parameter or variable name that hides an outer typedef.
type objectSym struct{}
