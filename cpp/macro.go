package cpp

// Data structures representing macros inside the preprocessor.
// These are immutable once defined.

type objMacro struct {
	tokens []*Token
}

type funcMacro struct {
	// Map of parameter name to 0 based position.
	params  map[string]int
	nparams int
	tokens  []*Token

	// The last parameter is __VA_ARGS__.
	variadic bool
}

func newFuncMacro(params []*Token, tokens []*Token) (*funcMacro, error) {
	m := &funcMacro{
		params:  make(map[string]int),
		nparams: len(params),
		tokens:  tokens,
	}
	for idx, p := range params {
		if _, dup := m.params[p.Val]; dup {
			return nil, errorfAt(p.Pos, "duplicate macro parameter %s", p.Val)
		}
		m.params[p.Val] = idx
	}
	return m, nil
}

func (m *funcMacro) paramIndex(t *Token) (int, bool) {
	if !t.identLike() {
		return 0, false
	}
	idx, ok := m.params[t.Val]
	return idx, ok
}

// sameTokens is the C rule for benign redefinition, the bodies must match
// token for token.
func sameTokens(a, b []*Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Val != b[i].Val {
			return false
		}
	}
	return true
}

func sameParams(a *funcMacro, b *funcMacro) bool {
	if a.nparams != b.nparams {
		return false
	}
	for name, idx := range a.params {
		if bidx, ok := b.params[name]; !ok || bidx != idx {
			return false
		}
	}
	return true
}
