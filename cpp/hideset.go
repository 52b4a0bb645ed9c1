package cpp

// The hideset of a token is the set of macro names whose expansion
// produced the token. A token is never expanded by a macro in its own
// hideset, which is what stops recursive macros from expanding forever.
//
// Hidesets are immutable singly linked lists, they are small in practice.

type hideset struct {
	r   *hideset
	val string
}

var emptyHS *hideset = nil

func (hs *hideset) contains(s string) bool {
	for ; hs != emptyHS; hs = hs.r {
		if hs.val == s {
			return true
		}
	}
	return false
}

func (hs *hideset) add(s string) *hideset {
	if hs.contains(s) {
		return hs
	}
	return &hideset{r: hs, val: s}
}

func (hs *hideset) union(b *hideset) *hideset {
	for ; b != emptyHS; b = b.r {
		hs = hs.add(b.val)
	}
	return hs
}

func (hs *hideset) intersection(b *hideset) *hideset {
	ret := emptyHS
	for ; hs != emptyHS; hs = hs.r {
		if b.contains(hs.val) {
			ret = ret.add(hs.val)
		}
	}
	return ret
}
