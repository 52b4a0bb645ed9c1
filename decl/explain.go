package decl

import (
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds the nesting the explainer will follow before
// reporting the tree as malformed.
const DefaultMaxDepth = 256

// An Explainer turns declaration trees into English. The zero value is
// ready to use. An Explainer holds no state beyond its settings and is safe
// for concurrent use.
type Explainer struct {
	// MaxDepth is the deepest nesting accepted, DefaultMaxDepth if <= 0.
	MaxDepth int
}

var std = &Explainer{}

// Explain describes the type n, e.g. "pointer to array[3] of int".
func Explain(n Node) (string, error) {
	return std.Explain(n)
}

// Explain is the package level Explain using ex's depth limit.
func (ex *Explainer) Explain(n Node) (string, error) {
	return ex.explain(n, 0)
}

func (ex *Explainer) maxDepth() int {
	if ex == nil || ex.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return ex.MaxDepth
}

// C declarators read inside out, so each rule puts its own phrase in front
// of the explanation of its child.
func (ex *Explainer) explain(n Node, depth int) (string, error) {
	if depth > ex.maxDepth() {
		return "", malformed("nesting exceeds %d levels", ex.maxDepth())
	}
	if isMissing(n) {
		return "", malformed("missing child node")
	}
	switch n := n.(type) {
	case *NamedType:
		if len(n.Names) == 0 {
			return "", malformed("named type without names")
		}
		return strings.Join(n.Names, " "), nil
	case *Qualified:
		inner, err := ex.explain(n.Inner, depth+1)
		if err != nil {
			return "", err
		}
		if n.Qualifiers == 0 {
			return inner, nil
		}
		return n.Qualifiers.String() + " " + inner, nil
	case *PointerTo:
		inner, err := ex.explain(n.Inner, depth+1)
		if err != nil {
			return "", err
		}
		if n.Qualifiers == 0 {
			return "pointer to " + inner, nil
		}
		return n.Qualifiers.String() + " pointer to " + inner, nil
	case *ArrayOf:
		elem, err := ex.explain(n.Elem, depth+1)
		if err != nil {
			return "", err
		}
		dim := ""
		if n.Sized {
			dim = strconv.FormatUint(n.Length, 10)
		}
		return "array[" + dim + "] of " + elem, nil
	case *FunctionReturning:
		params := make([]string, 0, len(n.Params)+1)
		for _, p := range n.Params {
			s, err := ex.explain(p, depth+1)
			if err != nil {
				return "", err
			}
			params = append(params, s)
		}
		if n.Variadic {
			params = append(params, "...")
		}
		ret, err := ex.explain(n.Returns, depth+1)
		if err != nil {
			return "", err
		}
		return "function(" + strings.Join(params, ", ") + ") returning " + ret, nil
	case *Field:
		// Only reached for parameters, which are explained by type alone.
		return ex.explain(n.Type, depth+1)
	case *Aggregate:
		return ex.explainAggregate(n, depth)
	default:
		return "", unsupported(n)
	}
}

// explainAggregate handles an inline struct or union definition used as a
// type, e.g. the type of x in "struct { int a; } x;". Unlike the walker
// this fails as a whole if any member does.
func (ex *Explainer) explainAggregate(agg *Aggregate, depth int) (string, error) {
	head := agg.Kind.String()
	if agg.Name != "" {
		head += " " + agg.Name
	}
	if len(agg.Members) == 0 {
		return head, nil
	}
	members := make([]string, 0, len(agg.Members))
	for _, m := range agg.Members {
		s, err := ex.describe(m, depth+1)
		if err != nil {
			return "", err
		}
		members = append(members, s)
	}
	return head + " containing {" + strings.Join(members, ", ") + "}", nil
}

// IsMissing reports whether n is nil, either as an interface or as a typed
// nil pointer.
func IsMissing(n Node) bool {
	return isMissing(n)
}

func isMissing(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *NamedType:
		return n == nil
	case *Qualified:
		return n == nil
	case *PointerTo:
		return n == nil
	case *ArrayOf:
		return n == nil
	case *FunctionReturning:
		return n == nil
	case *Field:
		return n == nil
	case *Aggregate:
		return n == nil
	case *Unrecognized:
		return n == nil
	}
	return false
}
