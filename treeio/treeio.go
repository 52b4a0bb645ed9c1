// Package treeio reads and writes declaration trees as YAML or JSON, so
// trees built by other front ends can be explained and parsed trees can be
// inspected.
//
// Every node is a mapping with a kind key:
//
//	kind: pointer
//	qualifiers: [const]
//	inner:
//	  kind: named
//	  names: [char]
//
// The kinds are named, qualified, pointer, array, function, field and
// aggregate. Any other kind decodes to a decl.Unrecognized with the kind as
// its tag.
package treeio

import (
	"strings"

	"github.com/andrewchambers/cdecl/decl"
	"github.com/pkg/errors"
)

type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case YAML, JSON:
		return f, nil
	}
	return "", errors.Errorf("unknown tree format %q, want yaml or json", s)
}

const (
	kindNamed     = "named"
	kindQualified = "qualified"
	kindPointer   = "pointer"
	kindArray     = "array"
	kindFunction  = "function"
	kindField     = "field"
	kindAggregate = "aggregate"
)

// wireNode is the serialized form of every node kind. Only the keys that
// belong to Kind are set.
type wireNode struct {
	Kind       string      `yaml:"kind" json:"kind"`
	Names      []string    `yaml:"names,omitempty" json:"names,omitempty"`
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Aggregate  string      `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
	Storage    []string    `yaml:"storage,omitempty" json:"storage,omitempty"`
	Qualifiers []string    `yaml:"qualifiers,omitempty" json:"qualifiers,omitempty"`
	Length     *uint64     `yaml:"length,omitempty" json:"length,omitempty"`
	Variadic   bool        `yaml:"variadic,omitempty" json:"variadic,omitempty"`
	Inner      *wireNode   `yaml:"inner,omitempty" json:"inner,omitempty"`
	Elem       *wireNode   `yaml:"elem,omitempty" json:"elem,omitempty"`
	Type       *wireNode   `yaml:"type,omitempty" json:"type,omitempty"`
	Params     []*wireNode `yaml:"params,omitempty" json:"params,omitempty"`
	Returns    *wireNode   `yaml:"returns,omitempty" json:"returns,omitempty"`
	Members    []*wireNode `yaml:"members,omitempty" json:"members,omitempty"`
}

func splitSet(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}

// toWire converts n, failing on trees nested deeper than decl.DefaultMaxDepth
// so a cycle cannot recurse forever.
func toWire(n decl.Node, depth int) (*wireNode, error) {
	if depth > decl.DefaultMaxDepth {
		return nil, errors.Errorf("tree nested deeper than %d levels", decl.DefaultMaxDepth)
	}
	if decl.IsMissing(n) {
		return nil, nil
	}
	child := func(c decl.Node) (*wireNode, error) {
		return toWire(c, depth+1)
	}
	var err error
	switch n := n.(type) {
	case *decl.NamedType:
		return &wireNode{Kind: kindNamed, Names: n.Names}, nil
	case *decl.Qualified:
		w := &wireNode{Kind: kindQualified, Qualifiers: splitSet(n.Qualifiers.String())}
		w.Inner, err = child(n.Inner)
		return w, err
	case *decl.PointerTo:
		w := &wireNode{Kind: kindPointer, Qualifiers: splitSet(n.Qualifiers.String())}
		w.Inner, err = child(n.Inner)
		return w, err
	case *decl.ArrayOf:
		w := &wireNode{Kind: kindArray}
		if n.Sized {
			length := n.Length
			w.Length = &length
		}
		w.Elem, err = child(n.Elem)
		return w, err
	case *decl.FunctionReturning:
		w := &wireNode{Kind: kindFunction, Variadic: n.Variadic}
		for _, p := range n.Params {
			wp, err := child(p)
			if err != nil {
				return nil, err
			}
			w.Params = append(w.Params, wp)
		}
		w.Returns, err = child(n.Returns)
		return w, err
	case *decl.Field:
		w := &wireNode{Kind: kindField, Name: n.Name, Storage: splitSet(n.Storage.String())}
		w.Type, err = child(n.Type)
		return w, err
	case *decl.Aggregate:
		w := &wireNode{Kind: kindAggregate, Aggregate: n.Kind.String(), Name: n.Name}
		for _, m := range n.Members {
			wm, err := child(m)
			if err != nil {
				return nil, err
			}
			w.Members = append(w.Members, wm)
		}
		return w, nil
	case *decl.Unrecognized:
		if n.Tag == "" {
			return &wireNode{Kind: "unrecognized"}, nil
		}
		return &wireNode{Kind: n.Tag}, nil
	default:
		return nil, errors.Errorf("cannot encode node of type %T", n)
	}
}
