package treeio

import (
	"io"
	"strings"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
	"github.com/andrewchambers/cdecl/parse"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Errors lists the roots of a tree file that could not be decoded, in input
// order. The other roots are still returned.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func (e Errors) Unwrap() []error {
	return e
}

// Decode reads the trees in r. The input is a YAML stream, so JSON is
// accepted too. A document may hold a single node or a sequence of them.
//
// Missing children decode to nil and qualifier, storage or aggregate names
// that are not known decode to a *decl.Unrecognized; both are left for the
// explainer to report. A root that is not a well formed tree is dropped and
// reported in an Errors along with the roots that did decode.
func Decode(r io.Reader) ([]decl.Node, error) {
	toplevels, err := DecodeTopLevels("", r)
	nodes := make([]decl.Node, len(toplevels))
	for i, tl := range toplevels {
		nodes[i] = tl.Root
	}
	return nodes, err
}

// DecodeTopLevels is Decode keeping the position of each root and of each
// aggregate member, with fname as the file name.
func DecodeTopLevels(fname string, r io.Reader) ([]*parse.TopLevel, error) {
	d := &decoder{fname: fname}
	dec := yaml.NewDecoder(r)
	var toplevels []*parse.TopLevel
	var errs Errors
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			// The stream cannot be resumed after a syntax error.
			errs = append(errs, errors.Wrapf(err, "decoding %s", d.name()))
			break
		}
		root := &doc
		if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
			root = root.Content[0]
		}
		var items []*yaml.Node
		switch root.Kind {
		case yaml.SequenceNode:
			items = root.Content
		case yaml.MappingNode:
			items = []*yaml.Node{root}
		default:
			errs = append(errs, d.errorf(root, "expected a node or a list of nodes"))
			continue
		}
		for _, item := range items {
			d.memberPos = nil
			n, err := d.node(item)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			tl := &parse.TopLevel{Pos: d.pos(item), Root: n}
			if _, ok := n.(*decl.Aggregate); ok {
				tl.MemberPos = d.memberPos
			}
			toplevels = append(toplevels, tl)
		}
	}
	if len(errs) != 0 {
		return toplevels, errs
	}
	return toplevels, nil
}

type decoder struct {
	fname string
	// memberPos collects the member positions of the root being decoded.
	memberPos []cpp.FilePos
}

func (d *decoder) name() string {
	if d.fname == "" {
		return "tree"
	}
	return d.fname
}

func (d *decoder) pos(n *yaml.Node) cpp.FilePos {
	return cpp.FilePos{File: d.name(), Line: n.Line, Col: n.Column}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return cpp.ErrWithLoc(errors.Errorf(format, args...), d.pos(n))
}

// fields indexes the values of a mapping node by key.
func (d *decoder) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping")
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func (d *decoder) child(m map[string]*yaml.Node, key string) (decl.Node, error) {
	n := m[key]
	if isNull(n) {
		return nil, nil
	}
	return d.node(n)
}

func (d *decoder) strings(m map[string]*yaml.Node, key string) ([]string, error) {
	n := m[key]
	if isNull(n) {
		return nil, nil
	}
	var out []string
	if err := n.Decode(&out); err != nil {
		return nil, d.errorf(n, "%s: %s", key, err)
	}
	return out, nil
}

func (d *decoder) scalar(m map[string]*yaml.Node, key string, out interface{}) error {
	n := m[key]
	if isNull(n) {
		return nil
	}
	if err := n.Decode(out); err != nil {
		return d.errorf(n, "%s: %s", key, err)
	}
	return nil
}

func (d *decoder) node(n *yaml.Node) (decl.Node, error) {
	if n.Kind == yaml.AliasNode {
		// Aliases could build cycles.
		return nil, d.errorf(n, "aliases are not supported")
	}
	m, err := d.fields(n)
	if err != nil {
		return nil, err
	}
	var kind string
	if err := d.scalar(m, "kind", &kind); err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, d.errorf(n, "node without a kind")
	}

	switch kind {
	case kindNamed:
		names, err := d.strings(m, "names")
		if err != nil {
			return nil, err
		}
		return &decl.NamedType{Names: names}, nil
	case kindQualified, kindPointer:
		quals, unknown, err := d.qualifiers(m)
		if err != nil {
			return nil, err
		}
		inner, err := d.child(m, "inner")
		if err != nil {
			return nil, err
		}
		if unknown != "" {
			return &decl.Unrecognized{Tag: "qualifier " + unknown}, nil
		}
		if kind == kindPointer {
			return &decl.PointerTo{Qualifiers: quals, Inner: inner}, nil
		}
		return &decl.Qualified{Qualifiers: quals, Inner: inner}, nil
	case kindArray:
		a := &decl.ArrayOf{}
		if !isNull(m["length"]) {
			a.Sized = true
			if err := d.scalar(m, "length", &a.Length); err != nil {
				return nil, err
			}
		}
		if a.Elem, err = d.child(m, "elem"); err != nil {
			return nil, err
		}
		return a, nil
	case kindFunction:
		f := &decl.FunctionReturning{}
		if err := d.scalar(m, "variadic", &f.Variadic); err != nil {
			return nil, err
		}
		if params := m["params"]; !isNull(params) {
			if params.Kind != yaml.SequenceNode {
				return nil, d.errorf(params, "params: expected a list")
			}
			for _, pn := range params.Content {
				var p decl.Node
				if !isNull(pn) {
					if p, err = d.node(pn); err != nil {
						return nil, err
					}
				}
				f.Params = append(f.Params, p)
			}
		}
		if f.Returns, err = d.child(m, "returns"); err != nil {
			return nil, err
		}
		return f, nil
	case kindField:
		return d.field(m)
	case kindAggregate:
		return d.aggregate(m)
	default:
		return &decl.Unrecognized{Tag: kind}, nil
	}
}

// qualifiers returns the first name that is not a qualifier as unknown.
func (d *decoder) qualifiers(m map[string]*yaml.Node) (decl.Qualifiers, string, error) {
	names, err := d.strings(m, "qualifiers")
	if err != nil {
		return 0, "", err
	}
	var quals decl.Qualifiers
	for _, name := range names {
		q, ok := decl.QualifierByName(name)
		if !ok {
			return 0, name, nil
		}
		quals |= q
	}
	return quals, "", nil
}

func (d *decoder) field(m map[string]*yaml.Node) (*decl.Field, error) {
	f := &decl.Field{}
	if err := d.scalar(m, "name", &f.Name); err != nil {
		return nil, err
	}
	names, err := d.strings(m, "storage")
	if err != nil {
		return nil, err
	}
	if f.Type, err = d.child(m, "type"); err != nil {
		return nil, err
	}
	for _, name := range names {
		s, ok := decl.StorageByName(name)
		if !ok {
			// The name is kept so the problem is reported against it.
			f.Type = &decl.Unrecognized{Tag: "storage class " + name}
			break
		}
		f.Storage |= s
	}
	return f, nil
}

func (d *decoder) aggregate(m map[string]*yaml.Node) (decl.Node, error) {
	agg := &decl.Aggregate{}
	var kind string
	if err := d.scalar(m, "aggregate", &kind); err != nil {
		return nil, err
	}
	switch kind {
	case "", "struct":
		agg.Kind = decl.Struct
	case "union":
		agg.Kind = decl.Union
	default:
		return &decl.Unrecognized{Tag: "aggregate " + kind}, nil
	}
	if err := d.scalar(m, "name", &agg.Name); err != nil {
		return nil, err
	}
	members := m["members"]
	if isNull(members) {
		return agg, nil
	}
	if members.Kind != yaml.SequenceNode {
		return nil, d.errorf(members, "members: expected a list")
	}
	var positions []cpp.FilePos
	for _, mn := range members.Content {
		positions = append(positions, d.pos(mn))
		if isNull(mn) {
			agg.Members = append(agg.Members, nil)
			continue
		}
		fm, err := d.fields(mn)
		if err != nil {
			return nil, err
		}
		var kind string
		if err := d.scalar(fm, "kind", &kind); err != nil {
			return nil, err
		}
		if kind != "" && kind != kindField {
			return nil, d.errorf(mn, "aggregate members must be fields, got %s", kind)
		}
		f, err := d.field(fm)
		if err != nil {
			return nil, err
		}
		agg.Members = append(agg.Members, f)
	}
	// Member types are decoded first, so the outermost aggregate sets these
	// last.
	d.memberPos = positions
	return agg, nil
}
