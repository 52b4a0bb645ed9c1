package treeio

import (
	"io"

	"github.com/andrewchambers/cdecl/decl"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Encode writes nodes as a single YAML or JSON sequence.
func Encode(w io.Writer, nodes []decl.Node, format Format) error {
	wire := make([]*wireNode, 0, len(nodes))
	for i, n := range nodes {
		wn, err := toWire(n, 0)
		if err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
		wire = append(wire, wn)
	}
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(wire); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(enc.Close())
	case JSON:
		json := jsoniter.ConfigCompatibleWithStandardLibrary
		b, err := json.MarshalIndent(wire, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		b = append(b, '\n')
		_, err = w.Write(b)
		return errors.WithStack(err)
	default:
		return errors.Errorf("unknown tree format %q", format)
	}
}
