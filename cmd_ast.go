package main

import (
	"context"
	"io"

	"github.com/andrewchambers/cdecl/decl"
	"github.com/andrewchambers/cdecl/treeio"
	"github.com/spf13/pflag"
)

type cmdAST struct {
	format string
}

func (*cmdAST) help() *commandHelp {
	return &commandHelp{
		usage:   "ast [flags] [FILE...]",
		summary: "Print the declaration trees parsed from C files as a tree file",
	}
}

func (cmd *cmdAST) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.format, "format", "f", string(treeio.YAML), "yaml or json")
}

func (cmd *cmdAST) run(ctx context.Context, a *app, argv []string) error {
	format, err := treeio.ParseFormat(cmd.format)
	if err != nil {
		return err
	}
	inputs, err := a.readInputs(argv)
	if err != nil {
		return err
	}

	var roots []decl.Node
	failed := false
	for _, in := range inputs {
		toplevels, err := a.cfg.toplevels(in.name, in.src, false, a.log.WithField("input", in.name))
		if err != nil {
			reportError(a.stderr, a.src, err)
			failed = true
		}
		for _, tl := range toplevels {
			roots = append(roots, tl.Root)
		}
	}
	err = a.writeOutput(func(w io.Writer) error {
		return treeio.Encode(w, roots, format)
	})
	if err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}
