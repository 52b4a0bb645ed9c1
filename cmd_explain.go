package main

import (
	"bytes"
	"context"
	"io"

	"github.com/andrewchambers/cdecl/decl"
	"github.com/andrewchambers/cdecl/emit"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type cmdExplain struct {
	tree bool
}

func (*cmdExplain) help() *commandHelp {
	return &commandHelp{
		usage:   "explain [flags] [FILE...]",
		summary: "Explain every declaration in C files, or stdin",
	}
}

func (cmd *cmdExplain) flags(flags *pflag.FlagSet) {
	flags.BoolVar(&cmd.tree, "tree", false, "inputs are yaml or json declaration trees instead of C")
}

type input struct {
	name string
	src  []byte
}

// readInputs reads every path up front, "-" meaning stdin. No paths means
// stdin alone.
func (a *app) readInputs(paths []string) ([]input, error) {
	if len(paths) == 0 {
		paths = []string{stdinArg}
	}
	inputs := make([]input, 0, len(paths))
	for _, path := range paths {
		name, src, err := a.src.read(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{name: name, src: src})
	}
	return inputs, nil
}

type explainResult struct {
	out  bytes.Buffer
	errs []error
}

func (cmd *cmdExplain) run(ctx context.Context, a *app, argv []string) error {
	inputs, err := a.readInputs(argv)
	if err != nil {
		return err
	}

	ex := &decl.Explainer{MaxDepth: a.cfg.maxDepth}
	results := make([]explainResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := &results[i]
			log := a.log.WithField("input", in.name)
			toplevels, parseErr := a.cfg.toplevels(in.name, in.src, cmd.tree, log)
			if err := emit.Emit(toplevels, &r.out, emit.WithExplainer(ex), emit.WithLogger(log)); err != nil {
				r.errs = append(r.errs, err)
			}
			if parseErr != nil {
				r.errs = append(r.errs, parseErr)
			}
			log.Debugf("%d declarations", len(toplevels))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := false
	err = a.writeOutput(func(w io.Writer) error {
		for i := range results {
			if _, err := w.Write(results[i].out.Bytes()); err != nil {
				return err
			}
			for _, err := range results[i].errs {
				reportError(a.stderr, a.src, err)
				failed = true
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}
