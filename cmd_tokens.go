package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdTokens dumps tokens as kind:val:line:col, for debugging the front end.
type cmdTokens struct {
	preprocess bool
}

func (*cmdTokens) help() *commandHelp {
	return &commandHelp{
		usage:   "tokens [flags] FILE",
		summary: "Print the tokens of a C file",
		args:    cobra.ExactArgs(1),
	}
}

func (cmd *cmdTokens) flags(flags *pflag.FlagSet) {
	flags.BoolVarP(&cmd.preprocess, "preprocess", "P", false, "print tokens after preprocessing")
}

type tokenSource interface {
	Next() (*cpp.Token, error)
}

func (cmd *cmdTokens) run(ctx context.Context, a *app, argv []string) error {
	name, src, err := a.src.read(argv[0])
	if err != nil {
		return err
	}
	var toks tokenSource = cpp.Lex(name, bytes.NewReader(src))
	if cmd.preprocess {
		pp, err := a.cfg.preprocessor(name, src, a.log.WithField("input", name))
		if err != nil {
			return err
		}
		toks = pp
	}

	var tokErr error
	err = a.writeOutput(func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for {
			tok, err := toks.Next()
			if err != nil {
				tokErr = err
				break
			}
			fmt.Fprintf(bw, "%s:%s:%d:%d\n", tok.Kind, tok.Val, tok.Pos.Line, tok.Pos.Col)
			if tok.Kind == cpp.EOF {
				break
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}
	if tokErr != nil {
		reportError(a.stderr, a.src, tokErr)
		return errReported
	}
	return nil
}
