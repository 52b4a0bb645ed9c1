package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/emit"
	"github.com/andrewchambers/cdecl/treeio"
	"github.com/pkg/errors"
)

// reportError prints err to w, one error per problem or undecodable root.
// Each positioned error is followed by its source line and a caret under
// the column.
func reportError(w io.Writer, src *sources, err error) {
	var errs *emit.Errors
	if errors.As(err, &errs) {
		for _, p := range errs.Problems {
			fmt.Fprintf(w, "error: %s\n", p)
			src.quote(w, p.Pos)
		}
		return
	}
	var decodeErrs treeio.Errors
	if errors.As(err, &decodeErrs) {
		for _, err := range decodeErrs {
			reportError(w, src, err)
		}
		return
	}
	fmt.Fprintf(w, "error: %s\n", err)
	var loc cpp.ErrorLoc
	if errors.As(err, &loc) {
		src.quote(w, loc.Pos)
	}
}

func (s *sources) quote(w io.Writer, pos cpp.FilePos) {
	if pos.Line <= 0 {
		return
	}
	line, ok := s.line(pos.File, pos.Line)
	if !ok {
		return
	}
	// The lexer counts a tab as 4 columns.
	line = strings.ReplaceAll(line, "\t", "    ")
	fmt.Fprintln(w, line)
	if pos.Col > 0 {
		fmt.Fprintf(w, "%s^\n", strings.Repeat(" ", pos.Col-1))
	}
}
