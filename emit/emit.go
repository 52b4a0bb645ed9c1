// Package emit writes the English explanation of parsed declarations, one
// line per declared name.
package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
	"github.com/andrewchambers/cdecl/parse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Problem is a declaration that could not be explained.
type Problem struct {
	Pos cpp.FilePos
	// Subject is the declared name, or <anonymous>.
	Subject string
	Err     error
}

func (p *Problem) Error() string {
	err := p.Err
	var fe *decl.FieldError
	if errors.As(err, &fe) {
		err = fe.Err
	}
	return fmt.Sprintf("%s: %s: %s", p.Pos, p.Subject, err)
}

func (p *Problem) Unwrap() error {
	return p.Err
}

// Errors lists every Problem met by one call to Emit, in input order.
type Errors struct {
	Problems []*Problem
}

func (e *Errors) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return strings.Join(msgs, "\n")
}

func (e *Errors) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = p
	}
	return errs
}

type Option func(*emitter)

// WithExplainer sets the explainer, by default one with decl.DefaultMaxDepth.
func WithExplainer(ex *decl.Explainer) Option {
	return func(e *emitter) {
		e.ex = ex
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *emitter) {
		e.log = l
	}
}

type emitter struct {
	o        io.Writer
	ex       *decl.Explainer
	log      logrus.FieldLogger
	problems []*Problem
	lines    int
}

// Emit explains each of toplevels to o. A declaration that cannot be
// explained is skipped and the rest are still written; the skipped ones are
// returned as an *Errors. Write failures are returned as they happen.
func Emit(toplevels []*parse.TopLevel, o io.Writer, opts ...Option) error {
	e := &emitter{
		o:   o,
		ex:  &decl.Explainer{},
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, tl := range toplevels {
		if err := e.emitTopLevel(tl); err != nil {
			return err
		}
	}
	e.log.Debugf("explained %d declarations, %d failed", e.lines, len(e.problems))
	if len(e.problems) != 0 {
		return &Errors{Problems: e.problems}
	}
	return nil
}

func (e *emitter) emit(s string) error {
	e.lines++
	_, err := fmt.Fprintln(e.o, s)
	return errors.WithStack(err)
}

func (e *emitter) problem(pos cpp.FilePos, err error) {
	subject := "<anonymous>"
	var fe *decl.FieldError
	if errors.As(err, &fe) {
		subject = fe.Subject()
	}
	p := &Problem{Pos: pos, Subject: subject, Err: err}
	e.log.WithField("pos", pos.String()).Debugf("skipping %s: %s", subject, err)
	e.problems = append(e.problems, p)
}

func (e *emitter) emitTopLevel(tl *parse.TopLevel) error {
	switch root := tl.Root.(type) {
	case *decl.Field:
		s, err := e.ex.Describe(root)
		if err != nil {
			e.problem(tl.Pos, err)
			return nil
		}
		return e.emit(s)
	case *decl.Aggregate:
		i := 0
		for s, err := range e.ex.Members(root) {
			pos := tl.Pos
			if i < len(tl.MemberPos) {
				pos = tl.MemberPos[i]
			}
			i++
			if err != nil {
				e.problem(pos, err)
				continue
			}
			if err := e.emit(s); err != nil {
				return err
			}
		}
		return nil
	default:
		// Only fields and aggregates declare names.
		kind := fmt.Sprintf("%T", root)
		if u, ok := root.(*decl.Unrecognized); ok && u.Tag != "" {
			kind = u.Tag
		}
		e.problem(tl.Pos, &decl.UnsupportedNodeKindError{Kind: kind})
		return nil
	}
}
