package decl

import (
	"fmt"

	"github.com/pkg/errors"
)

// UnsupportedNodeKindError is returned when a tree contains something
// the explainer has no rule for.
type UnsupportedNodeKindError struct {
	Kind string
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("unsupported node kind %s", e.Kind)
}

// EmptyNameError is returned when a field outside a parameter list has
// no name.
type EmptyNameError struct{}

func (e *EmptyNameError) Error() string {
	return "declaration has an empty name"
}

// MalformedTreeError reports a structurally broken tree, a missing child
// or nesting deep enough that it is most likely a cycle.
type MalformedTreeError struct {
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return "malformed declaration tree: " + e.Reason
}

// FieldError attaches the declaration being described to an error.
type FieldError struct {
	Name string
	Err  error
}

const anonymous = "<anonymous>"

// Subject returns the declared name, or <anonymous>.
func (e *FieldError) Subject() string {
	if e.Name == "" {
		return anonymous
	}
	return e.Name
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject(), e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func unsupported(n Node) error {
	if u, ok := n.(*Unrecognized); ok {
		return errors.WithStack(&UnsupportedNodeKindError{Kind: u.Tag})
	}
	return errors.WithStack(&UnsupportedNodeKindError{Kind: fmt.Sprintf("%T", n)})
}

func malformed(format string, args ...interface{}) error {
	return errors.WithStack(&MalformedTreeError{Reason: fmt.Sprintf(format, args...)})
}

// IsUnsupported reports whether err has an UnsupportedNodeKindError in its chain.
func IsUnsupported(err error) bool {
	var u *UnsupportedNodeKindError
	return errors.As(err, &u)
}

// IsMalformed reports whether err has a MalformedTreeError in its chain.
func IsMalformed(err error) bool {
	var m *MalformedTreeError
	return errors.As(err, &m)
}

// IsEmptyName reports whether err has an EmptyNameError in its chain.
func IsEmptyName(err error) bool {
	var e *EmptyNameError
	return errors.As(err, &e)
}
