package cpp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorLoc is an error tied to a place in the source.
type ErrorLoc struct {
	Err error
	Pos FilePos
}

func ErrWithLoc(e error, pos FilePos) error {
	return ErrorLoc{
		Err: e,
		Pos: pos,
	}
}

func errorfAt(pos FilePos, format string, args ...interface{}) error {
	return ErrWithLoc(errors.Errorf(format, args...), pos)
}

func (e ErrorLoc) Error() string {
	return fmt.Sprintf("%s at %s", e.Err, e.Pos)
}

func (e ErrorLoc) Unwrap() error {
	return e.Err
}
