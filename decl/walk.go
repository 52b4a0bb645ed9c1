package decl

import (
	stderrors "errors"
	"iter"

	"github.com/pkg/errors"
)

// Members walks the members of agg in declaration order, yielding one
// sentence per member.
//
// A member that cannot be described yields ("", err) with err a
// *FieldError, and the walk carries on with the next member. Entries
// already yielded are unaffected. The sequence can be ranged over any
// number of times.
func Members(agg *Aggregate) iter.Seq2[string, error] {
	return std.Members(agg)
}

// Members is the package level Members using ex's depth limit.
func (ex *Explainer) Members(agg *Aggregate) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if agg == nil {
			yield("", malformed("missing aggregate"))
			return
		}
		for _, m := range agg.Members {
			s, err := ex.describe(m, 1)
			if !yield(s, err) {
				return
			}
		}
	}
}

// DescribeAggregate collects Members. It returns the sentences for every
// member that could be described, and the errors of those that could not
// joined together.
func DescribeAggregate(agg *Aggregate) ([]string, error) {
	return std.DescribeAggregate(agg)
}

// DescribeAggregate collects ex.Members.
func (ex *Explainer) DescribeAggregate(agg *Aggregate) ([]string, error) {
	var lines []string
	var errs []error
	for s, err := range ex.Members(agg) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, s)
	}
	if len(errs) != 0 {
		return lines, errors.WithStack(stderrors.Join(errs...))
	}
	return lines, nil
}
