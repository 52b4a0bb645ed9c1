package decl

// Describe produces the sentence for a named declaration,
// e.g. "x is a static pointer to int".
func Describe(f *Field) (string, error) {
	return std.Describe(f)
}

// DescribeParam explains a function parameter. Parameters may be
// anonymous and are rendered as their type only.
func DescribeParam(f *Field) (string, error) {
	return std.DescribeParam(f)
}

// Describe is the package level Describe using ex's depth limit.
func (ex *Explainer) Describe(f *Field) (string, error) {
	return ex.describe(f, 0)
}

// DescribeParam is the package level DescribeParam using ex's depth limit.
func (ex *Explainer) DescribeParam(f *Field) (string, error) {
	if f == nil {
		return "", malformed("missing parameter")
	}
	s, err := ex.explain(f.Type, 1)
	if err != nil {
		return "", &FieldError{Name: f.Name, Err: err}
	}
	return s, nil
}

func (ex *Explainer) describe(f *Field, depth int) (string, error) {
	if f == nil {
		return "", malformed("missing field")
	}
	if f.Name == "" {
		return "", &FieldError{Err: &EmptyNameError{}}
	}
	ty, err := ex.explain(f.Type, depth+1)
	if err != nil {
		return "", &FieldError{Name: f.Name, Err: err}
	}
	storage := ""
	if f.Storage != 0 {
		storage = f.Storage.String() + " "
	}
	return f.Name + " is a " + storage + ty, nil
}
