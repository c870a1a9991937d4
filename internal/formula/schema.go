package formula

import "sort"

// Schema declares the variables an expression may reference and their
// types. Validation resolves every variable reference against it; the
// binding map supplied at evaluation time must cover the same names.
type Schema map[string]Kind

// Has reports whether the schema declares the named field
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the declared field names in sorted order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractVariables returns the sorted, deduplicated set of variable
// names referenced by the expression. Pure; used to precompute which
// context fields a strategy needs.
func ExtractVariables(expr Expr) []string {
	seen := make(map[string]struct{})
	collectVariables(expr, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectVariables(expr Expr, seen map[string]struct{}) {
	switch e := expr.(type) {
	case *Variable:
		seen[e.Name] = struct{}{}
	case *Unary:
		collectVariables(e.Operand, seen)
	case *Binary:
		collectVariables(e.Left, seen)
		collectVariables(e.Right, seen)
	}
}
