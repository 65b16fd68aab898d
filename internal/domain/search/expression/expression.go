// Package expression parses and serializes user-authored boolean search
// expressions such as `a AND (b OR "c")`.
//
// Grammar constraints: a nesting level is split on ` AND ` when present,
// otherwise on ` OR `. Mixing both combinators on one level without
// parentheses around the OR part is therefore not round-trip safe. StartsWith
// and EndsWith share the trailing `*` syntax, so EndsWith parses back as
// StartsWith.
package expression

import "errors"

// ErrMalformedExpression is returned by Parse for input that is empty after trimming.
var ErrMalformedExpression = errors.New("malformed expression")

// Operator is the matching mode of a Condition.
type Operator string

// Supported operators.
const (
	Like       Operator = "like"
	Exact      Operator = "exact"
	StartsWith Operator = "startsWith"
	EndsWith   Operator = "endsWith"
)

// IsValid reports whether the operator is one of the known values.
func (o Operator) IsValid() bool {
	return o == Like || o == Exact || o == StartsWith || o == EndsWith
}

// Combinator joins the children of a Group.
type Combinator string

// Supported combinators.
const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// IsValid reports whether the combinator is AND or OR.
func (c Combinator) IsValid() bool { return c == And || c == Or }

// Node is either a Condition or a Group.
type Node interface {
	isNode()
}

// Condition is a leaf predicate.
type Condition struct {
	Operator Operator
	Value    string
	Negate   bool
}

func (Condition) isNode() {}

// Group is an ordered list of children joined by one combinator.
type Group struct {
	Combinator Combinator
	Children   []Node
}

func (Group) isNode() {}

// IsEmpty reports whether the group has no children.
func (g Group) IsEmpty() bool { return len(g.Children) == 0 }
