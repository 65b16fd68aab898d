package expression

import "strings"

const notPrefix = "NOT "

// Parse builds a condition tree from an expression. It only fails on empty
// input; anything else degrades to the most permissive reading (Like, no
// negation) so that free-text search never hard-fails.
func Parse(query string) (Group, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Group{}, ErrMalformedExpression
	}
	return parseGroup(q), nil
}

func parseGroup(q string) Group {
	q = trimOuterParens(strings.TrimSpace(q))

	comb := And
	spans := splitTopLevel(q, " AND ")
	if len(spans) == 1 {
		if orSpans := splitTopLevel(q, " OR "); len(orSpans) > 1 {
			comb, spans = Or, orSpans
		}
	}

	g := Group{Combinator: comb}
	for _, part := range spans {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "(") && wrapsWhole(part) {
			g.Children = append(g.Children, parseGroup(part))
			continue
		}
		g.Children = append(g.Children, parseCondition(part))
	}
	return g
}

func parseCondition(part string) Condition {
	c := Condition{Operator: Like}
	if strings.HasPrefix(part, notPrefix) {
		c.Negate = true
		part = strings.TrimSpace(part[len(notPrefix):])
	}

	last := len(part) - 1
	switch {
	case len(part) >= 2 && part[0] == '"' && part[last] == '"' && !isEscaped(part, last):
		c.Operator = Exact
		part = part[1:last]
	case last >= 0 && part[last] == '*' && !isEscaped(part, last):
		c.Operator = StartsWith
		part = part[:last]
	}

	c.Value = unescape(part)
	return c
}

// scanState is the state of the top-level scanner.
type scanState int

const (
	stateTop scanState = iota
	stateNested
	stateQuoted
)

// scanner walks an expression tracking nesting, quoting and escapes.
type scanner struct {
	state     scanState
	resume    scanState
	depth     int
	skipNext  bool
	closedTop int // offset where depth last returned to zero, -1 if never
}

// step advances over byte c at offset i and reports whether it is a
// candidate for a top-level separator match.
func (sc *scanner) step(c byte, i int) bool {
	if sc.skipNext {
		sc.skipNext = false
		return false
	}
	if c == '\\' {
		sc.skipNext = true
		return false
	}

	switch sc.state {
	case stateQuoted:
		if c == '"' {
			sc.state = sc.resume
		}
	case stateTop:
		switch c {
		case '"':
			sc.resume, sc.state = stateTop, stateQuoted
		case '(':
			sc.depth, sc.state = 1, stateNested
		case ')':
		default:
			return true
		}
	case stateNested:
		switch c {
		case '"':
			sc.resume, sc.state = stateNested, stateQuoted
		case '(':
			sc.depth++
		case ')':
			sc.depth--
			if sc.depth == 0 {
				sc.state = stateTop
				sc.closedTop = i
			}
		}
	}
	return false
}

// splitTopLevel splits s on every occurrence of sep outside parentheses and quotes.
func splitTopLevel(s, sep string) []string {
	sc := scanner{closedTop: -1}
	var spans []string
	start := 0
	for i := 0; i < len(s); i++ {
		if sc.step(s[i], i) && strings.HasPrefix(s[i:], sep) {
			spans = append(spans, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	return append(spans, s[start:])
}

// wrapsWhole reports whether the opening parenthesis at offset 0 closes at the last byte.
func wrapsWhole(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	sc := scanner{closedTop: -1}
	for i := 0; i < len(s); i++ {
		sc.step(s[i], i)
		if sc.closedTop >= 0 {
			return sc.closedTop == len(s)-1
		}
	}
	return false
}

func trimOuterParens(s string) string {
	for wrapsWhole(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
