package expression

import "strings"

// Serialize renders a group. The root group is never wrapped in parentheses;
// nested groups with two or more children always are. Empty children are skipped.
func Serialize(g Group, isRoot bool) string {
	parts := make([]string, 0, len(g.Children))
	for _, child := range g.Children {
		var s string
		switch n := child.(type) {
		case Group:
			s = Serialize(n, false)
		case *Group:
			s = Serialize(*n, false)
		case Condition:
			s = serializeCondition(n)
		case *Condition:
			s = serializeCondition(*n)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	out := strings.Join(parts, " "+string(combinatorOrDefault(g.Combinator))+" ")
	if isRoot {
		return out
	}
	return "(" + out + ")"
}

func serializeCondition(c Condition) string {
	if c.Value == "" {
		return ""
	}
	v := escape(c.Value)
	switch c.Operator {
	case Exact:
		v = `"` + v + `"`
	case StartsWith, EndsWith:
		v += "*"
	}
	if c.Negate {
		v = "NOT " + v
	}
	return v
}

func combinatorOrDefault(c Combinator) Combinator {
	if c == Or {
		return Or
	}
	return And
}
