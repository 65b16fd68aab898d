package expression

import "strings"

// reserved lists the metacharacter classes in escaping order. The backslash
// comes first so that backslashes added for later classes are not re-escaped.
var reserved = []string{
	`\`, `+`, `-`, `&`, `|`, `!`, `(`, `)`, `{`, `}`,
	`[`, `]`, `^`, `"`, `~`, `*`, `?`, `:`, `/`,
}

// escape prefixes the first occurrence of each reserved character with a backslash.
func escape(s string) string {
	for _, c := range reserved {
		s = strings.Replace(s, c, `\`+c, 1)
	}
	return s
}

// unescape reverses escape, one replacement per class in reverse order.
func unescape(s string) string {
	for i := len(reserved) - 1; i >= 0; i-- {
		c := reserved[i]
		s = strings.Replace(s, `\`+c, c, 1)
	}
	return s
}

// isEscaped reports whether the byte at i is preceded by an odd run of backslashes.
func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
