// Package normalize canonicalizes free-text queries before they reach the engine.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tatweel is the Arabic elongation character; it carries no meaning for matching.
const tatweel = 'ـ'

// arabicArticle is the Arabic definite article written as a word prefix.
const arabicArticle = "ال"

// metachars are meaningless for matching but meaningful to the engine grammar.
const metachars = "\"'`()[]{}<>\\/:*?~^!+-&|=,;"

// maxPasses bounds the fixed-point loop in Normalize.
const maxPasses = 4

// Normalize strips diacritics, definite-article prefixes and engine
// metacharacters from a query. Idempotent: passes repeat until the output
// stops changing.
func Normalize(raw string) string {
	s := normalizeOnce(raw)
	for range maxPasses {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(raw string) string {
	s := stripMarks(raw)

	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(metachars, r) {
			return ' '
		}
		return r
	}, s)

	tokens := strings.Fields(s)
	out := tokens[:0]
	for _, tok := range tokens {
		// "الal" must lose its Arabic article before the "al" check.
		tok = stripArabicArticle(tok)
		if tok == "" || strings.EqualFold(tok, "al") {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// ExpandVariants returns the raw query and the raw query without the "al-"
// transliteration prefix on any token. Both forms are always returned, even
// when identical.
func ExpandVariants(raw string) []string {
	tokens := strings.Fields(raw)
	for i, tok := range tokens {
		for len(tok) > 3 && strings.EqualFold(tok[:3], "al-") {
			tok = tok[3:]
		}
		tokens[i] = tok
	}
	return []string{raw, strings.Join(tokens, " ")}
}

// Disjunction joins distinct non-empty variants with OR, preserving order.
func Disjunction(variants []string) string {
	seen := make(map[string]struct{}, len(variants))
	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
	}
	return strings.Join(parts, " OR ")
}

func stripMarks(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.Is(unicode.Mn, r) || r == tatweel
		})),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stripArabicArticle removes leading "ال" while at least two letters remain.
func stripArabicArticle(tok string) string {
	for strings.HasPrefix(tok, arabicArticle) {
		rest := tok[len(arabicArticle):]
		if utf8.RuneCountInString(rest) < 2 {
			break
		}
		tok = rest
	}
	return tok
}
