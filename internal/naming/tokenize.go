package naming

import (
	"strings"
	"unicode"
)

// Tokenize splits an identifier into lowercase words at separators and
// case changes: "OrderID" -> [order id], "XMLParser" -> [xml parser],
// "first_name" -> [first name].
func Tokenize(s string) []string {
	runes := []rune(s)

	var tokens []string

	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, strings.ToLower(string(runes[start:end])))
			start = -1
		}
	}

	for i, r := range runes {
		if isSeparator(r) {
			flush(i)
			continue
		}

		if start >= 0 && wordStart(runes, i) {
			flush(i)
		}

		if start < 0 {
			start = i
		}
	}

	flush(len(runes))

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// wordStart reports whether an upper-case rune inside a word opens a new
// one: after a lower-case rune or digit, or as the last capital of an
// acronym followed by lower case.
func wordStart(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}

	if !unicode.IsUpper(runes[i-1]) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// NormalizeIdent folds an identifier to lowercase with separators removed,
// so that "first_name", "firstName" and "FirstName" compare equal.
func NormalizeIdent(s string) string {
	return strings.Join(Tokenize(s), "")
}
