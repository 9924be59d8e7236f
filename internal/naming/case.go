package naming

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ninja-orval-forge/internal/common"
)

// Convention converts an identifier to one naming convention.
type Convention func(string) string

// Conventions is the naming convention table, keyed by configuration name.
var Conventions = map[string]Convention{
	"snake":  Snake,
	"camel":  Camel,
	"pascal": Pascal,
	"kebab":  Kebab,
}

// Lookup returns the convention registered under name.
func Lookup(name string) (Convention, error) {
	conv, ok := Conventions[name]
	if !ok {
		return nil, fmt.Errorf("unknown naming convention %q (known: %s)",
			name, strings.Join(common.SortedKeys(Conventions), ", "))
	}

	return conv, nil
}

// Snake converts to snake_case: "firstName" -> "first_name".
func Snake(s string) string {
	return strings.Join(Tokenize(s), "_")
}

// Kebab converts to kebab-case: "first_name" -> "first-name".
func Kebab(s string) string {
	return strings.Join(Tokenize(s), "-")
}

// Camel converts to camelCase: "first_name" -> "firstName".
func Camel(s string) string {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return ""
	}

	return tokens[0] + titleJoin(tokens[1:])
}

// Pascal converts to PascalCase: "user_profile" -> "UserProfile".
func Pascal(s string) string {
	return titleJoin(Tokenize(s))
}

// titleJoin title-cases and concatenates tokens. A Caser is stateful, so each
// call gets its own.
func titleJoin(tokens []string) string {
	caser := cases.Title(language.Und)

	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(caser.String(t))
	}

	return b.String()
}

// Title converts to a display label: "blog_posts" -> "Blog Posts".
func Title(s string) string {
	caser := cases.Title(language.Und)

	tokens := Tokenize(s)
	for i, t := range tokens {
		tokens[i] = caser.String(t)
	}

	return strings.Join(tokens, " ")
}

// Identity leaves names untouched.
func Identity(s string) string { return s }

var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"mouse":  "mice",
}

// Plural returns the English plural of a lowercase word using suffix rules.
func Plural(word string) string {
	if word == "" {
		return ""
	}

	if p, ok := irregularPlurals[word]; ok {
		return p
	}

	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(word[len(word)-2]):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "z"),
		strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

// Singular reverses Plural for the suffix rules it applies.
func Singular(word string) string {
	for s, p := range irregularPlurals {
		if word == p {
			return s
		}
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"), strings.HasSuffix(word, "zes"),
		strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"):
		return word
	case strings.HasSuffix(word, "s") && len(word) > 1:
		return word[:len(word)-1]
	default:
		return word
	}
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

var classSuffixes = []string{"ViewSet", "Serializer", "View"}

// FeatureFromClass derives a feature name from a legacy class name:
// "UserProfileSerializer" -> "user_profiles".
func FeatureFromClass(class string) string {
	name := class
	for _, suffix := range classSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	tokens := Tokenize(name)
	if len(tokens) == 0 {
		return ""
	}

	tokens[len(tokens)-1] = Plural(tokens[len(tokens)-1])

	return strings.Join(tokens, "_")
}

// ModelFromFeature derives the model class name of a feature:
// "user_profiles" -> "UserProfile".
func ModelFromFeature(feature string) string {
	tokens := Tokenize(feature)
	if len(tokens) == 0 {
		return ""
	}

	tokens = slices.Clone(tokens)
	tokens[len(tokens)-1] = Singular(tokens[len(tokens)-1])

	return titleJoin(tokens)
}
