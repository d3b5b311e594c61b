package measure

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// stripRules remove descriptive noise from the front of an ingredient
// name so that "freshly squeezed lime juice" and "Lime Juice" produce the
// same matching key. Order matters: the more specific phrasing comes
// before its shorter form.
var stripRules = []*regexp.Regexp{
	regexp.MustCompile(`^freshly squeezed\s+`),
	regexp.MustCompile(`^fresh\s+`),
	regexp.MustCompile(`^\d+\s+(?:\w+\s+)?slices?\s+of\s+`),
	regexp.MustCompile(`^(?:a\s+|an\s+|few\s+|\d+\s+)?(?:dash(?:es)?|splash(?:es)?|shots?|jiggers?)\s+of\s+`),
	regexp.MustCompile(`^top\s+(?:up\s+)?with\s+`),
}

// NormalizeName reduces an ingredient's display name to a lowercase
// matching key: whitespace collapsed and leading freshness qualifiers,
// garnish counts, leaked measure words, and preparation phrases removed.
// The key is only ever used for matching, never shown to a user.
// Idempotent: normalizing a normalized string changes nothing.
func NormalizeName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = whitespaceRun.ReplaceAllString(key, " ")

	// Stripping can expose another strippable phrase ("fresh splash of
	// soda"), so the rules run until the key is stable.
	for {
		previous := key
		for _, rule := range stripRules {
			key = strings.TrimSpace(rule.ReplaceAllString(key, ""))
		}
		if key == previous {
			return key
		}
	}
}
