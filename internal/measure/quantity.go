// Package measure converts the free-form quantity and ingredient text that
// arrives from recipe imports and user entry into the canonical internal
// representation: integer milliliters and normalized matching keys.
package measure

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Fixed unit approximations. Computation never needs more fidelity than
// a bartender's pour.
const (
	mlPerOunce      = 30
	mlPerCentiliter = 10
	mlPerTablespoon = 15
	mlPerTeaspoon   = 5
	mlPerDash       = 1
)

// quantityRule pairs a recognizer with its conversion. Rules are evaluated
// in priority order and the first match wins, which keeps every parse
// auditable: the answer is always attributable to exactly one rule.
type quantityRule struct {
	pattern *regexp.Regexp
	convert func(groups []string, totalML int) (int, bool)
}

var quantityRules = []quantityRule{
	{
		// Percentage of a caller-supplied reference total, e.g. "50%".
		pattern: regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%$`),
		convert: func(groups []string, totalML int) (int, bool) {
			if totalML <= 0 {
				return 0, false
			}
			percent, ok := parseNumber(groups[1])
			if !ok {
				return 0, false
			}
			return roundML(percent / 100 * float64(totalML)), true
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?)\s*oz\.?$`),
		convert: scaled(mlPerOunce),
	},
	{
		pattern: regexp.MustCompile(`^(.+?)\s*cl$`),
		convert: scaled(mlPerCentiliter),
	},
	{
		pattern: regexp.MustCompile(`^(.+?)\s*(?:tbsp|tblsp|tablespoons?)$`),
		convert: scaled(mlPerTablespoon),
	},
	{
		pattern: regexp.MustCompile(`^(.+?)\s*(?:tsp|teaspoons?)$`),
		convert: scaled(mlPerTeaspoon),
	},
	{
		// Dashes and splashes count as one milliliter each; a bare
		// "dash" or "splash" means one.
		pattern: regexp.MustCompile(`^(?:(.+?)\s+)?(?:dash(?:es)?|splash(?:es)?)$`),
		convert: func(groups []string, totalML int) (int, bool) {
			count := 1.0
			if strings.TrimSpace(groups[1]) != "" {
				parsed, ok := parseNumber(groups[1])
				if !ok {
					return 0, false
				}
				count = parsed
			}
			return roundML(count * mlPerDash), true
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?)\s*ml$`),
		convert: scaled(1),
	},
	{
		// Bare number, already milliliters.
		pattern: regexp.MustCompile(`^(.+)$`),
		convert: scaled(1),
	},
}

// Parse converts a free-text amount into canonical milliliters. The second
// return value is false when no rule recognizes the text; callers must
// treat that as "unknown quantity", never as zero.
func Parse(text string) (int, bool) {
	return ParseWithTotal(text, 0)
}

// ParseWithTotal behaves like Parse and additionally resolves percentage
// amounts ("50%") against the supplied reference total. Without a positive
// total a percentage does not parse.
func ParseWithTotal(text string, totalML int) (int, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, false
	}

	for _, rule := range quantityRules {
		groups := rule.pattern.FindStringSubmatch(cleaned)
		if groups == nil {
			continue
		}
		if ml, ok := rule.convert(groups, totalML); ok {
			return ml, true
		}
	}

	return 0, false
}

func scaled(mlPerUnit float64) func(groups []string, totalML int) (int, bool) {
	return func(groups []string, _ int) (int, bool) {
		amount, ok := parseNumber(groups[1])
		if !ok {
			return 0, false
		}
		return roundML(amount * mlPerUnit), true
	}
}

// parseNumber understands integers, decimals, simple fractions ("3/4") and
// mixed forms ("1 1/2"). Mixed forms sum their parts. Any field that is not
// a number rejects the whole amount, so "1 cup" stays unknown instead of
// reading as one milliliter. The one tolerance is a fraction-shaped field
// with garbage inside ("1 x/2"): the broken fraction contributes zero and
// the rest still counts.
func parseNumber(text string) (float64, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, false
	}

	total := 0.0
	parsedAny := false
	for _, field := range fields {
		value, ok := parseNumberField(field)
		if !ok {
			if strings.Contains(field, "/") {
				continue
			}
			return 0, false
		}
		total += value
		parsedAny = true
	}

	return total, parsedAny
}

func parseNumberField(field string) (float64, bool) {
	if numerator, denominator, found := strings.Cut(field, "/"); found {
		n, errN := strconv.ParseFloat(numerator, 64)
		d, errD := strconv.ParseFloat(denominator, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func roundML(value float64) int {
	return int(math.Round(value))
}
