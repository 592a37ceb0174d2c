package export

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// Sanitize strips everything but digits.
func Sanitize(number string) string {
	return nonDigits.ReplaceAllString(number, "")
}

// SplitRecipients splits a comma separated list and sanitises each entry,
// dropping the ones left empty.
func SplitRecipients(raw string) []string {
	return Clean(strings.Split(raw, ","))
}

// Clean sanitises every number and drops empties.
func Clean(numbers []string) []string {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if s := Sanitize(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WithCountryCode prefixes each number with code.
func WithCountryCode(code string, numbers []string) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = code + n
	}
	return out
}

// DispatchString is the provider's comma separated "to" field.
func DispatchString(numbers []string) string {
	return strings.Join(Clean(numbers), ",")
}
