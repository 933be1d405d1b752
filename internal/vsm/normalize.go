package vsm

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Rule rewrites matched regions of raw text before tokenisation. Pattern
// selects the regions and Replace produces the replacement for each match;
// a nil Replace substitutes a single space. The zero Rule leaves text
// untouched.
//
// The rule a model is built with is reapplied verbatim to every query.
// Normalising queries with different logic than the corpus silently
// misaligns query terms with the indexed vocabulary and corrupts scores,
// so keeping the two identical is a caller obligation, not a runtime
// check.
type Rule struct {
	Pattern *regexp.Regexp
	Replace func(match string) string
}

// Separator returns a Rule that replaces every match of pattern with the
// constant sep.
func Separator(pattern *regexp.Regexp, sep string) Rule {
	return Rule{
		Pattern: pattern,
		Replace: func(string) string { return sep },
	}
}

// DefaultRule collapses every run of non-alphanumeric characters into a
// single space.
func DefaultRule() Rule {
	return Separator(nonAlnum, " ")
}

// Normalize applies the rule to raw text and returns the cleaned string.
func (r Rule) Normalize(raw string) string {
	if r.Pattern == nil {
		return raw
	}
	if r.Replace == nil {
		return r.Pattern.ReplaceAllString(raw, " ")
	}
	return r.Pattern.ReplaceAllStringFunc(raw, r.Replace)
}

// Tokenize splits normalised text on Unicode whitespace into lower-cased
// terms. Empty tokens from adjacent separators are dropped. The same input
// always yields the same term sequence.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	terms := make([]string, len(fields))
	for i, f := range fields {
		terms[i] = strings.ToLower(f)
	}
	return terms
}
