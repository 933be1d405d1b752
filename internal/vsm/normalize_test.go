package vsm

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// TestDefaultRuleStripsPunctuation verifies that the default rule turns
// every non-alphanumeric run into a single separator.
func TestDefaultRuleStripsPunctuation(t *testing.T) {
	rule := DefaultRule()

	got := Tokenize(rule.Normalize("Hello, World! (2nd edition)"))
	want := []string{"hello", "world", "2nd", "edition"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected tokens %v, got %v", want, got)
	}
}

// TestSeparatorRule verifies that a custom separator pattern replaces
// matches with the given separator string.
func TestSeparatorRule(t *testing.T) {
	rule := Separator(regexp.MustCompile(`[,;]`), " ")

	got := rule.Normalize("a,b;c")
	want := "a b c"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestRuleNilPattern verifies that a zero-value rule leaves input
// untouched.
func TestRuleNilPattern(t *testing.T) {
	var rule Rule

	in := "Mixed CASE, -- punctuation!"
	if got := rule.Normalize(in); got != in {
		t.Errorf("expected input unchanged, got %q", got)
	}
}

// TestRuleReplaceFunc verifies that a replacement function receives each
// match and that its return value is substituted.
func TestRuleReplaceFunc(t *testing.T) {
	rule := Rule{
		Pattern: regexp.MustCompile(`\d+`),
		Replace: func(match string) string {
			return strings.Repeat("#", len(match))
		},
	}

	got := rule.Normalize("v12 beta3")
	want := "v## beta#"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestTokenize verifies lowercasing, whitespace splitting, and handling
// of empty input.
func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"mixed case", "The QUICK brown", []string{"the", "quick", "brown"}},
		{"extra whitespace", "  a \t b\n c  ", []string{"a", "b", "c"}},
		{"empty", "", nil},
		{"only whitespace", "   \t\n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestNormalizeTokenizePipeline verifies that normalising before
// tokenising merges case and punctuation variants of the same word into
// one term.
func TestNormalizeTokenizePipeline(t *testing.T) {
	rule := DefaultRule()

	variants := []string{"cat", "Cat!", "CAT,", "(cat)"}
	for _, v := range variants {
		got := Tokenize(rule.Normalize(v))
		if len(got) != 1 || got[0] != "cat" {
			t.Errorf("variant %q: expected [cat], got %v", v, got)
		}
	}
}
