package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyPattern is returned when a rule has nothing to match.
var ErrEmptyPattern = errors.New("empty pattern")

// Literal matches labels containing the pattern, ignoring case and Unicode
// normalization form.
type Literal struct {
	folded string
}

// NewLiteral creates a case-insensitive substring matcher.
func NewLiteral(pattern string) *Literal {
	return &Literal{folded: fold(pattern)}
}

// Matches reports whether text contains the literal.
func (l *Literal) Matches(text string) bool {
	return strings.Contains(fold(text), l.folded)
}

// Regex matches labels with an unanchored, case-insensitive regular expression search.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern as a case-insensitive regular expression.
func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{re: re}, nil
}

// Matches reports whether the expression matches anywhere in text.
func (r *Regex) Matches(text string) bool {
	return r.re.MatchString(text)
}

// never is the matcher of inert rules.
type never struct{}

func (never) Matches(string) bool { return false }

// Never returns a matcher that matches nothing.
func Never() Matcher {
	return never{}
}

// Compile builds the matcher for a rule. On error the returned matcher is inert,
// so callers may keep using it after reporting the error.
func Compile(rule model.TagRule) (Matcher, error) {
	if strings.TrimSpace(rule.MatchingPattern) == "" {
		return Never(), fmt.Errorf("rule %d: %w", rule.ID, ErrEmptyPattern)
	}

	if rule.Kind == model.PatternRegex {
		re, err := NewRegex(rule.MatchingPattern)
		if err != nil {
			return Never(), fmt.Errorf("rule %d: invalid regular expression %q: %w", rule.ID, rule.MatchingPattern, err)
		}
		return re, nil
	}

	return NewLiteral(rule.MatchingPattern), nil
}

// fold case-folds s and composes it to NFC, so precomposed and decomposed
// accents compare equal.
func fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}
