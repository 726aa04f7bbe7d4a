package model

// PatternKind selects how a tag rule's pattern is interpreted.
type PatternKind int

// Pattern kinds.
const (
	PatternLiteral PatternKind = iota
	PatternRegex
)

func (k PatternKind) String() string {
	if k == PatternRegex {
		return "regex"
	}
	return "literal"
}

// TagRule assigns its tags to every operation whose label matches the pattern.
// Rules are evaluated in ascending ID order.
type TagRule struct {
	MatchingPattern string
	TagIDs          []int64
	ID              int64
	Kind            PatternKind
}

// IsRegex reports whether the rule pattern is a regular expression.
func (r TagRule) IsRegex() bool {
	return r.Kind == PatternRegex
}
