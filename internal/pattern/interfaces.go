// Package pattern compiles tag rule patterns into reusable label matchers.
package pattern

// Matcher decides whether an operation label matches a compiled rule pattern.
type Matcher interface {
	Matches(text string) bool
}
