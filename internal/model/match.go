package model

// Match-type labels recorded in lookup_log and returned to callers. The
// two base-rate labels distinguish "caller never asked for a modifier"
// from "caller asked but we fell back".
const (
	MatchModifierSpecific = "Modifier-specific rate"
	MatchBaseNoModifier   = "Base rate (no modifier)"
	MatchBaseFallback     = "Base rate (modifier not on file)"
	MatchNone             = "No match found"
)

// Match is the outcome of one lookup. Found is false only for the no-match
// case, which is a normal result rather than an error. Fields holds the
// full serving-table row keyed by column name, including the rate columns.
type Match struct {
	Found     bool
	MatchType string
	Fields    map[string]any
}
