package model

import "time"

// LookupLogEntry is one append-only audit record. Exactly one is written per
// valid lookup attempt, whichever tier resolved it, including no-match.
type LookupLogEntry struct {
	ID         int64
	LookupTime time.Time
	GeoZip     int64
	Code       string
	Modifier   *string // the caller's post-trim modifier, nil when absent
	MatchType  string
	Success    bool
}
