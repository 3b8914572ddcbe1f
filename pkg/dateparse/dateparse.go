// Package dateparse parses the assorted date formats that arrive on search
// forms and in government extract files.
package dateparse

import (
	"strings"
	"time"
)

// layouts ordered by how often each shows up in practice. Day-first formats
// come first; ISO dates from newer extracts last.
var layouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02 01 2006",
	"02012006",
	"2006-01-02",
}

// Parse attempts each known layout against the trimmed input. The second
// return is false when nothing matched; callers treat that as "no date
// constraint" rather than an error, so a mistyped date degrades a search
// instead of failing it.
func Parse(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfDay truncates a time to midnight UTC. Matching uses half-open
// [start, start+24h) ranges because stored timestamps carry time-of-day and
// timezone noise from the import pipeline.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
