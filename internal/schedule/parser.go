package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const compactLayout = "20060102T150405"

var offsetSuffix = regexp.MustCompile(`[+-]\d{4}$`)

// ParseEventTime interprets the provider's compact stamps:
//
//	"20170718T205000"        (bare)
//	"20170718T205000+0530"   (with offset)
//	"20170718T205000Z"       (UTC marker)
//
// Any offset suffix is dropped and the wall-clock time is read in loc,
// matching same-day comparison against slots in the business timezone.
// Returns an error instead of panicking on malformed input; callers treat
// that as non-conflicting (fail-open).
func ParseEventTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date time string")
	}
	if loc == nil {
		loc = time.Local
	}

	clean := strings.TrimSuffix(raw, "Z")
	clean = offsetSuffix.ReplaceAllString(clean, "")

	t, err := time.ParseInLocation(compactLayout, clean, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	return t, nil
}
