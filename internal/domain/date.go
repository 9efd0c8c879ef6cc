package domain

import (
	"fmt"
	"strings"
	"time"
)

// MinDateLength rejects year-only or year-month inputs.
const MinDateLength = 10

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01-02-2006",
}

// ParseDate accepts ISO dates with at least day precision, plus the
// MM-DD-YYYY form used by seeded data.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < MinDateLength {
		return time.Time{}, fmt.Errorf("date %q must have at least day precision (YYYY-MM-DD)", raw)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not a valid date", raw)
}
