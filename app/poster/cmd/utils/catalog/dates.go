package catalog

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 date format used across all data files.
const DateLayout = "2006-01-02"

// ParseExact parses a full YYYY-MM-DD date.
func ParseExact(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %v", raw, err)
	}
	return t, nil
}

// ParseMonthDay extracts the month and day from a date field. Records with
// an unknown year store it as a placeholder (e.g. "????-07-31"), so only
// the trailing MM-DD part is significant for recurring matches.
func ParseMonthDay(raw string) (time.Month, int, error) {
	if len(raw) < 5 {
		return 0, 0, fmt.Errorf("invalid date %q: too short", raw)
	}
	suffix := raw[len(raw)-5:]
	t, err := time.Parse("01-02", suffix)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: %v", raw, err)
	}
	return t.Month(), t.Day(), nil
}

// checkDateField verifies that a calendar record's date field is parseable
// for the kind of matching its category uses.
func checkDateField(category Category, raw string, recurring bool) error {
	if category == CategoryEvent && !recurring {
		_, err := ParseExact(raw)
		return err
	}
	_, _, err := ParseMonthDay(raw)
	return err
}
