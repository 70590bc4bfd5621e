// Package datematch decides which calendar records fire on a given date.
//
// Birthdays and deathdays recur annually and match on month and day only.
// Events match their exact date including the year, unless the record is
// marked recurring. A record dated February 29 matches only when the target
// date is itself February 29; in non-leap years it does not fire at all, so
// a post never appears on the wrong calendar day.
package datematch

import (
	"time"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd/utils/catalog"
)

// Match returns every record whose date field matches the target date.
// Grouped entries sharing one date (e.g. deathdays of the same battle) are
// all returned together; the caller decides how to post them. Records whose
// date field cannot be parsed were already rejected by the catalog, so they
// are skipped here rather than reported again.
func Match(records []catalog.Record, target time.Time) []catalog.Record {
	var matched []catalog.Record
	for _, r := range records {
		if matches(r, target) {
			matched = append(matched, r)
		}
	}
	return matched
}

func matches(r catalog.Record, target time.Time) bool {
	raw := r.DateField()
	if raw == "" {
		return false
	}

	if r.Category == catalog.CategoryEvent && !r.Recurring {
		exact, err := catalog.ParseExact(raw)
		if err != nil {
			return false
		}
		return exact.Year() == target.Year() &&
			exact.Month() == target.Month() &&
			exact.Day() == target.Day()
	}

	month, day, err := catalog.ParseMonthDay(raw)
	if err != nil {
		return false
	}
	return month == target.Month() && day == target.Day()
}
