// Package period maps timestamps onto the fixed 5-day buckets that insight
// letters are generated for. Buckets are anchored at a single epoch shared by
// all users, so two instants in the same bucket always resolve to the same
// start and end regardless of who asks or when.
package period

import "time"

// Length is the number of days in one insight period.
const Length = 5

// epoch anchors every bucket. Any date works as long as it never changes;
// moving it would silently re-key cached letters.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Period is a closed date range [Start, End], both at UTC midnight.
type Period struct {
	Start time.Time
	End   time.Time
}

// StartKey returns the period start formatted as the cache key (YYYY-MM-DD).
func (p Period) StartKey() string {
	return p.Start.Format("2006-01-02")
}

// EndKey returns the period end formatted as YYYY-MM-DD.
func (p Period) EndKey() string {
	return p.End.Format("2006-01-02")
}

// Contains reports whether the calendar day of t falls within the period.
func (p Period) Contains(t time.Time) bool {
	day := midnightUTC(t)
	return !day.Before(p.Start) && !day.After(p.End)
}

// For returns the period containing t.
func For(t time.Time) Period {
	day := midnightUTC(t)
	days := int(day.Sub(epoch).Hours() / 24)
	offset := days - mod(days, Length)
	start := epoch.AddDate(0, 0, offset)
	return Period{Start: start, End: start.AddDate(0, 0, Length-1)}
}

// Previous returns the period immediately before p.
func Previous(p Period) Period {
	start := p.Start.AddDate(0, 0, -Length)
	return Period{Start: start, End: start.AddDate(0, 0, Length-1)}
}

// LastComplete returns the most recent period that has fully elapsed as of t,
// i.e. the one before the period containing t.
func LastComplete(t time.Time) Period {
	return Previous(For(t))
}

// DaysRemaining returns how many days (including today) are left before the
// period containing t is complete. Zero if the period has already elapsed.
func DaysRemaining(p Period, t time.Time) int {
	day := midnightUTC(t)
	if day.After(p.End) {
		return 0
	}
	return int(p.End.Sub(day).Hours()/24) + 1
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// mod is a floored modulo so dates before the epoch still bucket correctly.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
