package amortization

import "time"

// DateLayout is the wire and display format for schedule dates.
const DateLayout = "2006-01-02"

// PaymentDate returns the date of the given period: the anchor advanced by
// period*12/periodsPerYear whole months.
func PaymentDate(anchor time.Time, period, periodsPerYear int) time.Time {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	return AddMonths(anchor, period*12/periodsPerYear)
}

// AddMonths moves t forward by months calendar months, clamping to the last day
// of the target month (Jan 31 + 1 month = Feb 28/29) like a spreadsheet EDATE.
// time.AddDate alone would roll over into the following month.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// ParseDate parses a YYYY-MM-DD date, also accepting full RFC 3339 timestamps
// (PostgREST returns timestamptz columns that way). The result is truncated to
// midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
