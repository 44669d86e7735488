package schedule

import (
	"time"
)

// =============================================================================
// DATE - Civil date at day granularity (all schedule math is date math)
// =============================================================================

// Date is a calendar date normalized to UTC midnight. Periods, emission
// dates, due dates and payment dates all use day granularity; wall-clock
// time never enters the engine.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// AddMonthsClamped moves n calendar months forward keeping the day of
// month, clamped to the last valid day of the target month. Unlike
// time.AddDate, Jan 31 + 1 month yields Feb 28/29, never Mar 2/3.
func (d Date) AddMonthsClamped(n int) Date {
	year, month := d.Time.Year(), int(d.Time.Month())+n
	// time.Date normalizes out-of-range months for us
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	day := clampDay(first.Year(), first.Month(), d.Time.Day())
	return NewDate(first.Year(), first.Month(), day)
}

// WithDayClamped returns the date in d's month with the given day,
// clamped to the last valid day of that month.
func (d Date) WithDayClamped(day int) Date {
	return NewDate(d.Year(), d.Month(), clampDay(d.Year(), d.Month(), day))
}

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================

// DaysBetween returns the signed number of days from one date to the
// other (positive when to is after from).
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	if last := daysInMonth(year, month); day > last {
		return last
	}
	return day
}
