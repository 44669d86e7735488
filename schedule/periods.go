/*
periods.go - Frequency calendar resolution

PURPOSE:
  Converts a frequency and a start date into successive billing period
  boundaries. This is a pure function: identical inputs always produce
  identical period sequences, which is what makes regeneration
  idempotent.

PERIOD SHAPES:
  WEEKLY / BIWEEKLY:  fixed 7/14-day periods, contiguous
  MONTHLY..ANNUAL:    1/2/3/6/12 calendar months; each period ends the
                      day before the next one starts, so variable month
                      lengths are handled exactly (never assume 30 days)
  ONCE:               a single obligation, not a range; start == end

ANCHORING:
  Month-based periods are anchored on the start date's day of month and
  clamped per-period (a Jan 31 anchor yields Feb 28, Mar 31, ...).
  Anchoring on the original start prevents the drift that cumulative
  time.AddDate calls would introduce.
*/
package schedule

// =============================================================================
// PERIOD - One billing period boundary
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD GENERATION
// =============================================================================

// GeneratePeriods returns periodCount ordered, contiguous, non-overlapping
// periods starting at startDate. ONCE yields exactly one period; a
// periodCount <= 0 yields an empty sequence for every frequency.
func GeneratePeriods(startDate Date, frequency Frequency, periodCount int) ([]Period, error) {
	if !frequency.Valid() {
		return nil, configErr("frequency", "unknown frequency "+string(frequency))
	}
	if periodCount <= 0 {
		return nil, nil
	}

	if frequency == FreqOnce {
		return []Period{{Start: startDate, End: startDate}}, nil
	}

	periods := make([]Period, 0, periodCount)

	if step := frequency.days(); step > 0 {
		for i := 0; i < periodCount; i++ {
			start := startDate.AddDays(i * step)
			periods = append(periods, Period{
				Start: start,
				End:   start.AddDays(step - 1),
			})
		}
		return periods, nil
	}

	months := frequency.months()
	for i := 0; i < periodCount; i++ {
		start := startDate.AddMonthsClamped(i * months)
		nextStart := startDate.AddMonthsClamped((i + 1) * months)
		periods = append(periods, Period{
			Start: start,
			End:   nextStart.AddDays(-1),
		})
	}
	return periods, nil
}

// PeriodCountFor maps a service's monthsToGenerate horizon to the number
// of periods of the given frequency. Month-based frequencies divide the
// horizon (rounding up to a whole period); day-based frequencies count
// the periods whose start falls inside the horizon.
func PeriodCountFor(frequency Frequency, monthsToGenerate int, startDate Date) int {
	if monthsToGenerate <= 0 {
		return 0
	}
	if frequency == FreqOnce {
		return 1
	}

	if m := frequency.months(); m > 0 {
		return (monthsToGenerate + m - 1) / m
	}

	step := frequency.days()
	horizon := startDate.AddMonthsClamped(monthsToGenerate)
	count := 0
	for cur := startDate; cur.Before(horizon); cur = cur.AddDays(step) {
		count++
	}
	return count
}
