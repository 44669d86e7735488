package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/notluquis/finanzas-service-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) schedule.Date {
	return schedule.NewDate(year, month, day)
}

func ip(n int) *int { return &n }

func clp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// monthlyService is the baseline fixture: a monthly utility-style bill.
func monthlyService() schedule.Service {
	return schedule.Service{
		ID:               "svc-electricity",
		PublicID:         "pub-electricity",
		Name:             "Electricity",
		Category:         "utilities",
		RecurrenceType:   schedule.RecurrenceRecurring,
		Frequency:        schedule.FreqMonthly,
		DefaultAmount:    clp(45000),
		EmissionMode:     schedule.EmissionFixedDay,
		EmissionDay:      ip(5),
		DueDay:           ip(15),
		StartDate:        date(2025, time.January, 1),
		MonthsToGenerate: 3,
		LateFee:          schedule.LateFeePolicy{Mode: schedule.LateFeeNone},
	}
}

// =============================================================================
// PERIOD GENERATION
// =============================================================================

func TestGeneratePeriods_Monthly_ContiguousAcrossVariableMonthLengths(t *testing.T) {
	// GIVEN: A monthly series starting January 1st
	// WHEN: Generating 4 periods
	// THEN: Each period spans one calendar month and ends the day before
	//       the next starts, regardless of month length

	periods, err := schedule.GeneratePeriods(date(2025, time.January, 1), schedule.FreqMonthly, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(periods))
	}

	wantEnds := []schedule.Date{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
	}
	for i, p := range periods {
		if !p.End.Equal(wantEnds[i]) {
			t.Errorf("period %d: expected end %s, got %s", i, wantEnds[i], p.End)
		}
	}
}

func TestGeneratePeriods_Monthly_Day31Anchor_ClampsWithoutDrift(t *testing.T) {
	// GIVEN: A monthly series anchored on the 31st
	// WHEN: Generating across February
	// THEN: February's start clamps to its last day, and March recovers
	//       the 31st (no cumulative drift)

	periods, err := schedule.GeneratePeriods(date(2025, time.January, 31), schedule.FreqMonthly, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !periods[1].Start.Equal(date(2025, time.February, 28)) {
		t.Errorf("expected February start 2025-02-28, got %s", periods[1].Start)
	}
	if !periods[2].Start.Equal(date(2025, time.March, 31)) {
		t.Errorf("expected March start 2025-03-31, got %s", periods[2].Start)
	}
}

func TestGeneratePeriods_Weekly_SevenDayPeriods(t *testing.T) {
	periods, err := schedule.GeneratePeriods(date(2025, time.March, 3), schedule.FreqWeekly, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, p := range periods {
		if got := schedule.DaysBetween(p.Start, p.End); got != 6 {
			t.Errorf("period %d: expected 7-day span, got %d days inclusive", i, got+1)
		}
	}
	if !periods[1].Start.Equal(date(2025, time.March, 10)) {
		t.Errorf("expected second period to start 2025-03-10, got %s", periods[1].Start)
	}
}

func TestGeneratePeriods_Once_SinglePointPeriod(t *testing.T) {
	// ONCE is a single obligation, not a range: one period regardless
	// of the requested count, with end == start.
	periods, err := schedule.GeneratePeriods(date(2025, time.June, 15), schedule.FreqOnce, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	if !periods[0].Start.Equal(periods[0].End) {
		t.Errorf("expected start == end, got %s", periods[0])
	}
}

func TestGeneratePeriods_ZeroCount_EmptyNoError(t *testing.T) {
	for _, freq := range []schedule.Frequency{schedule.FreqMonthly, schedule.FreqWeekly, schedule.FreqOnce} {
		periods, err := schedule.GeneratePeriods(date(2025, time.January, 1), freq, 0)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", freq, err)
		}
		if len(periods) != 0 {
			t.Errorf("%s: expected empty sequence, got %d periods", freq, len(periods))
		}
	}
}

func TestGeneratePeriods_UnknownFrequency_ConfigurationError(t *testing.T) {
	_, err := schedule.GeneratePeriods(date(2025, time.January, 1), "FORTNIGHTLY", 3)
	if err == nil {
		t.Fatal("expected error for unknown frequency")
	}
	if !schedule.IsClientError(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestGeneratePeriods_AllFrequencies_ContiguousOrderedNonOverlapping(t *testing.T) {
	// Property: for every frequency, periods come back in chronological
	// order, non-overlapping, with each period starting the day after
	// the previous one ends.
	frequencies := []schedule.Frequency{
		schedule.FreqWeekly, schedule.FreqBiweekly, schedule.FreqMonthly,
		schedule.FreqBimonthly, schedule.FreqQuarterly, schedule.FreqSemiannual,
		schedule.FreqAnnual,
	}

	for _, freq := range frequencies {
		periods, err := schedule.GeneratePeriods(date(2024, time.February, 29), freq, 6)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", freq, err)
		}
		if len(periods) != 6 {
			t.Fatalf("%s: expected 6 periods, got %d", freq, len(periods))
		}

		for i, p := range periods {
			if p.End.Before(p.Start) {
				t.Errorf("%s: period %d ends before it starts: %s", freq, i, p)
			}
			if i == 0 {
				continue
			}
			prev := periods[i-1]
			if !p.Start.Equal(prev.End.AddDays(1)) {
				t.Errorf("%s: period %d not contiguous: prev end %s, start %s", freq, i, prev.End, p.Start)
			}
		}
	}
}

func TestGeneratePeriods_Deterministic(t *testing.T) {
	// Pure function: two calls with identical inputs agree exactly.
	a, _ := schedule.GeneratePeriods(date(2025, time.May, 17), schedule.FreqQuarterly, 8)
	b, _ := schedule.GeneratePeriods(date(2025, time.May, 17), schedule.FreqQuarterly, 8)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			t.Errorf("period %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

// =============================================================================
// PERIOD COUNT MAPPING
// =============================================================================

func TestPeriodCountFor_MonthBasedFrequencies(t *testing.T) {
	start := date(2025, time.January, 1)
	cases := []struct {
		freq   schedule.Frequency
		months int
		want   int
	}{
		{schedule.FreqMonthly, 12, 12},
		{schedule.FreqBimonthly, 12, 6},
		{schedule.FreqQuarterly, 12, 4},
		{schedule.FreqQuarterly, 7, 3}, // partial horizon rounds up
		{schedule.FreqSemiannual, 12, 2},
		{schedule.FreqAnnual, 12, 1},
		{schedule.FreqOnce, 12, 1},
		{schedule.FreqMonthly, 0, 0},
	}

	for _, tc := range cases {
		if got := schedule.PeriodCountFor(tc.freq, tc.months, start); got != tc.want {
			t.Errorf("%s over %d months: expected %d periods, got %d", tc.freq, tc.months, tc.want, got)
		}
	}
}

func TestPeriodCountFor_Weekly_CoversHorizon(t *testing.T) {
	// One month from Jan 1 is Feb 1: weeks starting Jan 1, 8, 15, 22, 29.
	got := schedule.PeriodCountFor(schedule.FreqWeekly, 1, date(2025, time.January, 1))
	if got != 5 {
		t.Errorf("expected 5 weekly periods in one month, got %d", got)
	}
}
