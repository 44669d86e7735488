/*
Package schedule provides the recurring service schedule engine.

PURPOSE:
  This package contains the domain types and algorithms for turning a
  recurring obligation ("service") into a sequence of billing periods,
  each with an emission date, a due date, an effective payable amount
  (base amount plus conditional late fee), and a payment-linking state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Service: A recurring or one-off financial obligation definition
  - ServiceSchedule: One billing period instance owned by a Service
  - LateFeePolicy: How overdue amounts accrue fees after a grace window
  - Frequency / EmissionMode / status enums

DESIGN PRINCIPLES:
  1. Purity: Every computation is a function of its inputs. No clocks,
     no caches, no ambient state - callers pass "now" explicitly.
  2. Precision: Uses decimal.Decimal to avoid floating-point errors.
  3. Preservation: Schedule rows tied to a recorded payment are never
     overwritten or dropped by regeneration.

USAGE:
  svc := schedule.Service{
      ID:               "svc-electricity",
      Frequency:        schedule.FreqMonthly,
      StartDate:        schedule.NewDate(2025, time.January, 1),
      MonthsToGenerate: 12,
      DefaultAmount:    decimal.NewFromInt(45000),
  }
  rows, err := schedule.Regenerate(svc, schedule.RegenerateOverrides{}, nil, schedule.Today())

SEE ALSO:
  - periods.go:    Period generation from a frequency
  - emission.go:   Emission date/window resolution
  - duedate.go:    Due date and overdue-day resolution
  - latefee.go:    Late fee accrual
  - regenerate.go: Schedule regeneration against existing rows
  - payment.go:    Payment linking state machine
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ServiceID string
type ScheduleID string

// =============================================================================
// ENUMS - Client-observed wire values, kept verbatim
// =============================================================================

// Frequency determines the length of each billing period.
type Frequency string

const (
	FreqWeekly     Frequency = "WEEKLY"
	FreqBiweekly   Frequency = "BIWEEKLY"
	FreqMonthly    Frequency = "MONTHLY"
	FreqBimonthly  Frequency = "BIMONTHLY"
	FreqQuarterly  Frequency = "QUARTERLY"
	FreqSemiannual Frequency = "SEMIANNUAL"
	FreqAnnual     Frequency = "ANNUAL"
	FreqOnce       Frequency = "ONCE"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FreqWeekly, FreqBiweekly, FreqMonthly, FreqBimonthly,
		FreqQuarterly, FreqSemiannual, FreqAnnual, FreqOnce:
		return true
	}
	return false
}

// months returns the period length in calendar months, or 0 for
// day-based and one-off frequencies.
func (f Frequency) months() int {
	switch f {
	case FreqMonthly:
		return 1
	case FreqBimonthly:
		return 2
	case FreqQuarterly:
		return 3
	case FreqSemiannual:
		return 6
	case FreqAnnual:
		return 12
	}
	return 0
}

// days returns the period length in days for day-based frequencies.
func (f Frequency) days() int {
	switch f {
	case FreqWeekly:
		return 7
	case FreqBiweekly:
		return 14
	}
	return 0
}

// RecurrenceType distinguishes recurring obligations from one-offs.
type RecurrenceType string

const (
	RecurrenceRecurring RecurrenceType = "RECURRING"
	RecurrenceOneOff    RecurrenceType = "ONE_OFF"
)

// EmissionMode determines how the emission (issue) date of each period
// is derived. Exactly one mode field-set is populated on a Service.
type EmissionMode string

const (
	// EmissionFixedDay: issued on a fixed day of the period's month
	// (clamped to the last valid day).
	EmissionFixedDay EmissionMode = "FIXED_DAY"

	// EmissionDateRange: issued within a day window of the period's
	// month; the window start is the nominal emission reference.
	EmissionDateRange EmissionMode = "DATE_RANGE"

	// EmissionSpecificDate: issued on a configured exact date,
	// independent of the period.
	EmissionSpecificDate EmissionMode = "SPECIFIC_DATE"
)

// LateFeeMode determines how late fees accrue once past the grace window.
type LateFeeMode string

const (
	LateFeeNone       LateFeeMode = "NONE"
	LateFeeFixed      LateFeeMode = "FIXED"
	LateFeePercentage LateFeeMode = "PERCENTAGE"
)

// AmountIndexation marks amounts that track an external index.
// UF-indexed amounts are stored at their base value; conversion against
// the daily UF rate is owned by the caller, not this engine.
type AmountIndexation string

const (
	IndexationNone AmountIndexation = "NONE"
	IndexationUF   AmountIndexation = "UF"
)

// ServiceStatus is derived from aggregate schedule state, except for
// ARCHIVED which is an explicit retirement.
type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "ACTIVE"
	ServiceInactive ServiceStatus = "INACTIVE"
	ServiceArchived ServiceStatus = "ARCHIVED"
)

// ScheduleStatus is the payment-linking state of a single period.
type ScheduleStatus string

const (
	StatusPending ScheduleStatus = "PENDING"
	StatusPartial ScheduleStatus = "PARTIAL"
	StatusPaid    ScheduleStatus = "PAID"

	// StatusSkipped is terminal, set administratively outside this
	// engine, and excluded from late-fee accrual.
	StatusSkipped ScheduleStatus = "SKIPPED"
)

// =============================================================================
// LATE FEE POLICY
// =============================================================================

// LateFeePolicy describes how unpaid schedules accrue fees.
// Value and GraceDays are nil iff Mode == LateFeeNone.
type LateFeePolicy struct {
	Mode      LateFeeMode
	Value     *decimal.Decimal // FIXED: flat amount; PERCENTAGE: percent of expected
	GraceDays *int

	// Precision is the number of decimal places of the smallest
	// currency unit. CLP has none, so the default of 0 rounds to
	// whole pesos.
	Precision int32
}

// =============================================================================
// SERVICE - A recurring or one-off obligation definition
// =============================================================================

type Service struct {
	ID       ServiceID
	PublicID string

	Name     string
	Detail   string
	Category string

	ServiceType    string
	Ownership      string
	ObligationType string

	RecurrenceType RecurrenceType
	Frequency      Frequency

	DefaultAmount    decimal.Decimal
	AmountIndexation AmountIndexation
	CounterpartID    *string

	// Emission mode plus its mode-specific fields. Validate enforces
	// that exactly one field-set is populated.
	EmissionMode      EmissionMode
	EmissionDay       *int
	EmissionStartDay  *int
	EmissionEndDay    *int
	EmissionExactDate *Date

	// DueDay is the day of month payments are due; nil means the
	// period end.
	DueDay *int

	StartDate        Date
	MonthsToGenerate int

	LateFee LateFeePolicy

	Status ServiceStatus
	Notes  string
}

// =============================================================================
// SERVICE SCHEDULE - One billing period instance
// =============================================================================

type ServiceSchedule struct {
	ID        ScheduleID
	ServiceID ServiceID

	PeriodStart  Date
	PeriodEnd    Date
	EmissionDate Date
	DueDate      Date

	// ExpectedAmount is the base amount before late fees.
	ExpectedAmount decimal.Decimal

	// LateFeeAmount is recomputed while the row is unpaid and frozen
	// at its last computed value once paid.
	LateFeeAmount decimal.Decimal

	Status ScheduleStatus

	// TransactionID references the external transaction linked to this
	// row. Non-nil iff a payment has been recorded.
	TransactionID *int64
	PaidAmount    *decimal.Decimal
	PaidDate      *Date

	Note string
}

// EffectiveAmount is the payable amount: expected plus accrued late fee.
func (s ServiceSchedule) EffectiveAmount() decimal.Decimal {
	return s.ExpectedAmount.Add(s.LateFeeAmount)
}

// Locked reports whether the row is tied to a recorded payment and must
// survive regeneration untouched.
func (s ServiceSchedule) Locked() bool {
	return s.Status == StatusPaid || s.TransactionID != nil
}

// Unpaid reports whether the row still accrues late fees.
func (s ServiceSchedule) Unpaid() bool {
	return s.Status == StatusPending || s.Status == StatusPartial
}
