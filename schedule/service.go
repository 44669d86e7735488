/*
service.go - Service definition validation and overrides

PURPOSE:
  Enforces the structural invariants of a Service definition before any
  schedule generation happens, merges partial regeneration overrides,
  and derives the service's lifecycle status from its schedule rows.

INVARIANTS ENFORCED:
  - Exactly one emission-mode field-set is populated at a time
  - lateFeeValue / lateFeeGraceDays are set iff lateFeeMode != NONE
  - monthsToGenerate is within [0, 60] and collapses to 1 for one-off
    services and ONCE frequency
  - day-of-month fields are in [1, 31]
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// MaxMonthsToGenerate bounds how far ahead a schedule can be generated.
const MaxMonthsToGenerate = 60

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a Service definition and returns a ConfigurationError
// for the first violated invariant. It never mutates the service; call
// Normalize first for defaulting.
func Validate(svc Service) error {
	if svc.Name == "" {
		return configErr("name", "must not be empty")
	}
	if svc.StartDate.IsZero() {
		return configErr("startDate", "must be set")
	}
	if !svc.Frequency.Valid() {
		return configErr("frequency", "unknown frequency "+string(svc.Frequency))
	}
	if svc.RecurrenceType != RecurrenceRecurring && svc.RecurrenceType != RecurrenceOneOff {
		return configErr("recurrenceType", "must be RECURRING or ONE_OFF")
	}
	if svc.MonthsToGenerate < 0 {
		return configErr("monthsToGenerate", "must not be negative")
	}
	if svc.MonthsToGenerate > MaxMonthsToGenerate {
		return configErr("monthsToGenerate", "must not exceed 60")
	}
	if svc.DefaultAmount.IsNegative() {
		return configErr("defaultAmount", "must not be negative")
	}

	if err := validateEmission(svc); err != nil {
		return err
	}
	if err := validateLateFee(svc.LateFee); err != nil {
		return err
	}

	if svc.DueDay != nil && (*svc.DueDay < 1 || *svc.DueDay > 31) {
		return configErr("dueDay", "must be between 1 and 31")
	}
	return nil
}

// validateEmission enforces that exactly the field-set of the declared
// emission mode is populated.
func validateEmission(svc Service) error {
	hasFixed := svc.EmissionDay != nil
	hasRange := svc.EmissionStartDay != nil || svc.EmissionEndDay != nil
	hasExact := svc.EmissionExactDate != nil

	switch svc.EmissionMode {
	case EmissionFixedDay:
		if !hasFixed {
			return configErr("emissionDay", "required for FIXED_DAY emission mode")
		}
		if hasRange || hasExact {
			return configErr("emissionMode", "FIXED_DAY must not carry range or exact-date fields")
		}
		if *svc.EmissionDay < 1 || *svc.EmissionDay > 31 {
			return configErr("emissionDay", "must be between 1 and 31")
		}

	case EmissionDateRange:
		if svc.EmissionStartDay == nil || svc.EmissionEndDay == nil {
			return configErr("emissionStartDay", "start and end days required for DATE_RANGE emission mode")
		}
		if hasFixed || hasExact {
			return configErr("emissionMode", "DATE_RANGE must not carry fixed-day or exact-date fields")
		}
		if *svc.EmissionStartDay < 1 || *svc.EmissionEndDay > 31 || *svc.EmissionStartDay > *svc.EmissionEndDay {
			return configErr("emissionStartDay", "window must satisfy 1 <= start <= end <= 31")
		}

	case EmissionSpecificDate:
		if !hasExact {
			return configErr("emissionExactDate", "required for SPECIFIC_DATE emission mode")
		}
		if hasFixed || hasRange {
			return configErr("emissionMode", "SPECIFIC_DATE must not carry day fields")
		}

	default:
		return configErr("emissionMode", "unknown emission mode "+string(svc.EmissionMode))
	}
	return nil
}

func validateLateFee(p LateFeePolicy) error {
	switch p.Mode {
	case LateFeeNone, "":
		if p.Value != nil || p.GraceDays != nil {
			return configErr("lateFeeMode", "value and grace days must be null when mode is NONE")
		}
	case LateFeeFixed, LateFeePercentage:
		if p.Value == nil || p.GraceDays == nil {
			return configErr("lateFeeValue", "value and grace days required when mode is "+string(p.Mode))
		}
		if p.Value.IsNegative() {
			return configErr("lateFeeValue", "must not be negative")
		}
		if *p.GraceDays < 0 {
			return configErr("lateFeeGraceDays", "must not be negative")
		}
	default:
		return configErr("lateFeeMode", "unknown late fee mode "+string(p.Mode))
	}
	return nil
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize applies defaulting rules: one-off services generate a
// single period, and a missing status starts as ACTIVE.
func Normalize(svc Service) Service {
	if svc.RecurrenceType == RecurrenceOneOff || svc.Frequency == FreqOnce {
		svc.MonthsToGenerate = 1
	}
	if svc.Status == "" {
		svc.Status = ServiceActive
	}
	if svc.AmountIndexation == "" {
		svc.AmountIndexation = IndexationNone
	}
	return svc
}

// =============================================================================
// REGENERATION OVERRIDES
// =============================================================================

// RegenerateOverrides is a partial override of a persisted Service
// definition, applied before regenerating its schedule.
type RegenerateOverrides struct {
	Months        *int
	StartDate     *Date
	DefaultAmount *decimal.Decimal
	DueDay        *int
	Frequency     *Frequency
	EmissionDay   *int
}

// ApplyOverrides merges the non-nil overrides onto the service.
func ApplyOverrides(svc Service, o RegenerateOverrides) Service {
	if o.Months != nil {
		svc.MonthsToGenerate = *o.Months
	}
	if o.StartDate != nil {
		svc.StartDate = *o.StartDate
	}
	if o.DefaultAmount != nil {
		svc.DefaultAmount = *o.DefaultAmount
	}
	if o.DueDay != nil {
		svc.DueDay = o.DueDay
	}
	if o.Frequency != nil {
		svc.Frequency = *o.Frequency
	}
	if o.EmissionDay != nil && svc.EmissionMode == EmissionFixedDay {
		svc.EmissionDay = o.EmissionDay
	}
	return svc
}

// =============================================================================
// DERIVED STATUS
// =============================================================================

// DeriveStatus computes the service lifecycle status from its schedule
// rows. ARCHIVED is sticky: it is an explicit retirement and never
// reverts from aggregate state.
func DeriveStatus(svc Service, schedules []ServiceSchedule) ServiceStatus {
	if svc.Status == ServiceArchived {
		return ServiceArchived
	}
	for _, s := range schedules {
		if s.Unpaid() {
			return ServiceActive
		}
	}
	return ServiceInactive
}
