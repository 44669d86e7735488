/*
Package factory provides JSON to Go service conversion.

PURPOSE:
  Converts JSON service definitions into schedule.Service objects. This
  enables service configuration without code changes - the household
  bookkeeper can define obligations in JSON, and the factory creates the
  proper Go structs.

WHY JSON?
  - The admin UI edits services as JSON payloads
  - Easy bulk import of existing obligations
  - Database storage of service definitions
  - Version control for household configs

JSON SCHEMA:
  {
    "id": "svc-electricity",
    "public_id": "pub-electricity",
    "name": "Electricity",
    "category": "utilities",
    "recurrence_type": "RECURRING",
    "frequency": "MONTHLY",
    "default_amount": "45000",
    "emission": {
      "mode": "FIXED_DAY",
      "day": 5
    },
    "due_day": 15,
    "start_date": "2025-01-01",
    "months_to_generate": 12,
    "late_fee": {
      "mode": "PERCENTAGE",
      "value": "5",
      "grace_days": 3
    }
  }

KEY FEATURES:
  - Validates JSON structure via schedule.Validate
  - Sets sensible defaults via schedule.Normalize
  - Amounts accepted as JSON strings or numbers
  - Round-trips back to JSON for the API layer

USAGE:
  factory := NewServiceFactory()

  // From JSON string
  svc, err := factory.ParseService(jsonString)

  // Use in system
  rows, err := schedule.Regenerate(svc, overrides, existing, now)

SEE ALSO:
  - schedule/types.go: Service type definition
  - schedule/service.go: Validate and Normalize
  - api/dto.go: HTTP request/response shapes built on these types
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/notluquis/finanzas-service-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ServiceJSON is the JSON representation of a service definition.
type ServiceJSON struct {
	ID               string           `json:"id"`
	PublicID         string           `json:"public_id,omitempty"`
	Name             string           `json:"name"`
	Detail           string           `json:"detail,omitempty"`
	Category         string           `json:"category,omitempty"`
	ServiceType      string           `json:"service_type,omitempty"`
	Ownership        string           `json:"ownership,omitempty"`
	ObligationType   string           `json:"obligation_type,omitempty"`
	RecurrenceType   string           `json:"recurrence_type"`
	Frequency        string           `json:"frequency"`
	DefaultAmount    decimal.Decimal  `json:"default_amount"`
	AmountIndexation string           `json:"amount_indexation,omitempty"`
	CounterpartID    *string          `json:"counterpart_id,omitempty"`
	Emission         EmissionJSON     `json:"emission"`
	DueDay           *int             `json:"due_day,omitempty"`
	StartDate        string           `json:"start_date"`
	MonthsToGenerate int              `json:"months_to_generate"`
	LateFee          *LateFeeJSON     `json:"late_fee,omitempty"`
	Status           string           `json:"status,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// EmissionJSON represents emission configuration. Exactly one of the
// mode-specific field sets must be populated, matching the mode.
type EmissionJSON struct {
	Mode      string `json:"mode"` // FIXED_DAY, DATE_RANGE, SPECIFIC_DATE
	Day       *int   `json:"day,omitempty"`
	StartDay  *int   `json:"start_day,omitempty"`
	EndDay    *int   `json:"end_day,omitempty"`
	ExactDate string `json:"exact_date,omitempty"` // YYYY-MM-DD
}

// LateFeeJSON represents late fee configuration.
type LateFeeJSON struct {
	Mode      string           `json:"mode"` // NONE, FIXED, PERCENTAGE
	Value     *decimal.Decimal `json:"value,omitempty"`
	GraceDays *int             `json:"grace_days,omitempty"`
	Precision int32            `json:"precision,omitempty"`
}

// =============================================================================
// SERVICE FACTORY
// =============================================================================

// ServiceFactory converts JSON service definitions to Go structs.
type ServiceFactory struct{}

// NewServiceFactory creates a new service factory.
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{}
}

// ParseService parses a JSON string into a validated, normalized Service.
func (f *ServiceFactory) ParseService(jsonStr string) (schedule.Service, error) {
	var sj ServiceJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return schedule.Service{}, fmt.Errorf("failed to parse service JSON: %w", err)
	}

	return f.FromJSON(sj)
}

// FromJSON converts ServiceJSON to a validated, normalized Service.
func (f *ServiceFactory) FromJSON(sj ServiceJSON) (schedule.Service, error) {
	startDate, err := schedule.ParseDate(sj.StartDate)
	if err != nil {
		return schedule.Service{}, &schedule.ValidationError{
			Field:  "start_date",
			Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", sj.StartDate),
		}
	}

	svc := schedule.Service{
		ID:               schedule.ServiceID(sj.ID),
		PublicID:         sj.PublicID,
		Name:             sj.Name,
		Detail:           sj.Detail,
		Category:         sj.Category,
		ServiceType:      sj.ServiceType,
		Ownership:        sj.Ownership,
		ObligationType:   sj.ObligationType,
		RecurrenceType:   schedule.RecurrenceType(sj.RecurrenceType),
		Frequency:        schedule.Frequency(sj.Frequency),
		DefaultAmount:    sj.DefaultAmount,
		AmountIndexation: schedule.AmountIndexation(sj.AmountIndexation),
		CounterpartID:    sj.CounterpartID,
		EmissionMode:     schedule.EmissionMode(sj.Emission.Mode),
		EmissionDay:      sj.Emission.Day,
		EmissionStartDay: sj.Emission.StartDay,
		EmissionEndDay:   sj.Emission.EndDay,
		DueDay:           sj.DueDay,
		StartDate:        startDate,
		MonthsToGenerate: sj.MonthsToGenerate,
		Status:           schedule.ServiceStatus(sj.Status),
		Notes:            sj.Notes,
	}

	if sj.Emission.ExactDate != "" {
		exact, err := schedule.ParseDate(sj.Emission.ExactDate)
		if err != nil {
			return schedule.Service{}, &schedule.ValidationError{
				Field:  "emission.exact_date",
				Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", sj.Emission.ExactDate),
			}
		}
		svc.EmissionExactDate = &exact
	}

	svc.LateFee = parseLateFee(sj.LateFee)

	svc = schedule.Normalize(svc)
	if err := schedule.Validate(svc); err != nil {
		return schedule.Service{}, err
	}
	return svc, nil
}

// ToJSON converts a Service back to its JSON representation.
func (f *ServiceFactory) ToJSON(svc schedule.Service) ServiceJSON {
	sj := ServiceJSON{
		ID:               string(svc.ID),
		PublicID:         svc.PublicID,
		Name:             svc.Name,
		Detail:           svc.Detail,
		Category:         svc.Category,
		ServiceType:      svc.ServiceType,
		Ownership:        svc.Ownership,
		ObligationType:   svc.ObligationType,
		RecurrenceType:   string(svc.RecurrenceType),
		Frequency:        string(svc.Frequency),
		DefaultAmount:    svc.DefaultAmount,
		AmountIndexation: string(svc.AmountIndexation),
		CounterpartID:    svc.CounterpartID,
		Emission: EmissionJSON{
			Mode:     string(svc.EmissionMode),
			Day:      svc.EmissionDay,
			StartDay: svc.EmissionStartDay,
			EndDay:   svc.EmissionEndDay,
		},
		DueDay:           svc.DueDay,
		StartDate:        svc.StartDate.String(),
		MonthsToGenerate: svc.MonthsToGenerate,
		Status:           string(svc.Status),
		Notes:            svc.Notes,
	}

	if svc.EmissionExactDate != nil {
		sj.Emission.ExactDate = svc.EmissionExactDate.String()
	}

	if svc.LateFee.Mode != "" && svc.LateFee.Mode != schedule.LateFeeNone {
		sj.LateFee = &LateFeeJSON{
			Mode:      string(svc.LateFee.Mode),
			Value:     svc.LateFee.Value,
			GraceDays: svc.LateFee.GraceDays,
			Precision: svc.LateFee.Precision,
		}
	}

	return sj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseLateFee(lj *LateFeeJSON) schedule.LateFeePolicy {
	if lj == nil {
		return schedule.LateFeePolicy{Mode: schedule.LateFeeNone}
	}
	policy := schedule.LateFeePolicy{
		Mode:      schedule.LateFeeMode(lj.Mode),
		Value:     lj.Value,
		GraceDays: lj.GraceDays,
		Precision: lj.Precision,
	}
	if policy.Mode == "" {
		policy.Mode = schedule.LateFeeNone
	}
	return policy
}
