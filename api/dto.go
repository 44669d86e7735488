/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Service:
    ServiceDTO (wraps factory.ServiceJSON), CreateServiceRequest

  Schedule:
    ScheduleDTO, RegenerateRequest, PaymentRequest

  Summary:
    SummaryDTO

MONEY:
  Amounts are serialized as JSON strings ("45000") to avoid float
  precision loss; shopspring/decimal handles both string and number
  input on the way in.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/service.go: ServiceJSON type
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/notluquis/finanzas-service-engine/factory"
	"github.com/notluquis/finanzas-service-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ServiceDTO represents a service in API responses.
type ServiceDTO struct {
	Definition factory.ServiceJSON `json:"definition"`
	Status     string              `json:"status"`
}

// CreateServiceRequest is the request to create or replace a service.
// The schedule set is (re)generated as part of the same call.
type CreateServiceRequest struct {
	Definition factory.ServiceJSON `json:"definition"`
}

// RegenerateRequest carries optional overrides applied before the
// schedule set is rebuilt. Absent fields keep the stored definition.
type RegenerateRequest struct {
	Months        *int             `json:"months,omitempty"`
	StartDate     *string          `json:"start_date,omitempty"`
	DefaultAmount *decimal.Decimal `json:"default_amount,omitempty"`
	DueDay        *int             `json:"due_day,omitempty"`
	Frequency     *string          `json:"frequency,omitempty"`
	EmissionDay   *int             `json:"emission_day,omitempty"`
}

// PaymentRequest links an external transaction to a schedule row.
type PaymentRequest struct {
	TransactionID int64           `json:"transaction_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaidDate      string          `json:"paid_date"`
	Note          string          `json:"note,omitempty"`
}

// ScheduleDTO represents one billing period in API responses.
type ScheduleDTO struct {
	ID              string  `json:"id"`
	ServiceID       string  `json:"service_id"`
	PeriodStart     string  `json:"period_start"`
	PeriodEnd       string  `json:"period_end"`
	EmissionDate    string  `json:"emission_date"`
	DueDate         string  `json:"due_date"`
	ExpectedAmount  string  `json:"expected_amount"`
	LateFeeAmount   string  `json:"late_fee_amount"`
	EffectiveAmount string  `json:"effective_amount"`
	Status          string  `json:"status"`
	OverdueDays     int     `json:"overdue_days"`
	TransactionID   *int64  `json:"transaction_id,omitempty"`
	PaidAmount      *string `json:"paid_amount,omitempty"`
	PaidDate        *string `json:"paid_date,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// SummaryDTO aggregates a service's schedule set.
type SummaryDTO struct {
	ServiceID        string  `json:"service_id"`
	Status           string  `json:"status"`
	TotalSchedules   int     `json:"total_schedules"`
	PendingCount     int     `json:"pending_count"`
	PartialCount     int     `json:"partial_count"`
	PaidCount        int     `json:"paid_count"`
	SkippedCount     int     `json:"skipped_count"`
	OverdueCount     int     `json:"overdue_count"`
	TotalExpected    string  `json:"total_expected"`
	TotalLateFees    string  `json:"total_late_fees"`
	TotalPaid        string  `json:"total_paid"`
	TotalOutstanding string  `json:"total_outstanding"`
	NextDueDate      *string `json:"next_due_date,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toScheduleDTO(row schedule.ServiceSchedule, now schedule.Date) ScheduleDTO {
	dto := ScheduleDTO{
		ID:              string(row.ID),
		ServiceID:       string(row.ServiceID),
		PeriodStart:     row.PeriodStart.String(),
		PeriodEnd:       row.PeriodEnd.String(),
		EmissionDate:    row.EmissionDate.String(),
		DueDate:         row.DueDate.String(),
		ExpectedAmount:  row.ExpectedAmount.String(),
		LateFeeAmount:   row.LateFeeAmount.String(),
		EffectiveAmount: row.EffectiveAmount().String(),
		Status:          string(row.Status),
		OverdueDays:     schedule.OverdueDays(row, now),
		TransactionID:   row.TransactionID,
		Note:            row.Note,
	}
	if row.PaidAmount != nil {
		s := row.PaidAmount.String()
		dto.PaidAmount = &s
	}
	if row.PaidDate != nil {
		s := row.PaidDate.String()
		dto.PaidDate = &s
	}
	return dto
}

func toScheduleDTOs(rows []schedule.ServiceSchedule, now schedule.Date) []ScheduleDTO {
	dtos := make([]ScheduleDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toScheduleDTO(row, now)
	}
	return dtos
}

func toSummaryDTO(sum schedule.ServiceSummary) SummaryDTO {
	dto := SummaryDTO{
		ServiceID:        string(sum.ServiceID),
		Status:           string(sum.Status),
		TotalSchedules:   sum.TotalSchedules,
		PendingCount:     sum.PendingCount,
		PartialCount:     sum.PartialCount,
		PaidCount:        sum.PaidCount,
		SkippedCount:     sum.SkippedCount,
		OverdueCount:     sum.OverdueCount,
		TotalExpected:    sum.TotalExpected.String(),
		TotalLateFees:    sum.TotalLateFees.String(),
		TotalPaid:        sum.TotalPaid.String(),
		TotalOutstanding: sum.TotalOutstanding.String(),
	}
	if sum.NextDueDate != nil {
		s := sum.NextDueDate.String()
		dto.NextDueDate = &s
	}
	return dto
}
