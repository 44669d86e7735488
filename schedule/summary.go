/*
summary.go - Per-service schedule aggregates

PURPOSE:
  Computes the summary the dashboard shows next to each service: row
  counts by status, totals, what is still outstanding, and the next
  due date. Like everything else in the package this is a pure fold
  over the rows the caller passes in.
*/
package schedule

import "github.com/shopspring/decimal"

// ServiceSummary aggregates a service's schedule rows.
type ServiceSummary struct {
	ServiceID ServiceID
	Status    ServiceStatus

	TotalSchedules int
	PendingCount   int
	PartialCount   int
	PaidCount      int
	SkippedCount   int
	OverdueCount   int

	TotalExpected decimal.Decimal
	TotalLateFees decimal.Decimal
	TotalPaid     decimal.Decimal

	// TotalOutstanding is the effective amount still owed across
	// unpaid rows, net of partial payments.
	TotalOutstanding decimal.Decimal

	// NextDueDate is the earliest due date among unpaid rows, nil when
	// nothing is owed.
	NextDueDate *Date
}

// Summarize folds a service's schedule rows into a ServiceSummary as of
// now. SKIPPED rows count toward TotalSchedules but never toward
// amounts owed.
func Summarize(svc Service, schedules []ServiceSchedule, now Date) ServiceSummary {
	sum := ServiceSummary{
		ServiceID:        svc.ID,
		Status:           DeriveStatus(svc, schedules),
		TotalSchedules:   len(schedules),
		TotalExpected:    decimal.Zero,
		TotalLateFees:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}

	for _, s := range schedules {
		switch s.Status {
		case StatusPending:
			sum.PendingCount++
		case StatusPartial:
			sum.PartialCount++
		case StatusPaid:
			sum.PaidCount++
		case StatusSkipped:
			sum.SkippedCount++
			continue
		}

		sum.TotalExpected = sum.TotalExpected.Add(s.ExpectedAmount)
		sum.TotalLateFees = sum.TotalLateFees.Add(s.LateFeeAmount)
		if s.PaidAmount != nil {
			sum.TotalPaid = sum.TotalPaid.Add(*s.PaidAmount)
		}

		if s.Unpaid() {
			if OverdueDays(s, now) > 0 {
				sum.OverdueCount++
			}

			owed := s.EffectiveAmount()
			if s.PaidAmount != nil {
				owed = owed.Sub(*s.PaidAmount)
			}
			if owed.IsPositive() {
				sum.TotalOutstanding = sum.TotalOutstanding.Add(owed)
			}

			if sum.NextDueDate == nil || s.DueDate.Before(*sum.NextDueDate) {
				due := s.DueDate
				sum.NextDueDate = &due
			}
		}
	}
	return sum
}
