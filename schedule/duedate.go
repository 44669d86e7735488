/*
duedate.go - Due date and overdue-day resolution

PURPOSE:
  Computes the date a period's payment falls due and, from it, how many
  days a schedule row is overdue. The invariant maintained here is that
  a due date never precedes the period it belongs to.
*/
package schedule

// ResolveDueDate computes the due date of a period.
//
// With dueDay set, the due date is that day of the period's month,
// clamped to the last valid day; if the clamped date would fall before
// the period start, it rolls forward to the next month. With dueDay
// nil, the due date defaults to the period end.
func ResolveDueDate(period Period, dueDay *int) Date {
	if dueDay == nil {
		return period.End
	}

	due := period.Start.WithDayClamped(*dueDay)
	if due.Before(period.Start) {
		due = period.Start.AddMonthsClamped(1).WithDayClamped(*dueDay)
	}
	return due
}

// OverdueDays returns how many days past its due date the schedule is,
// evaluated only while the row is unpaid. Paid and skipped rows are
// never overdue.
func OverdueDays(s ServiceSchedule, now Date) int {
	if !s.Unpaid() {
		return 0
	}
	days := DaysBetween(s.DueDate, now)
	if days < 0 {
		return 0
	}
	return days
}
