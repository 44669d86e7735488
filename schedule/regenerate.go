/*
regenerate.go - Schedule regeneration orchestrator

PURPOSE:
  Reconciles an edited service definition against its existing schedule
  rows: preserves paid/linked entries, regenerates pending and future
  entries, and never silently drops a payment link.

ALGORITHM:
  1. Merge partial overrides onto the persisted definition and validate
  2. Partition existing rows into locked (PAID, or linked to a
     transaction) and regenerable (everything else)
  3. Generate the fresh period sequence from the merged definition
  4. For each generated period: if a locked row occupies an overlapping
     window, keep the locked row and skip the new one; otherwise build
     a fresh PENDING row
  5. Locked rows whose period no longer exists in the new sequence are
     preserved anyway, outside the sequence's nominal bounds - data
     integrity wins over schedule-shape conformance, so the result may
     carry one extra row beyond monthsToGenerate when it is protecting
     a payment record
  6. Regenerable rows with no counterpart in the new sequence are
     dropped

IDEMPOTENCE:
  Row IDs are derived from (service, period start), and period
  generation is deterministic, so regenerating twice with identical
  inputs yields an identical schedule set.
*/
package schedule

import (
	"fmt"
	"sort"
)

// Regenerate computes the replacement schedule set for a service.
// The existing rows are read by the caller (immediately before the
// call, under the same logical transaction as the write) and passed in;
// nothing is persisted here.
func Regenerate(svc Service, overrides RegenerateOverrides, existing []ServiceSchedule, now Date) ([]ServiceSchedule, error) {
	merged := Normalize(ApplyOverrides(svc, overrides))
	if err := Validate(merged); err != nil {
		return nil, err
	}

	var locked []ServiceSchedule
	for _, row := range existing {
		if row.Locked() {
			locked = append(locked, row)
		}
	}

	count := PeriodCountFor(merged.Frequency, merged.MonthsToGenerate, merged.StartDate)
	periods, err := GeneratePeriods(merged.StartDate, merged.Frequency, count)
	if err != nil {
		return nil, err
	}

	result := make([]ServiceSchedule, 0, len(periods)+len(locked))
	coveredLocked := make(map[ScheduleID]bool)

	for _, period := range periods {
		// A period occupied by a locked row gets no fresh row: a paid
		// period is never duplicated or orphaned.
		occupied := false
		for _, row := range locked {
			window := Period{Start: row.PeriodStart, End: row.PeriodEnd}
			if window.Overlaps(period) {
				occupied = true
				if !coveredLocked[row.ID] {
					coveredLocked[row.ID] = true
					result = append(result, row)
				}
			}
		}
		if occupied {
			continue
		}

		row, err := buildRow(merged, period, now)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	// Locked rows outside the new sequence's bounds survive regardless.
	for _, row := range locked {
		if !coveredLocked[row.ID] {
			coveredLocked[row.ID] = true
			result = append(result, row)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})

	if err := checkPreservation(locked, result); err != nil {
		return nil, err
	}
	return result, nil
}

// buildRow creates a fresh PENDING row for a period.
func buildRow(svc Service, period Period, now Date) (ServiceSchedule, error) {
	window, err := ResolveEmission(period, svc)
	if err != nil {
		return ServiceSchedule{}, err
	}

	row := ServiceSchedule{
		ID:             scheduleID(svc.ID, period.Start),
		ServiceID:      svc.ID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		EmissionDate:   window.Start,
		DueDate:        ResolveDueDate(period, svc.DueDay),
		ExpectedAmount: svc.DefaultAmount,
		Status:         StatusPending,
	}
	if _, err := RefreshLateFee(&row, svc.LateFee, now); err != nil {
		return ServiceSchedule{}, err
	}
	return row, nil
}

// scheduleID derives a deterministic row ID so regeneration is
// idempotent and re-runs replace rather than duplicate.
func scheduleID(serviceID ServiceID, periodStart Date) ScheduleID {
	return ScheduleID(fmt.Sprintf("%s:%s", serviceID, periodStart))
}

// checkPreservation verifies every locked input row made it into the
// result exactly once. By construction this always holds; if it ever
// does not, a ConflictError is raised instead of corrupting data.
func checkPreservation(locked, result []ServiceSchedule) error {
	seen := make(map[ScheduleID]int, len(result))
	for _, row := range result {
		seen[row.ID]++
	}
	for _, row := range locked {
		switch seen[row.ID] {
		case 1:
			// preserved
		case 0:
			return &ConflictError{ScheduleID: row.ID, Reason: "locked schedule dropped during regeneration"}
		default:
			return &ConflictError{ScheduleID: row.ID, Reason: "locked schedule duplicated during regeneration"}
		}
	}
	return nil
}
