package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/notluquis/finanzas-service-engine/schedule"
)

func regenerate(t *testing.T, svc schedule.Service, overrides schedule.RegenerateOverrides, existing []schedule.ServiceSchedule) []schedule.ServiceSchedule {
	t.Helper()
	rows, err := schedule.Regenerate(svc, overrides, existing, date(2025, time.January, 1))
	require.NoError(t, err)
	return rows
}

func markPaid(t *testing.T, row schedule.ServiceSchedule, txID int64) schedule.ServiceSchedule {
	t.Helper()
	paid, err := schedule.RegisterPayment(row, schedule.PaymentCommand{
		TransactionID: txID,
		PaidAmount:    row.EffectiveAmount(),
		PaidDate:      row.DueDate,
	}, schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)
	return paid
}

// =============================================================================
// FRESH GENERATION
// =============================================================================

func TestRegenerate_FreshService_BuildsFullSchedule(t *testing.T) {
	svc := monthlyService()

	rows := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.Equal(t, schedule.StatusPending, row.Status)
		assert.Nil(t, row.TransactionID)
		assert.True(t, row.ExpectedAmount.Equal(clp(45000)))
		assert.Equal(t, 5, row.EmissionDate.Day(), "row %d emission day", i)
		assert.Equal(t, 15, row.DueDate.Day(), "row %d due day", i)
	}
}

func TestRegenerate_Idempotent(t *testing.T) {
	// Calling regenerate twice with identical inputs yields an
	// identical schedule set, row for row.
	svc := monthlyService()

	first := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	second := regenerate(t, svc, schedule.RegenerateOverrides{}, first)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].PeriodStart.Equal(second[i].PeriodStart))
		assert.True(t, first[i].DueDate.Equal(second[i].DueDate))
		assert.True(t, first[i].ExpectedAmount.Equal(second[i].ExpectedAmount))
		assert.Equal(t, first[i].Status, second[i].Status)
	}
}

func TestRegenerate_InvalidDefinition_NothingGenerated(t *testing.T) {
	svc := monthlyService()
	svc.EmissionDay = nil // FIXED_DAY with no day

	_, err := schedule.Regenerate(svc, schedule.RegenerateOverrides{}, nil, date(2025, time.January, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrConfiguration)
}

// =============================================================================
// OVERRIDES
// =============================================================================

func TestRegenerate_Overrides_ReplacePendingRows(t *testing.T) {
	svc := monthlyService()
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)

	newAmount := clp(50000)
	rows := regenerate(t, svc, schedule.RegenerateOverrides{
		Months:        ip(2),
		DefaultAmount: &newAmount,
		DueDay:        ip(20),
	}, existing)

	require.Len(t, rows, 2, "shrunk horizon drops the pending third row")
	for _, row := range rows {
		assert.True(t, row.ExpectedAmount.Equal(clp(50000)))
		assert.Equal(t, 20, row.DueDate.Day())
	}
}

// =============================================================================
// LOCKED ROW PRESERVATION
// =============================================================================

func TestRegenerate_PaidRow_NeverDropped(t *testing.T) {
	svc := monthlyService()
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	existing[0] = markPaid(t, existing[0], 42)

	// Regenerate with a different amount: the paid January row is kept
	// exactly as it was, the rest is rebuilt.
	newAmount := clp(99000)
	rows := regenerate(t, svc, schedule.RegenerateOverrides{DefaultAmount: &newAmount}, existing)

	require.Len(t, rows, 3)
	assert.Equal(t, schedule.StatusPaid, rows[0].Status)
	assert.True(t, rows[0].ExpectedAmount.Equal(clp(45000)), "paid row keeps its original amount")
	assert.True(t, rows[1].ExpectedAmount.Equal(clp(99000)))
	assert.True(t, rows[2].ExpectedAmount.Equal(clp(99000)))
}

func TestRegenerate_LinkedPartialRow_Locked(t *testing.T) {
	svc := monthlyService()
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)

	partial, err := schedule.RegisterPayment(existing[1], schedule.PaymentCommand{
		TransactionID: 77,
		PaidAmount:    clp(10000),
		PaidDate:      existing[1].DueDate,
	}, schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)
	existing[1] = partial

	newAmount := clp(99000)
	rows := regenerate(t, svc, schedule.RegenerateOverrides{DefaultAmount: &newAmount}, existing)

	require.Len(t, rows, 3)
	assert.Equal(t, schedule.StatusPartial, rows[1].Status)
	require.NotNil(t, rows[1].TransactionID)
	assert.Equal(t, int64(77), *rows[1].TransactionID)
	assert.True(t, rows[1].ExpectedAmount.Equal(clp(45000)), "linked row immune to amount override")
}

func TestRegenerate_FrequencyChange_PreservesPaidRowBeyondNewShape(t *testing.T) {
	// GIVEN: A monthly service whose February row is already paid
	// WHEN: Switching to quarterly
	// THEN: The quarterly period overlapping February is occupied by the
	//       paid row - no duplicate row is generated for it
	svc := monthlyService()
	svc.MonthsToGenerate = 6
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	require.Len(t, existing, 6)
	existing[1] = markPaid(t, existing[1], 42)

	quarterly := schedule.FreqQuarterly
	rows := regenerate(t, svc, schedule.RegenerateOverrides{Frequency: &quarterly}, existing)

	// 6 months quarterly = 2 periods; the first is occupied by the paid
	// February row, the second is fresh.
	require.Len(t, rows, 2)
	assert.Equal(t, schedule.StatusPaid, rows[0].Status)
	assert.Equal(t, time.February, rows[0].PeriodStart.Month())
	assert.Equal(t, schedule.StatusPending, rows[1].Status)
	assert.Equal(t, time.April, rows[1].PeriodStart.Month())
}

func TestRegenerate_PaidRowOutsideNewBounds_Survives(t *testing.T) {
	// GIVEN: A 6-month schedule with June paid
	// WHEN: Shrinking the horizon to 2 months
	// THEN: The June row survives beyond the nominal bounds - the set
	//       carries one extra row protecting the payment record
	svc := monthlyService()
	svc.MonthsToGenerate = 6
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	existing[5] = markPaid(t, existing[5], 42)

	rows := regenerate(t, svc, schedule.RegenerateOverrides{Months: ip(2)}, existing)

	require.Len(t, rows, 3, "2 generated + 1 preserved")
	last := rows[len(rows)-1]
	assert.Equal(t, schedule.StatusPaid, last.Status)
	assert.Equal(t, time.June, last.PeriodStart.Month())
}

func TestRegenerate_MultiplePaidRowsInOnePeriod_AllKept(t *testing.T) {
	// Two paid monthly rows both fall inside one quarterly period: both
	// must survive and the period yields no fresh row.
	svc := monthlyService()
	svc.MonthsToGenerate = 3
	existing := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	existing[0] = markPaid(t, existing[0], 41)
	existing[1] = markPaid(t, existing[1], 42)

	quarterly := schedule.FreqQuarterly
	rows := regenerate(t, svc, schedule.RegenerateOverrides{Frequency: &quarterly}, existing)

	require.Len(t, rows, 2)
	assert.Equal(t, schedule.StatusPaid, rows[0].Status)
	assert.Equal(t, schedule.StatusPaid, rows[1].Status)

	pending := 0
	for _, row := range rows {
		if row.Status == schedule.StatusPending {
			pending++
		}
	}
	assert.Zero(t, pending, "occupied quarter must not gain a fresh row")
}

// =============================================================================
// ONE-OFF COLLAPSE
// =============================================================================

func TestRegenerate_OneOff_SinglePeriod(t *testing.T) {
	svc := monthlyService()
	svc.RecurrenceType = schedule.RecurrenceOneOff
	svc.MonthsToGenerate = 12 // collapses to 1

	rows := regenerate(t, svc, schedule.RegenerateOverrides{}, nil)
	require.Len(t, rows, 1)
}
