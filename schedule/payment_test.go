package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/notluquis/finanzas-service-engine/schedule"
)

func payment(txID int64, amount int64, paidOn schedule.Date) schedule.PaymentCommand {
	return schedule.PaymentCommand{
		TransactionID: txID,
		PaidAmount:    clp(amount),
		PaidDate:      paidOn,
	}
}

// =============================================================================
// REGISTER PAYMENT
// =============================================================================

func TestRegisterPayment_FullAmount_Paid(t *testing.T) {
	row := pendingRow(100000, date(2025, time.January, 15))

	updated, err := schedule.RegisterPayment(row, payment(42, 100000, date(2025, time.January, 10)), schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)

	assert.Equal(t, schedule.StatusPaid, updated.Status)
	require.NotNil(t, updated.TransactionID)
	assert.Equal(t, int64(42), *updated.TransactionID)
	require.NotNil(t, updated.PaidAmount)
	assert.True(t, updated.PaidAmount.Equal(clp(100000)))
	require.NotNil(t, updated.PaidDate)
	assert.True(t, updated.PaidDate.Equal(date(2025, time.January, 10)))
}

func TestRegisterPayment_PartialAmount_Partial(t *testing.T) {
	row := pendingRow(100000, date(2025, time.January, 15))

	updated, err := schedule.RegisterPayment(row, payment(42, 60000, date(2025, time.January, 10)), schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPartial, updated.Status)

	// Topping up from PARTIAL is a valid transition.
	updated, err = schedule.RegisterPayment(updated, payment(43, 100000, date(2025, time.January, 12)), schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPaid, updated.Status)
	assert.Equal(t, int64(43), *updated.TransactionID)
}

func TestRegisterPayment_LatePayment_FeeFrozenAtPaidDate(t *testing.T) {
	// GIVEN: 10% fee after 3 grace days, due January 15
	// WHEN: Paying the full effective amount on February 1
	// THEN: The fee owed on February 1 is baked in and the row is PAID,
	//       and the fee does not grow afterwards
	row := pendingRow(100000, date(2025, time.January, 15))
	policy := percentFee("10", 3)

	updated, err := schedule.RegisterPayment(row, payment(7, 110000, date(2025, time.February, 1)), policy)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPaid, updated.Status)
	assert.True(t, updated.LateFeeAmount.Equal(clp(10000)))
	assert.True(t, updated.EffectiveAmount().Equal(clp(110000)))

	result, err := schedule.ComputeLateFee(updated, policy, date(2025, time.December, 31))
	require.NoError(t, err)
	assert.True(t, result.LateFeeAmount.Equal(clp(10000)), "fee stays frozen once paid")
}

func TestRegisterPayment_ShortOfEffectiveAmount_StaysPartial(t *testing.T) {
	// Paying the base amount of an overdue row is not enough once the
	// late fee has accrued.
	row := pendingRow(100000, date(2025, time.January, 15))
	policy := fixedFee(5000, 0)

	updated, err := schedule.RegisterPayment(row, payment(7, 100000, date(2025, time.February, 1)), policy)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPartial, updated.Status)
}

func TestRegisterPayment_InvalidInputs_Rejected(t *testing.T) {
	row := pendingRow(100000, date(2025, time.January, 15))
	none := schedule.LateFeePolicy{Mode: schedule.LateFeeNone}

	_, err := schedule.RegisterPayment(row, payment(0, 100000, date(2025, time.January, 10)), none)
	assert.ErrorIs(t, err, schedule.ErrValidation, "non-positive transaction id")

	_, err = schedule.RegisterPayment(row, payment(-5, 100000, date(2025, time.January, 10)), none)
	assert.ErrorIs(t, err, schedule.ErrValidation, "negative transaction id")

	cmd := payment(42, 0, date(2025, time.January, 10))
	cmd.PaidAmount = clp(-1)
	_, err = schedule.RegisterPayment(row, cmd, none)
	assert.ErrorIs(t, err, schedule.ErrValidation, "negative paid amount")

	paid := row
	paid.Status = schedule.StatusPaid
	_, err = schedule.RegisterPayment(paid, payment(42, 100000, date(2025, time.January, 10)), none)
	assert.ErrorIs(t, err, schedule.ErrValidation, "PAID accepts no further payments")

	skipped := row
	skipped.Status = schedule.StatusSkipped
	_, err = schedule.RegisterPayment(skipped, payment(42, 100000, date(2025, time.January, 10)), none)
	assert.ErrorIs(t, err, schedule.ErrValidation, "SKIPPED is terminal")
}

func TestRegisterPayment_DoesNotMutateInput(t *testing.T) {
	row := pendingRow(100000, date(2025, time.January, 15))

	_, err := schedule.RegisterPayment(row, payment(42, 100000, date(2025, time.January, 10)), schedule.LateFeePolicy{Mode: schedule.LateFeeNone})
	require.NoError(t, err)

	assert.Equal(t, schedule.StatusPending, row.Status)
	assert.Nil(t, row.TransactionID)
}

// =============================================================================
// UNLINK PAYMENT
// =============================================================================

func TestUnlinkPayment_RestoresPendingAndClearsLink(t *testing.T) {
	// Round-trip: register then unlink lands back at PENDING with the
	// payment fields cleared.
	row := pendingRow(100000, date(2025, time.January, 15))
	none := schedule.LateFeePolicy{Mode: schedule.LateFeeNone}

	paid, err := schedule.RegisterPayment(row, payment(42, 100000, date(2025, time.January, 10)), none)
	require.NoError(t, err)

	restored, err := schedule.UnlinkPayment(paid, none, date(2025, time.January, 12))
	require.NoError(t, err)

	assert.Equal(t, schedule.StatusPending, restored.Status)
	assert.Nil(t, restored.TransactionID)
	assert.Nil(t, restored.PaidAmount)
	assert.Nil(t, restored.PaidDate)
}

func TestUnlinkPayment_UnfreezesLateFee(t *testing.T) {
	// GIVEN: A row paid on time (no fee frozen)
	// WHEN: Unlinking long past the grace window
	// THEN: The fee is recomputed from the current date
	row := pendingRow(100000, date(2025, time.January, 15))
	policy := fixedFee(5000, 3)

	paid, err := schedule.RegisterPayment(row, payment(42, 100000, date(2025, time.January, 10)), policy)
	require.NoError(t, err)
	assert.True(t, paid.LateFeeAmount.IsZero(), "paid on time, no fee")

	restored, err := schedule.UnlinkPayment(paid, policy, date(2025, time.March, 1))
	require.NoError(t, err)
	assert.True(t, restored.LateFeeAmount.Equal(clp(5000)), "fee accrues again once unlinked")
}

func TestUnlinkPayment_OnlyFromPaid(t *testing.T) {
	none := schedule.LateFeePolicy{Mode: schedule.LateFeeNone}
	now := date(2025, time.February, 1)

	row := pendingRow(100000, date(2025, time.January, 15))
	_, err := schedule.UnlinkPayment(row, none, now)
	assert.ErrorIs(t, err, schedule.ErrValidation, "PENDING cannot be unlinked")

	partial, err := schedule.RegisterPayment(row, payment(42, 50000, date(2025, time.January, 10)), none)
	require.NoError(t, err)
	_, err = schedule.UnlinkPayment(partial, none, now)
	assert.ErrorIs(t, err, schedule.ErrValidation, "PARTIAL cannot be unlinked")
}
