/*
payment.go - Payment linking state machine

PURPOSE:
  Manages schedule status transitions driven by external transaction
  references:

    PENDING ──registerPayment──▶ PARTIAL ──registerPayment──▶ PAID
       ▲                                                        │
       └───────────────────unlinkPayment────────────────────────┘

  SKIPPED is terminal, set administratively outside this engine, and
  accepts no transitions here.

RULES:
  - registerPayment is valid from PENDING or PARTIAL; the resulting
    status is PAID when the paid amount covers the effective amount
    (late fee included, computed as of the paid date), PARTIAL
    otherwise
  - the late fee is frozen at payment time: paying late locks in the
    fee owed on the paid date
  - unlinkPayment is valid only from PAID; it restores PENDING, clears
    the payment fields, and unfreezes the late fee, which is recomputed
    from the current date
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// PaymentCommand is the input to RegisterPayment.
type PaymentCommand struct {
	TransactionID int64
	PaidAmount    decimal.Decimal
	PaidDate      Date
	Note          string
}

// RegisterPayment links an external transaction to a schedule row and
// advances its status. The input row is not mutated; the updated row is
// returned.
func RegisterPayment(s ServiceSchedule, cmd PaymentCommand, policy LateFeePolicy) (ServiceSchedule, error) {
	if s.Status != StatusPending && s.Status != StatusPartial {
		return s, validationErr("status", "payment can only be registered on a PENDING or PARTIAL schedule, not "+string(s.Status))
	}
	if cmd.TransactionID <= 0 {
		return s, validationErr("transactionId", "must be a positive integer")
	}
	if cmd.PaidAmount.IsNegative() {
		return s, validationErr("paidAmount", "must not be negative")
	}
	if cmd.PaidDate.IsZero() {
		return s, validationErr("paidDate", "must be set")
	}

	// Freeze the fee owed as of the payment date before comparing.
	if _, err := RefreshLateFee(&s, policy, cmd.PaidDate); err != nil {
		return s, err
	}

	if cmd.PaidAmount.GreaterThanOrEqual(s.EffectiveAmount()) {
		s.Status = StatusPaid
	} else {
		s.Status = StatusPartial
	}

	txID := cmd.TransactionID
	paidAmount := cmd.PaidAmount
	paidDate := cmd.PaidDate
	s.TransactionID = &txID
	s.PaidAmount = &paidAmount
	s.PaidDate = &paidDate
	if cmd.Note != "" {
		s.Note = cmd.Note
	}
	return s, nil
}

// UnlinkPayment detaches a recorded payment from a PAID row, restoring
// it to PENDING. The late fee is recomputed from now.
func UnlinkPayment(s ServiceSchedule, policy LateFeePolicy, now Date) (ServiceSchedule, error) {
	if s.Status != StatusPaid {
		return s, validationErr("status", "only a PAID schedule can be unlinked, not "+string(s.Status))
	}
	if s.TransactionID == nil {
		return s, validationErr("transactionId", "schedule has no linked transaction")
	}

	s.Status = StatusPending
	s.TransactionID = nil
	s.PaidAmount = nil
	s.PaidDate = nil

	if _, err := RefreshLateFee(&s, policy, now); err != nil {
		return s, err
	}
	return s, nil
}
