/*
latefee.go - Late fee accrual

PURPOSE:
  Determines the effective payable amount of a schedule row from its
  base amount, the service's late fee policy, and how far past the
  grace window the row is.

FREEZE SEMANTICS:
  Fees accrue only while a row is unpaid (PENDING or PARTIAL). Once a
  row is PAID, its late fee is frozen at the value computed at payment
  time and never recomputed retroactively: a schedule paid on day 40 of
  a 10-day grace window keeps the fee that was due when it was paid,
  not today's elapsed days. Unlinking a payment unfreezes the fee.

ROUNDING:
  Percentage fees are rounded half-up to the smallest currency unit
  (see money.go). FIXED fees are never prorated - either the full
  configured value applies or nothing does.
*/
package schedule

import "github.com/shopspring/decimal"

// LateFeeResult is the outcome of a late fee computation.
type LateFeeResult struct {
	LateFeeAmount   decimal.Decimal
	EffectiveAmount decimal.Decimal
}

// ComputeLateFee computes the late fee and effective amount of a
// schedule row as of now. Rows that are not unpaid keep their stored
// (frozen) fee.
func ComputeLateFee(s ServiceSchedule, policy LateFeePolicy, now Date) (LateFeeResult, error) {
	if !s.Unpaid() {
		return LateFeeResult{
			LateFeeAmount:   s.LateFeeAmount,
			EffectiveAmount: s.EffectiveAmount(),
		}, nil
	}

	fee, err := accruedFee(s, policy, now)
	if err != nil {
		return LateFeeResult{}, err
	}
	return LateFeeResult{
		LateFeeAmount:   fee,
		EffectiveAmount: s.ExpectedAmount.Add(fee),
	}, nil
}

func accruedFee(s ServiceSchedule, policy LateFeePolicy, now Date) (decimal.Decimal, error) {
	if policy.Mode == LateFeeNone || policy.Mode == "" {
		return decimal.Zero, nil
	}
	if policy.Value == nil || policy.GraceDays == nil {
		return decimal.Zero, configErr("lateFeeValue", "value and grace days required when late fee mode is "+string(policy.Mode))
	}

	if OverdueDays(s, now) <= *policy.GraceDays {
		return decimal.Zero, nil
	}

	switch policy.Mode {
	case LateFeeFixed:
		// Full value or nothing. No proration.
		return *policy.Value, nil

	case LateFeePercentage:
		fee := s.ExpectedAmount.Mul(*policy.Value).Div(decimal.NewFromInt(100))
		return RoundCurrency(fee, policy.Precision), nil

	default:
		return decimal.Zero, configErr("lateFeeMode", "unknown late fee mode "+string(policy.Mode))
	}
}

// RefreshLateFee recomputes and stores the late fee on an unpaid row.
// Paid and skipped rows are left untouched (their fee is frozen).
// It reports whether the stored fee changed.
func RefreshLateFee(s *ServiceSchedule, policy LateFeePolicy, now Date) (bool, error) {
	if !s.Unpaid() {
		return false, nil
	}
	result, err := ComputeLateFee(*s, policy, now)
	if err != nil {
		return false, err
	}
	if s.LateFeeAmount.Equal(result.LateFeeAmount) {
		return false, nil
	}
	s.LateFeeAmount = result.LateFeeAmount
	return true, nil
}
