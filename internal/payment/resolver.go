package payment

import (
	"bookpay-be/internal/booking"

	"github.com/shopspring/decimal"
)

// Resolution is the set of schedules payable for a booking right now. It is
// a pure projection of the booking and is recomputed whenever the booking is
// re-read.
type Resolution struct {
	Eligible []ScheduleKind
	Amounts  map[ScheduleKind]decimal.Decimal
	Default  ScheduleKind
	// Fallback is set when no schedule is eligible yet the booking still has
	// an unpaid total; Full is then offered without a schedule selector.
	Fallback bool
}

// Resolve computes the eligible schedules and their amounts. A schedule whose
// amount is not positive is never returned.
func Resolve(b booking.Booking) Resolution {
	res := Resolution{Amounts: make(map[ScheduleKind]decimal.Decimal, len(scheduleOrder))}
	remaining := b.RemainingBalance()

	offer := func(kind ScheduleKind, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		res.Eligible = append(res.Eligible, kind)
		res.Amounts[kind] = amount
	}

	if b.Status == booking.StatusPending && b.PaymentStatus != booking.PaymentPaid {
		offer(ScheduleDeposit, b.Deposit())
	}
	if (b.Status == booking.StatusApproved || b.Status == booking.StatusConfirmed) && remaining.IsPositive() {
		offer(ScheduleRemaining, remaining)
	}
	if b.PaymentStatus != booking.PaymentPaid && b.TotalAmount.IsPositive() {
		offer(ScheduleFull, b.TotalAmount)
	}

	if len(res.Eligible) == 0 {
		if b.TotalAmount.IsPositive() && b.TotalPaid.IsZero() {
			res.Fallback = true
			res.Amounts[ScheduleFull] = b.TotalAmount
			res.Default = ScheduleFull
		}
		return res
	}

	preferred := ScheduleFull
	switch {
	case b.Status == booking.StatusPending && b.PaymentStatus == booking.PaymentUnpaid:
		preferred = ScheduleDeposit
	case remaining.IsPositive():
		preferred = ScheduleRemaining
	}
	if res.IsEligible(preferred) {
		res.Default = preferred
	} else {
		res.Default = res.Eligible[0]
	}

	return res
}

func (r Resolution) IsEligible(kind ScheduleKind) bool {
	for _, k := range r.Eligible {
		if k == kind {
			return true
		}
	}
	return false
}

// Payable reports whether kind may be chosen: an eligible schedule, or Full
// under Fallback.
func (r Resolution) Payable(kind ScheduleKind) (decimal.Decimal, bool) {
	if !r.IsEligible(kind) && !(r.Fallback && kind == ScheduleFull) {
		return decimal.Zero, false
	}
	amount, ok := r.Amounts[kind]
	return amount, ok
}

// ShowSelector is false when the schedule selector must be suppressed.
func (r Resolution) ShowSelector() bool {
	return len(r.Eligible) > 0
}
