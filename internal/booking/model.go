package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// DefaultDepositRate applies when a booking carries no explicit deposit.
var DefaultDepositRate = decimal.RequireFromString("0.30")

// Booking is owned by the booking subsystem; this service only reads it.
type Booking struct {
	ID            string
	ClientID      string
	TotalAmount   decimal.Decimal
	DepositAmount decimal.NullDecimal
	TotalPaid     decimal.Decimal
	Status        Status
	PaymentStatus PaymentStatus
	UpdatedAt     time.Time
}

// RemainingBalance is total minus paid, floored at zero.
func (b Booking) RemainingBalance() decimal.Decimal {
	rem := b.TotalAmount.Sub(b.TotalPaid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Deposit returns the explicit deposit or 30% of the total rounded to
// centavos, clamped to [0, TotalAmount].
func (b Booking) Deposit() decimal.Decimal {
	dep := b.TotalAmount.Mul(DefaultDepositRate).Round(2)
	if b.DepositAmount.Valid {
		dep = b.DepositAmount.Decimal
	}
	if dep.IsNegative() {
		return decimal.Zero
	}
	total := b.TotalAmount
	if total.IsNegative() {
		total = decimal.Zero
	}
	if dep.GreaterThan(total) {
		return total
	}
	return dep
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}
