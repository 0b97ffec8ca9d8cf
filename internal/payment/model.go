package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleKind names one of the payable amounts offered for a booking.
type ScheduleKind string

const (
	ScheduleDeposit   ScheduleKind = "deposit"
	ScheduleRemaining ScheduleKind = "remaining"
	ScheduleFull      ScheduleKind = "full"
)

// scheduleOrder is the display and fallback order for schedules.
var scheduleOrder = []ScheduleKind{ScheduleDeposit, ScheduleRemaining, ScheduleFull}

func (k ScheduleKind) Valid() bool {
	switch k {
	case ScheduleDeposit, ScheduleRemaining, ScheduleFull:
		return true
	}
	return false
}

// Statuses reported by AttachMethod after gateway normalization.
const (
	AttachSucceeded      = "succeeded"
	AttachRequiresAction = "requires_action"
)

// IntentAwaitingPaymentMethod is reported for an intent with no method
// attached yet, or whose last authorization failed.
const IntentAwaitingPaymentMethod = "awaiting_payment_method"

// Intent is a reference to a gateway-side payment intent. ClientKey is a
// secret authorizing client-side operations against it and must not be logged.
type Intent struct {
	ID        string
	ClientKey string
	Amount    decimal.Decimal
	Currency  string
	Methods   []MethodID
	Status    string
	CreatedAt time.Time
}

type Billing struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
}

// MethodPayload describes the method to attach. PaymentMethodID is set when
// the method record already exists (card tokenized by the capture surface);
// otherwise the gateway creates one of type Method first.
type MethodPayload struct {
	Method          MethodID
	PaymentMethodID string
	ClientKey       string
	ReturnURL       string
	Billing         *Billing
}

type AttachOutcome struct {
	Status          string
	RedirectURL     string
	PaymentID       string
	PaymentMethodID string
}

// Result is handed to the success callback so the booking subsystem can
// update its payment status.
type Result struct {
	IntentID        string          `json:"intent_id"`
	PaymentID       string          `json:"payment_id,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	Method          MethodID        `json:"method"`
	Schedule        ScheduleKind    `json:"schedule"`
	Amount          decimal.Decimal `json:"amount"`
}

// Attempt statuses stored in the ledger.
const (
	AttemptCreated        = "created"
	AttemptRequiresAction = "requires_action"
	AttemptSucceeded      = "succeeded"
	AttemptFailed         = "failed"
	AttemptCancelled      = "cancelled"
)

// Attempt is one ledger row: one intent created for one confirmation.
type Attempt struct {
	ID            string
	SessionID     string
	BookingID     string
	Schedule      ScheduleKind
	Method        MethodID
	Amount        decimal.Decimal
	IntentID      string
	Status        string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
