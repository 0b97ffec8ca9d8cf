package checkout

import (
	"bookpay-be/internal/booking"
	"bookpay-be/internal/payment"
)

// Event is an input to Transition.
type Event interface {
	eventName() string
}

// BookingRefreshed carries a re-read of the booking.
type BookingRefreshed struct{ Booking booking.Booking }

type ScheduleSelected struct{ Schedule payment.ScheduleKind }

// ScheduleCleared returns to schedule selection and discards the frozen amount.
type ScheduleCleared struct{}

type MethodConfirmed struct {
	Method  payment.MethodID
	Billing *payment.Billing
}

type IntentCreated struct {
	Attempt int
	Intent  *payment.Intent
}

type IntentFailed struct {
	Attempt int
	Err     error
}

type CaptureMounted struct {
	Attempt int
	Surface *CaptureSurface
}

type CaptureUnavailable struct {
	Attempt int
	Err     error
}

// CaptureSubmitted carries the payment method tokenized by the capture form.
type CaptureSubmitted struct {
	Attempt         int
	PaymentMethodID string
}

// CaptureReported is the browser's claim about a card attempt. A failure is
// taken as given; any other status is a hint that is confirmed with the
// gateway before the attempt resolves.
type CaptureReported struct {
	Attempt int
	Status  string
	Err     error
}

// CaptureResolved is the gateway's answer for a card attempt: the result of
// our own attach call or of re-reading the intent after a browser report.
type CaptureResolved struct {
	Attempt int
	Outcome *payment.AttachOutcome
	Err     error
}

type MethodAttached struct {
	Attempt int
	Outcome *payment.AttachOutcome
}

type AttachFailed struct {
	Attempt int
	Err     error
}

// Cancel abandons the current method and returns to method selection.
type Cancel struct{}

// Restart leaves Failed for a fresh attempt.
type Restart struct{}

// Dismiss closes the checkout entirely.
type Dismiss struct{}

func (BookingRefreshed) eventName() string   { return "booking_refreshed" }
func (ScheduleSelected) eventName() string   { return "schedule_selected" }
func (ScheduleCleared) eventName() string    { return "schedule_cleared" }
func (MethodConfirmed) eventName() string    { return "method_confirmed" }
func (IntentCreated) eventName() string      { return "intent_created" }
func (IntentFailed) eventName() string       { return "intent_failed" }
func (CaptureMounted) eventName() string     { return "capture_mounted" }
func (CaptureUnavailable) eventName() string { return "capture_unavailable" }
func (CaptureSubmitted) eventName() string   { return "capture_submitted" }
func (CaptureReported) eventName() string    { return "capture_reported" }
func (CaptureResolved) eventName() string    { return "capture_resolved" }
func (MethodAttached) eventName() string     { return "method_attached" }
func (AttachFailed) eventName() string       { return "attach_failed" }
func (Cancel) eventName() string             { return "cancel" }
func (Restart) eventName() string            { return "restart" }
func (Dismiss) eventName() string            { return "dismiss" }

// EventName returns the wire name of ev, used in logs and spans.
func EventName(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventName()
}
