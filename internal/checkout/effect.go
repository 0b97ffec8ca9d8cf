package checkout

import (
	"bookpay-be/internal/payment"

	"github.com/shopspring/decimal"
)

// Effect is work requested by Transition. The Orchestrator runs effects in
// the order returned.
type Effect interface {
	isEffect()
}

type CreateIntentEffect struct {
	Attempt int
	Amount  decimal.Decimal
	Methods []payment.MethodID
}

type MountCaptureEffect struct {
	Attempt int
	Intent  payment.Intent
}

type AttachMethodEffect struct {
	Attempt  int
	IntentID string
	Payload  payment.MethodPayload
}

// VerifyCaptureEffect re-reads the intent after the browser reports a card
// outcome.
type VerifyCaptureEffect struct {
	Attempt  int
	IntentID string
}

type NavigateEffect struct{ URL string }

type NotifySuccessEffect struct{ Result payment.Result }

type NotifyCancelEffect struct{}

// RecordAttemptEffect opens a ledger row for a newly created intent.
type RecordAttemptEffect struct {
	IntentID string
	Schedule payment.ScheduleKind
	Method   payment.MethodID
	Amount   decimal.Decimal
}

type RecordStatusEffect struct {
	IntentID string
	Status   string
	Reason   *string
}

func (CreateIntentEffect) isEffect()  {}
func (MountCaptureEffect) isEffect()  {}
func (AttachMethodEffect) isEffect()  {}
func (VerifyCaptureEffect) isEffect() {}
func (NavigateEffect) isEffect()      {}
func (NotifySuccessEffect) isEffect() {}
func (NotifyCancelEffect) isEffect()  {}
func (RecordAttemptEffect) isEffect() {}
func (RecordStatusEffect) isEffect()  {}
