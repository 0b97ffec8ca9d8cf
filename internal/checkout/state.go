package checkout

import (
	"bookpay-be/internal/booking"
	"bookpay-be/internal/payment"

	"github.com/shopspring/decimal"
)

type Phase string

const (
	PhaseSelectingSchedule  Phase = "selecting_schedule"
	PhaseSelectingMethod    Phase = "selecting_method"
	PhaseCreatingIntent     Phase = "creating_intent"
	PhaseAttachingMethod    Phase = "attaching_method"
	PhaseMountingDirectForm Phase = "mounting_direct_form"
	PhaseAwaitingRedirect   Phase = "awaiting_redirect"
	PhaseSucceeded          Phase = "succeeded"
	PhaseFailed             Phase = "failed"
	PhaseCancelled          Phase = "cancelled"
)

// Terminal reports whether p is a sink. Failed is not a sink: it still
// accepts Restart, Cancel and Dismiss.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseCancelled
}

// Busy phases have a gateway round-trip in flight.
func (p Phase) Busy() bool {
	return p == PhaseCreatingIntent || p == PhaseAttachingMethod
}

// State is the whole checkout session. It is a value: Transition never
// mutates its input.
type State struct {
	Phase      Phase
	Booking    booking.Booking
	Resolution payment.Resolution

	// Schedule and Amount are frozen once a schedule is picked and stay
	// frozen across a method-level cancel.
	Schedule payment.ScheduleKind
	Amount   decimal.Decimal

	Method  payment.MethodID
	Billing *payment.Billing

	// Attempt numbers confirmations. Gateway results carrying any other
	// number are stale and dropped.
	Attempt    int
	Intent     *payment.Intent
	Capture    *CaptureSurface
	Submitting bool

	RedirectURL string
	Result      *payment.Result
	Err         error
}

// NewState starts a session for b. The default schedule is preselected but
// not frozen, except under fallback where Full is frozen and the selector
// is skipped.
func NewState(b booking.Booking) State {
	s := State{Booking: b}
	s.applyResolution(payment.Resolve(b))
	return s
}

func (s *State) applyResolution(res payment.Resolution) {
	s.Resolution = res
	if res.Fallback {
		s.Phase = PhaseSelectingMethod
		s.Schedule = payment.ScheduleFull
		s.Amount = res.Amounts[payment.ScheduleFull]
		return
	}
	s.Phase = PhaseSelectingSchedule
	s.Schedule = res.Default
	s.Amount = decimal.Zero
}

// clearAttempt drops the live intent context. Attempt is kept so late
// results from the discarded intent stay stale.
func (s *State) clearAttempt() {
	s.Intent = nil
	s.Capture = nil
	s.Submitting = false
	s.RedirectURL = ""
}

// Transition applies ev to s and returns the next state plus the side
// effects the caller must run. It performs no I/O.
func Transition(s State, ev Event) (State, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}

	switch e := ev.(type) {
	case BookingRefreshed:
		return onBookingRefreshed(s, e)
	case ScheduleSelected:
		return onScheduleSelected(s, e)
	case ScheduleCleared:
		return onScheduleCleared(s)
	case MethodConfirmed:
		return onMethodConfirmed(s, e)
	case IntentCreated:
		return onIntentCreated(s, e)
	case IntentFailed:
		return onIntentFailed(s, e)
	case CaptureMounted:
		return onCaptureMounted(s, e)
	case CaptureUnavailable:
		return onCaptureUnavailable(s, e)
	case CaptureSubmitted:
		return onCaptureSubmitted(s, e)
	case CaptureReported:
		return onCaptureReported(s, e)
	case CaptureResolved:
		return onCaptureResolved(s, e)
	case MethodAttached:
		return onMethodAttached(s, e)
	case AttachFailed:
		return onAttachFailed(s, e)
	case Cancel:
		return onCancel(s)
	case Restart:
		return onRestart(s)
	case Dismiss:
		return onDismiss(s)
	}
	return s, nil
}

func onBookingRefreshed(s State, e BookingRefreshed) (State, []Effect) {
	res := payment.Resolve(e.Booking)
	s.Booking = e.Booking

	switch s.Phase {
	case PhaseSelectingSchedule:
		s.applyResolution(res)
		s.Err = nil
	case PhaseSelectingMethod:
		if amount, ok := res.Payable(s.Schedule); ok && amount.Equal(s.Amount) {
			s.Resolution = res
			return s, nil
		}
		// The frozen amount no longer matches the booking.
		s.applyResolution(res)
		s.Err = payment.NewError(payment.KindValidation, "BookingRefreshed",
			"The amount due changed. Please choose a payment schedule again.", nil)
	default:
		// An intent is live for the frozen amount; only the projection moves.
		s.Resolution = res
	}
	return s, nil
}

func onScheduleSelected(s State, e ScheduleSelected) (State, []Effect) {
	if s.Phase != PhaseSelectingSchedule && s.Phase != PhaseSelectingMethod {
		return s, nil
	}
	if s.Resolution.Fallback {
		return s, nil
	}

	amount, ok := s.Resolution.Payable(e.Schedule)
	if !ok {
		s.Err = payment.NewError(payment.KindValidation, "ScheduleSelected",
			"This payment schedule is not available for the booking.", nil)
		return s, nil
	}

	s.Phase = PhaseSelectingMethod
	s.Schedule = e.Schedule
	s.Amount = amount
	s.Err = nil
	return s, nil
}

func onScheduleCleared(s State) (State, []Effect) {
	if s.Phase != PhaseSelectingMethod || s.Resolution.Fallback {
		return s, nil
	}
	s.applyResolution(s.Resolution)
	s.Err = nil
	return s, nil
}

func onMethodConfirmed(s State, e MethodConfirmed) (State, []Effect) {
	if s.Phase != PhaseSelectingMethod {
		return s, nil
	}

	if _, ok := payment.LookupMethod(e.Method); !ok {
		s.Err = payment.NewError(payment.KindValidation, "MethodConfirmed",
			"Please choose a supported payment method.", payment.ErrUnknownMethod)
		return s, nil
	}
	if !s.Amount.IsPositive() {
		s.Err = payment.NewError(payment.KindValidation, "MethodConfirmed",
			"The amount to pay must be greater than zero.", nil)
		return s, nil
	}

	s.Attempt++
	s.Phase = PhaseCreatingIntent
	s.Method = e.Method
	s.Billing = e.Billing
	s.Err = nil
	s.clearAttempt()

	return s, []Effect{CreateIntentEffect{
		Attempt: s.Attempt,
		Amount:  s.Amount,
		Methods: []payment.MethodID{e.Method},
	}}
}

func onIntentCreated(s State, e IntentCreated) (State, []Effect) {
	if s.Phase != PhaseCreatingIntent || e.Attempt != s.Attempt || e.Intent == nil {
		return s, nil
	}

	s.Intent = e.Intent
	effects := []Effect{RecordAttemptEffect{
		IntentID: e.Intent.ID,
		Schedule: s.Schedule,
		Method:   s.Method,
		Amount:   s.Amount,
	}}

	if payment.IsDirect(s.Method) {
		s.Phase = PhaseMountingDirectForm
		return s, append(effects, MountCaptureEffect{Attempt: s.Attempt, Intent: *e.Intent})
	}

	s.Phase = PhaseAttachingMethod
	return s, append(effects, AttachMethodEffect{
		Attempt:  s.Attempt,
		IntentID: e.Intent.ID,
		Payload: payment.MethodPayload{
			Method:    s.Method,
			ClientKey: e.Intent.ClientKey,
			Billing:   s.Billing,
		},
	})
}

func onIntentFailed(s State, e IntentFailed) (State, []Effect) {
	if s.Phase != PhaseCreatingIntent || e.Attempt != s.Attempt {
		return s, nil
	}
	s.Phase = PhaseSelectingMethod
	s.clearAttempt()
	s.Err = asKind(e.Err, payment.KindGatewayCreate, "CreateIntent", "We could not start the payment. Please try again.")
	return s, nil
}

func onCaptureMounted(s State, e CaptureMounted) (State, []Effect) {
	if s.Phase != PhaseMountingDirectForm || e.Attempt != s.Attempt || e.Surface == nil {
		return s, nil
	}
	s.Capture = e.Surface
	return s, nil
}

func onCaptureUnavailable(s State, e CaptureUnavailable) (State, []Effect) {
	if s.Phase != PhaseMountingDirectForm || e.Attempt != s.Attempt {
		return s, nil
	}
	effects := discardIntent(s, "capture surface unavailable")
	s.Phase = PhaseSelectingMethod
	s.clearAttempt()
	s.Err = asKind(e.Err, payment.KindSdkUnavailable, "MountCapture", "The card form could not be loaded. Please choose another method or try again.")
	return s, effects
}

func onCaptureSubmitted(s State, e CaptureSubmitted) (State, []Effect) {
	if s.Phase != PhaseMountingDirectForm || e.Attempt != s.Attempt || s.Capture == nil || s.Submitting {
		return s, nil
	}
	if e.PaymentMethodID == "" {
		s.Err = payment.NewError(payment.KindValidation, "CaptureSubmitted", "Card details are missing.", nil)
		return s, nil
	}
	s.Submitting = true
	s.Err = nil
	return s, []Effect{AttachMethodEffect{
		Attempt:  s.Attempt,
		IntentID: s.Intent.ID,
		Payload: payment.MethodPayload{
			Method:          s.Method,
			PaymentMethodID: e.PaymentMethodID,
			ClientKey:       s.Intent.ClientKey,
			Billing:         s.Billing,
		},
	}}
}

// onCaptureReported accepts a reported failure and asks the shell to confirm
// anything else with the gateway. Nothing the browser says can complete the
// attempt on its own.
func onCaptureReported(s State, e CaptureReported) (State, []Effect) {
	if s.Phase != PhaseMountingDirectForm || e.Attempt != s.Attempt || s.Capture == nil || s.Submitting {
		return s, nil
	}
	if e.Err != nil {
		return onCaptureResolved(s, CaptureResolved{Attempt: e.Attempt, Err: e.Err})
	}
	s.Submitting = true
	s.Err = nil
	return s, []Effect{VerifyCaptureEffect{Attempt: s.Attempt, IntentID: s.Intent.ID}}
}

// onCaptureResolved handles the gateway's outcome for the card attempt. A rejected
// card fails the attempt rather than returning to method selection.
func onCaptureResolved(s State, e CaptureResolved) (State, []Effect) {
	if s.Phase != PhaseMountingDirectForm || e.Attempt != s.Attempt {
		return s, nil
	}
	s.Submitting = false
	if e.Err != nil || e.Outcome == nil {
		s.Phase = PhaseFailed
		s.Err = asKind(e.Err, payment.KindGatewayAttach, "CaptureResolved", "The card was not accepted.")
		return s, []Effect{RecordStatusEffect{
			IntentID: s.Intent.ID,
			Status:   payment.AttemptFailed,
			Reason:   reason(s.Err),
		}}
	}
	return resolveOutcome(s, *e.Outcome)
}

func onMethodAttached(s State, e MethodAttached) (State, []Effect) {
	if s.Phase != PhaseAttachingMethod || e.Attempt != s.Attempt || e.Outcome == nil {
		return s, nil
	}
	return resolveOutcome(s, *e.Outcome)
}

func onAttachFailed(s State, e AttachFailed) (State, []Effect) {
	if s.Phase != PhaseAttachingMethod || e.Attempt != s.Attempt {
		return s, nil
	}
	s.Err = asKind(e.Err, payment.KindGatewayAttach, "AttachMethod", "The payment method could not be used. Please try again.")
	effects := []Effect{RecordStatusEffect{
		IntentID: s.Intent.ID,
		Status:   payment.AttemptFailed,
		Reason:   reason(s.Err),
	}}
	s.Phase = PhaseSelectingMethod
	s.clearAttempt()
	return s, effects
}

func resolveOutcome(s State, out payment.AttachOutcome) (State, []Effect) {
	intentID := s.Intent.ID

	switch {
	case out.Status == payment.AttachSucceeded:
		s.Phase = PhaseSucceeded
		s.Err = nil
		s.Result = &payment.Result{
			IntentID:        intentID,
			PaymentID:       out.PaymentID,
			PaymentMethodID: out.PaymentMethodID,
			Method:          s.Method,
			Schedule:        s.Schedule,
			Amount:          s.Amount,
		}
		return s, []Effect{
			RecordStatusEffect{IntentID: intentID, Status: payment.AttemptSucceeded},
			NotifySuccessEffect{Result: *s.Result},
		}

	case out.Status == payment.AttachRequiresAction && out.RedirectURL != "":
		s.Phase = PhaseAwaitingRedirect
		s.RedirectURL = out.RedirectURL
		s.Err = nil
		return s, []Effect{
			RecordStatusEffect{IntentID: intentID, Status: payment.AttemptRequiresAction},
			NavigateEffect{URL: out.RedirectURL},
		}
	}

	s.Phase = PhaseFailed
	s.Err = payment.NewError(payment.KindAsyncFailure, "AttachMethod", out.Status, nil)
	return s, []Effect{RecordStatusEffect{
		IntentID: intentID,
		Status:   payment.AttemptFailed,
		Reason:   reason(s.Err),
	}}
}

func onCancel(s State) (State, []Effect) {
	if s.Phase == PhaseSelectingSchedule {
		return s, nil
	}
	effects := discardIntent(s, "cancelled by payer")
	s.Phase = PhaseSelectingMethod
	s.clearAttempt()
	s.Err = nil
	return s, effects
}

func onRestart(s State) (State, []Effect) {
	if s.Phase != PhaseFailed {
		return s, nil
	}
	s.Phase = PhaseSelectingMethod
	s.clearAttempt()
	s.Result = nil
	s.Err = nil
	return s, nil
}

func onDismiss(s State) (State, []Effect) {
	effects := discardIntent(s, "checkout closed")
	s.Phase = PhaseCancelled
	s.clearAttempt()
	return s, append(effects, NotifyCancelEffect{})
}

// discardIntent marks a still-open intent as cancelled in the ledger.
func discardIntent(s State, why string) []Effect {
	if s.Intent == nil || s.Phase == PhaseFailed {
		return nil
	}
	return []Effect{RecordStatusEffect{
		IntentID: s.Intent.ID,
		Status:   payment.AttemptCancelled,
		Reason:   &why,
	}}
}

// asKind keeps err when it already carries a payment Kind and otherwise
// wraps it as kind with a payer-facing message.
func asKind(err error, kind payment.Kind, op, message string) error {
	if err != nil && payment.KindOf(err) != "" {
		return err
	}
	return payment.NewError(kind, op, message, err)
}

func reason(err error) *string {
	if err == nil {
		return nil
	}
	msg := payment.UserMessage(err)
	return &msg
}
