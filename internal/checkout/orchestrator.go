package checkout

import (
	"context"
	"fmt"
	"sync"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/logger"
	"bookpay-be/internal/metrics"
	"bookpay-be/internal/payment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("checkout")

// Navigator sends the payer to an external page. From the orchestrator's
// point of view the call does not return control to the session.
type Navigator interface {
	NavigateTo(ctx context.Context, url string) error
}

// IntentVerifier reads an intent's current status from the gateway.
type IntentVerifier interface {
	RetrieveIntent(ctx context.Context, intentID string) (*payment.IntentStatus, error)
}

type Callbacks struct {
	// OnSuccess runs exactly once, when the session reaches Succeeded.
	OnSuccess func(ctx context.Context, bookingID string, result payment.Result)
	// OnCancel runs when the payer closes the checkout.
	OnCancel func(ctx context.Context, bookingID string)
}

// Deps are the collaborators shared by every session. Ledger and Metrics
// are optional. Without a Verifier, browser-reported card outcomes fail.
type Deps struct {
	Client    payment.IntentClient
	Verifier  IntentVerifier
	Capture   CaptureProvider
	Navigator Navigator
	Ledger    payment.Repository
	Metrics   *metrics.Checkout
	Callbacks Callbacks
}

// Orchestrator drives one checkout session. Dispatch is safe for concurrent
// use; the lock is never held across a gateway call, and events arriving
// while a call is in flight see a busy phase and are ignored.
type Orchestrator struct {
	id       string
	clientID string
	deps     Deps

	mu    sync.Mutex
	state State

	successOnce sync.Once
}

func NewOrchestrator(id, clientID string, b booking.Booking, deps Deps) *Orchestrator {
	return &Orchestrator{
		id:       id,
		clientID: clientID,
		deps:     deps,
		state:    NewState(b),
	}
}

func (o *Orchestrator) ID() string       { return o.id }
func (o *Orchestrator) ClientID() string { return o.clientID }

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Dispatch applies ev and runs every effect it produces, including the
// follow-up events those effects report, then returns the settled state.
func (o *Orchestrator) Dispatch(ctx context.Context, ev Event) State {
	ctx = logger.WithSessionID(ctx, o.id)
	ctx, span := tracer.Start(ctx, "Checkout.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.session_id", o.id),
		attribute.String("checkout.event", EventName(ev)),
	)

	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		for _, eff := range o.apply(ctx, next) {
			if follow := o.run(ctx, eff); follow != nil {
				queue = append(queue, follow)
			}
		}
	}

	st := o.State()
	span.SetAttributes(attribute.String("checkout.phase", string(st.Phase)))
	if st.Err != nil {
		span.SetStatus(codes.Error, string(payment.KindOf(st.Err)))
	}
	return st
}

func (o *Orchestrator) apply(ctx context.Context, ev Event) []Effect {
	o.mu.Lock()
	from := o.state.Phase
	next, effects := Transition(o.state, ev)
	o.state = next
	o.mu.Unlock()

	log := logger.FromCtx(ctx)
	if from == next.Phase && len(effects) == 0 {
		log.Debug("Checkout event had no effect",
			zap.String("event", EventName(ev)),
			zap.String("phase", string(from)),
		)
		return nil
	}

	if from != next.Phase {
		log.Info("Checkout transition",
			zap.String("event", EventName(ev)),
			zap.String("from", string(from)),
			zap.String("to", string(next.Phase)),
			zap.Int("attempt", next.Attempt),
		)
		if m := o.deps.Metrics; m != nil {
			m.Transitions.WithLabelValues(string(from), string(next.Phase)).Inc()
		}
	}
	return effects
}

// run executes one effect and returns the event reporting its result, if any.
func (o *Orchestrator) run(ctx context.Context, eff Effect) Event {
	log := logger.FromCtx(ctx)

	switch e := eff.(type) {
	case CreateIntentEffect:
		return o.createIntent(ctx, e)

	case MountCaptureEffect:
		if o.deps.Capture == nil {
			return CaptureUnavailable{Attempt: e.Attempt, Err: payment.ErrSdkUnavailable}
		}
		surface, err := o.deps.Capture.Mount(ctx, e.Attempt, e.Intent)
		if err != nil {
			log.Warn("Capture surface unavailable", zap.Error(err))
			return CaptureUnavailable{Attempt: e.Attempt, Err: err}
		}
		return CaptureMounted{Attempt: e.Attempt, Surface: surface}

	case AttachMethodEffect:
		return o.attachMethod(ctx, e)

	case VerifyCaptureEffect:
		return o.verifyCapture(ctx, e)

	case NavigateEffect:
		if o.deps.Navigator == nil {
			log.Error("No navigator configured for redirect", zap.String("url", e.URL))
			return nil
		}
		if err := o.deps.Navigator.NavigateTo(ctx, e.URL); err != nil {
			log.Error("Navigation failed", zap.Error(err))
		}

	case NotifySuccessEffect:
		o.successOnce.Do(func() {
			log.Info("Payment succeeded",
				zap.String("intent_id", e.Result.IntentID),
				zap.String("schedule", string(e.Result.Schedule)),
				zap.String("amount", e.Result.Amount.StringFixed(2)),
			)
			if cb := o.deps.Callbacks.OnSuccess; cb != nil {
				cb(ctx, o.bookingID(), e.Result)
			}
		})

	case NotifyCancelEffect:
		if cb := o.deps.Callbacks.OnCancel; cb != nil {
			cb(ctx, o.bookingID())
		}

	case RecordAttemptEffect:
		if o.deps.Ledger == nil {
			return nil
		}
		a := &payment.Attempt{
			SessionID: o.id,
			BookingID: o.bookingID(),
			Schedule:  e.Schedule,
			Method:    e.Method,
			Amount:    e.Amount,
			IntentID:  e.IntentID,
			Status:    payment.AttemptCreated,
		}
		if err := o.deps.Ledger.SaveAttempt(ctx, a); err != nil {
			log.Error("Failed to record payment attempt", zap.String("intent_id", e.IntentID), zap.Error(err))
		}

	case RecordStatusEffect:
		if o.deps.Ledger == nil {
			return nil
		}
		if err := o.deps.Ledger.UpdateAttemptStatus(ctx, e.IntentID, e.Status, e.Reason); err != nil {
			log.Error("Failed to update payment attempt",
				zap.String("intent_id", e.IntentID),
				zap.String("status", e.Status),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (o *Orchestrator) createIntent(ctx context.Context, e CreateIntentEffect) Event {
	ctx, span := tracer.Start(ctx, "Gateway.CreateIntent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	timer := metrics.StartTimer()
	intent, err := o.deps.Client.CreateIntent(ctx, e.Amount, e.Methods)
	o.deps.Metrics.ObserveGateway("create_intent", timer, err)
	endGatewaySpan(span, err)

	if err != nil {
		logger.FromCtx(ctx).Warn("Intent creation failed", zap.Int("attempt", e.Attempt), zap.Error(err))
		return IntentFailed{Attempt: e.Attempt, Err: err}
	}

	if m := o.deps.Metrics; m != nil {
		st := o.State()
		m.IntentsCreated.WithLabelValues(string(st.Schedule), string(st.Method)).Inc()
	}
	return IntentCreated{Attempt: e.Attempt, Intent: intent}
}

func (o *Orchestrator) attachMethod(ctx context.Context, e AttachMethodEffect) Event {
	ctx, span := tracer.Start(ctx, "Gateway.AttachMethod",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.method", string(e.Payload.Method))),
	)
	defer span.End()

	timer := metrics.StartTimer()
	out, err := o.deps.Client.AttachMethod(ctx, e.IntentID, e.Payload)
	o.deps.Metrics.ObserveGateway("attach_method", timer, err)
	endGatewaySpan(span, err)

	if m := o.deps.Metrics; m != nil {
		status := "error"
		if err == nil {
			status = out.Status
		}
		m.AttachOutcomes.WithLabelValues(string(e.Payload.Method), status).Inc()
	}

	if payment.IsDirect(e.Payload.Method) {
		return CaptureResolved{Attempt: e.Attempt, Outcome: out, Err: err}
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("Method attach failed", zap.Int("attempt", e.Attempt), zap.Error(err))
		return AttachFailed{Attempt: e.Attempt, Err: err}
	}
	return MethodAttached{Attempt: e.Attempt, Outcome: out}
}

func (o *Orchestrator) verifyCapture(ctx context.Context, e VerifyCaptureEffect) Event {
	unconfirmed := func(err error) Event {
		return CaptureResolved{Attempt: e.Attempt, Err: payment.NewError(payment.KindGatewayAttach,
			"VerifyCapture", "The card payment could not be confirmed.", err)}
	}
	if o.deps.Verifier == nil {
		logger.FromCtx(ctx).Error("No verifier configured for card outcomes", zap.String("intent_id", e.IntentID))
		return unconfirmed(nil)
	}

	ctx, span := tracer.Start(ctx, "Gateway.RetrieveIntent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	timer := metrics.StartTimer()
	st, err := o.deps.Verifier.RetrieveIntent(ctx, e.IntentID)
	o.deps.Metrics.ObserveGateway("retrieve_intent", timer, err)
	endGatewaySpan(span, err)

	if err != nil {
		logger.FromCtx(ctx).Warn("Card outcome verification failed", zap.Int("attempt", e.Attempt), zap.Error(err))
		return unconfirmed(err)
	}
	if st.ID != "" && st.ID != e.IntentID {
		return unconfirmed(fmt.Errorf("gateway returned intent %q", st.ID))
	}
	out, err := verifiedOutcome(st)
	return CaptureResolved{Attempt: e.Attempt, Outcome: out, Err: err}
}

// verifiedOutcome maps the intent as the gateway sees it onto an attach
// outcome. An intent still waiting for a method was never paid.
func verifiedOutcome(st *payment.IntentStatus) (*payment.AttachOutcome, error) {
	if st.Status == payment.IntentAwaitingPaymentMethod {
		msg := st.LastError
		if msg == "" {
			msg = "The card payment was not completed."
		}
		return nil, payment.NewError(payment.KindGatewayAttach, "VerifyCapture", msg, nil)
	}
	return &payment.AttachOutcome{
		Status:          st.Status,
		RedirectURL:     st.RedirectURL,
		PaymentID:       st.PaymentID,
		PaymentMethodID: st.PaymentMethodID,
	}, nil
}

func endGatewaySpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(payment.KindOf(err)))
	}
}

func (o *Orchestrator) bookingID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Booking.ID
}
