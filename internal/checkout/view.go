package checkout

import (
	"bookpay-be/internal/payment"
	"bookpay-be/internal/utils"
)

type ViewKind string

const (
	ViewSelection       ViewKind = "selection"
	ViewDirectCapture   ViewKind = "direct_capture"
	ViewRedirectWaiting ViewKind = "redirect_waiting"
	ViewSucceeded       ViewKind = "succeeded"
	ViewFailed          ViewKind = "failed"
	ViewClosed          ViewKind = "closed"
)

var scheduleLabels = map[payment.ScheduleKind]string{
	payment.ScheduleDeposit:   "Pay deposit",
	payment.ScheduleRemaining: "Pay remaining balance",
	payment.ScheduleFull:      "Pay in full",
}

type ScheduleOption struct {
	Kind          payment.ScheduleKind `json:"kind"`
	Label         string               `json:"label"`
	Amount        string               `json:"amount"`
	AmountDisplay string               `json:"amount_display"`
	Default       bool                 `json:"default"`
}

type MethodOption struct {
	ID           payment.MethodID `json:"id"`
	Mode         payment.Mode     `json:"mode"`
	Label        string           `json:"label"`
	Instructions []string         `json:"instructions,omitempty"`
}

type ErrorView struct {
	Kind    payment.Kind `json:"kind,omitempty"`
	Message string       `json:"message"`
}

// View is what the page renders for a session.
type View struct {
	Kind      ViewKind `json:"view"`
	Phase     Phase    `json:"phase"`
	SessionID string   `json:"session_id,omitempty"`
	BookingID string   `json:"booking_id"`

	ShowScheduleSelector bool                 `json:"show_schedule_selector"`
	Schedules            []ScheduleOption     `json:"schedules,omitempty"`
	Schedule             payment.ScheduleKind `json:"schedule,omitempty"`
	Amount               string               `json:"amount,omitempty"`
	AmountDisplay        string               `json:"amount_display,omitempty"`

	Methods []MethodOption   `json:"methods,omitempty"`
	Method  payment.MethodID `json:"method,omitempty"`

	// Busy disables submission while a gateway call is in flight.
	Busy bool `json:"busy"`
	// Blocked is set when nothing can be paid for this booking.
	Blocked bool `json:"blocked"`

	Attempt     int             `json:"attempt"`
	Capture     *CaptureSurface `json:"capture,omitempty"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	Result      *payment.Result `json:"result,omitempty"`
	Error       *ErrorView      `json:"error,omitempty"`
}

// Project maps a state onto the view to render.
func Project(s State) View {
	v := View{
		Kind:      viewKind(s.Phase),
		Phase:     s.Phase,
		BookingID: s.Booking.ID,
		Schedule:  s.Schedule,
		Method:    s.Method,
		Attempt:   s.Attempt,
		Busy:      s.Phase.Busy() || s.Submitting,
		Result:    s.Result,
	}

	if s.Err != nil {
		v.Error = &ErrorView{Kind: payment.KindOf(s.Err), Message: payment.UserMessage(s.Err)}
	}

	switch v.Kind {
	case ViewSelection:
		v.ShowScheduleSelector = s.Resolution.ShowSelector()
		v.Blocked = !s.Resolution.ShowSelector() && !s.Resolution.Fallback
		for _, kind := range s.Resolution.Eligible {
			amount := s.Resolution.Amounts[kind]
			v.Schedules = append(v.Schedules, ScheduleOption{
				Kind:          kind,
				Label:         scheduleLabels[kind],
				Amount:        amount.StringFixed(2),
				AmountDisplay: utils.FormatPeso(amount),
				Default:       kind == s.Resolution.Default,
			})
		}
		if s.Phase != PhaseSelectingSchedule {
			v.Methods = methodOptions(s)
		}
	case ViewDirectCapture:
		v.Capture = s.Capture
	case ViewRedirectWaiting:
		v.RedirectURL = s.RedirectURL
	}

	if s.Amount.IsPositive() {
		v.Amount = s.Amount.StringFixed(2)
		v.AmountDisplay = utils.FormatPeso(s.Amount)
	}
	return v
}

func viewKind(p Phase) ViewKind {
	switch p {
	case PhaseMountingDirectForm:
		return ViewDirectCapture
	case PhaseAwaitingRedirect:
		return ViewRedirectWaiting
	case PhaseSucceeded:
		return ViewSucceeded
	case PhaseFailed:
		return ViewFailed
	case PhaseCancelled:
		return ViewClosed
	}
	return ViewSelection
}

func methodOptions(s State) []MethodOption {
	vars := payment.InstructionVars{"amount": utils.FormatPeso(s.Amount)}

	methods := payment.Methods()
	out := make([]MethodOption, 0, len(methods))
	for _, m := range methods {
		out = append(out, MethodOption{
			ID:           m.ID,
			Mode:         m.Mode,
			Label:        m.Label,
			Instructions: payment.InjectVariables(payment.GetInstructions(m.ID), vars),
		})
	}
	return out
}
