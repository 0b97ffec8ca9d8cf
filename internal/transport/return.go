package transport

import (
	"errors"
	"net/http"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/logger"
	"bookpay-be/internal/payment"
	"bookpay-be/internal/utils"

	"go.uber.org/zap"
)

type returnResponse struct {
	IntentID      string               `json:"intent_id"`
	Status        string               `json:"status"`
	PaymentID     string               `json:"payment_id,omitempty"`
	BookingID     string               `json:"booking_id,omitempty"`
	Schedule      payment.ScheduleKind `json:"schedule,omitempty"`
	Amount        string               `json:"amount,omitempty"`
	AmountDisplay string               `json:"amount_display,omitempty"`
	Message       string               `json:"message,omitempty"`
}

// PaymentReturn serves the page the gateway redirects back to. The checkout
// session ended at navigation, so the outcome is read from the gateway and
// recorded in the ledger rather than fed back into the session.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	intentID := q.Get("payment_intent_id")
	if intentID == "" {
		utils.WriteJSONError(w, "payment_intent_id is required", http.StatusBadRequest)
		return
	}
	if sessionID := q.Get("session_id"); sessionID != "" {
		ctx = logger.WithSessionID(ctx, sessionID)
	}
	log := logger.FromCtx(ctx).With(zap.String("intent_id", intentID))

	// Ownership comes from the ledger; without it no caller can be checked.
	if h.ledger == nil {
		log.Error("Payment return served without a ledger")
		utils.WriteJSONError(w, "payment lookup unavailable", http.StatusServiceUnavailable)
		return
	}
	attempt, err := h.ledger.GetAttemptByIntent(ctx, intentID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	b, err := h.bookings.GetBooking(ctx, attempt.BookingID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := authorize(ctx, b.ClientID, booking.ErrForbidden); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	st, err := h.retriever.RetrieveIntent(ctx, intentID)
	if err != nil {
		log.Error("Failed to retrieve intent after redirect", zap.Error(err))
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "could not confirm the payment status", http.StatusBadGateway)
		return
	}

	resp := returnResponse{IntentID: st.ID, Status: st.Status, PaymentID: st.PaymentID}

	ledgerStatus, reason := attemptStatusFor(st)
	switch ledgerStatus {
	case payment.AttemptSucceeded:
		resp.Message = "Payment received. Thank you!"
	case payment.AttemptFailed:
		resp.Message = reason
	default:
		resp.Message = "Your payment is still being processed."
	}

	resp.BookingID = attempt.BookingID
	resp.Schedule = attempt.Schedule
	resp.Amount = attempt.Amount.StringFixed(2)
	resp.AmountDisplay = utils.FormatPeso(attempt.Amount)

	if ledgerStatus != "" && ledgerStatus != attempt.Status {
		var why *string
		if reason != "" {
			why = utils.StrPtr(reason)
		}
		if err := h.ledger.UpdateAttemptStatus(ctx, intentID, ledgerStatus, why); err != nil {
			log.Error("Failed to record redirect outcome", zap.Error(err))
		}
	}

	log.Info("Payment return handled", zap.String("status", st.Status))
	utils.WriteJSON(w, http.StatusOK, resp)
}

// attemptStatusFor maps a gateway status onto a ledger status. An empty
// result means the outcome is not final yet.
func attemptStatusFor(st *payment.IntentStatus) (string, string) {
	switch st.Status {
	case payment.AttachSucceeded:
		return payment.AttemptSucceeded, ""
	case payment.IntentAwaitingPaymentMethod:
		reason := st.LastError
		if reason == "" {
			reason = "The payment was not completed. Please try again."
		}
		return payment.AttemptFailed, reason
	}
	return "", ""
}
