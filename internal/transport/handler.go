package transport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/checkout"
	"bookpay-be/internal/logger"
	"bookpay-be/internal/payment"
	"bookpay-be/internal/utils"

	"go.uber.org/zap"
)

const maxEventBody = 16 << 10

var errUnauthenticated = errors.New("authentication required")

// IntentRetriever reads an intent's current status from the gateway.
type IntentRetriever interface {
	RetrieveIntent(ctx context.Context, intentID string) (*payment.IntentStatus, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	bookings  booking.Reader
	store     *checkout.Store
	retriever IntentRetriever
	ledger    payment.Repository
	validator *EventValidator
	db        Pinger
}

type HandlerDeps struct {
	Bookings  booking.Reader
	Store     *checkout.Store
	Retriever IntentRetriever
	Ledger    payment.Repository
	Validator *EventValidator
	DB        Pinger
}

func NewHandler(d HandlerDeps) *Handler {
	return &Handler{
		bookings:  d.Bookings,
		store:     d.Store,
		retriever: d.Retriever,
		ledger:    d.Ledger,
		validator: d.Validator,
		db:        d.DB,
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /bookings/{bookingID}/payment-sessions", h.CreateSession)
	mux.HandleFunc("GET /payment-sessions/{sessionID}", h.GetSession)
	mux.HandleFunc("POST /payment-sessions/{sessionID}/events", h.PostEvent)
	mux.HandleFunc("GET /payments/return", h.PaymentReturn)
	mux.HandleFunc("GET /health", h.Health)
}

type sessionResponse struct {
	checkout.View
	NavigateTo string `json:"navigate_to,omitempty"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookingID := r.PathValue("bookingID")

	b, err := h.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := authorize(ctx, b.ClientID, booking.ErrForbidden); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	orch := h.store.Create(b.ClientID, *b)
	logger.FromCtx(logger.WithSessionID(ctx, orch.ID())).Info("Checkout session created",
		zap.String("booking_id", b.ID),
	)

	utils.WriteJSON(w, http.StatusCreated, h.render(orch, orch.State(), ""))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orch, err := h.session(ctx, r.PathValue("sessionID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	st := orch.State()
	if !st.Phase.Terminal() {
		st = h.refresh(ctx, orch, st.Booking.ID)
	}
	utils.WriteJSON(w, http.StatusOK, h.render(orch, st, ""))
}

func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orch, err := h.session(ctx, r.PathValue("sessionID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		utils.WriteJSONError(w, "could not read request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.Validate(body); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	ev, err := decodeEvent(body)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	ctx, nav := withNavigation(ctx)
	st := orch.Dispatch(ctx, ev)

	if _, ok := ev.(checkout.Dismiss); ok {
		h.store.Delete(orch.ID())
	}
	utils.WriteJSON(w, http.StatusOK, h.render(orch, st, nav.URL()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			logger.FromCtx(r.Context()).Error("Health check failed", zap.Error(err))
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session loads a session and checks the caller owns it.
func (h *Handler) session(ctx context.Context, id string) (*checkout.Orchestrator, error) {
	orch, err := h.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, orch.ClientID(), checkout.ErrForbidden); err != nil {
		return nil, err
	}
	return orch, nil
}

// refresh re-reads the booking so the session re-resolves its amounts. A
// failed read keeps the current projection.
func (h *Handler) refresh(ctx context.Context, orch *checkout.Orchestrator, bookingID string) checkout.State {
	b, err := h.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		logger.FromCtx(ctx).Warn("Booking refresh failed", zap.String("booking_id", bookingID), zap.Error(err))
		return orch.State()
	}
	return orch.Dispatch(ctx, checkout.BookingRefreshed{Booking: *b})
}

func (h *Handler) render(orch *checkout.Orchestrator, st checkout.State, navigateTo string) sessionResponse {
	v := checkout.Project(st)
	v.SessionID = orch.ID()
	return sessionResponse{View: v, NavigateTo: navigateTo}
}

// authorize admits internal callers and the owning client; anyone else gets
// forbidden.
func authorize(ctx context.Context, ownerID string, forbidden error) error {
	if utils.IsInternalRequest(ctx) {
		return nil
	}
	clientID, ok := utils.GetClientIDFromContext(ctx)
	if !ok {
		return errUnauthenticated
	}
	if clientID != ownerID {
		return forbidden
	}
	return nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnauthenticated):
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, checkout.ErrForbidden), errors.Is(err, booking.ErrForbidden):
		utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, payment.ErrAttemptNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrInvalidEvent):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.FromCtx(ctx).Error("Request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
