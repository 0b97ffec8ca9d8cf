package checkout

import (
	"testing"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func depositBooking() booking.Booking {
	return booking.Booking{
		ID:            "bk-1",
		ClientID:      "client-1",
		TotalAmount:   dec("10000"),
		DepositAmount: decimal.NewNullDecimal(dec("3000")),
		TotalPaid:     decimal.Zero,
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentUnpaid,
	}
}

func remainingBooking() booking.Booking {
	return booking.Booking{
		ID:            "bk-2",
		ClientID:      "client-1",
		TotalAmount:   dec("10000"),
		TotalPaid:     dec("3000"),
		Status:        booking.StatusConfirmed,
		PaymentStatus: booking.PaymentPartial,
	}
}

// fallbackBooking has nothing eligible but an unpaid total.
func fallbackBooking() booking.Booking {
	return booking.Booking{
		ID:            "bk-3",
		ClientID:      "client-1",
		TotalAmount:   dec("5000"),
		TotalPaid:     decimal.Zero,
		Status:        booking.StatusCompleted,
		PaymentStatus: booking.PaymentPaid,
	}
}

func testIntent(id string) *payment.Intent {
	return &payment.Intent{
		ID:        id,
		ClientKey: id + "_client_key",
		Amount:    dec("3000"),
		Currency:  "PHP",
	}
}

func step(s State, ev Event) (State, []Effect) {
	return Transition(s, ev)
}

// confirmed drives a deposit session to CreatingIntent for method.
func confirmed(t *testing.T, method payment.MethodID) State {
	t.Helper()
	s := NewState(depositBooking())
	s, _ = step(s, ScheduleSelected{Schedule: payment.ScheduleDeposit})
	s, effects := step(s, MethodConfirmed{Method: method})
	require.Equal(t, PhaseCreatingIntent, s.Phase)
	require.Len(t, effects, 1)
	return s
}

// created drives a deposit session past intent creation.
func created(t *testing.T, method payment.MethodID) State {
	t.Helper()
	s := confirmed(t, method)
	s, _ = step(s, IntentCreated{Attempt: s.Attempt, Intent: testIntent("pi_1")})
	return s
}

func effectsOf[T Effect](effects []Effect) []T {
	var out []T
	for _, e := range effects {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
