package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Reader is the read-only accessor the payment core consumes.
type Reader interface {
	GetBooking(ctx context.Context, id string) (*Booking, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Reader {
	return &repository{db: db}
}

func (r *repository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, total_amount, deposit_amount, total_paid,
		       booking_status, payment_status, updated_at
		FROM bookings WHERE id = $1
	`, id)

	var b Booking
	err := row.Scan(
		&b.ID, &b.ClientID, &b.TotalAmount, &b.DepositAmount, &b.TotalPaid,
		&b.Status, &b.PaymentStatus, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !b.Status.Valid() || !b.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: status=%q payment_status=%q", ErrInvalidBooking, b.Status, b.PaymentStatus)
	}
	if b.TotalAmount.IsNegative() || b.TotalPaid.IsNegative() {
		return nil, fmt.Errorf("%w: negative amounts", ErrInvalidBooking)
	}

	return &b, nil
}
