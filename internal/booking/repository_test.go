package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingColumns = []string{
	"id", "client_id", "total_amount", "deposit_amount", "total_paid",
	"booking_status", "payment_status", "updated_at",
}

func TestRepository_GetBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(bookingColumns).
			AddRow("bk-1", "cl-1", "10000.00", "3000.00", "0", "pending", "unpaid", time.Now())
		mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
			WithArgs("bk-1").
			WillReturnRows(rows)

		b, err := repo.GetBooking(ctx, "bk-1")
		require.NoError(t, err)
		assert.Equal(t, "bk-1", b.ID)
		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, PaymentUnpaid, b.PaymentStatus)
		assert.True(t, b.DepositAmount.Valid)
		assert.Equal(t, "3000", b.Deposit().String())
	})

	t.Run("NullDeposit", func(t *testing.T) {
		rows := sqlmock.NewRows(bookingColumns).
			AddRow("bk-2", "cl-1", "10000.00", nil, "3000.00", "confirmed", "partial", time.Now())
		mock.ExpectQuery(`SELECT .* FROM bookings`).
			WithArgs("bk-2").
			WillReturnRows(rows)

		b, err := repo.GetBooking(ctx, "bk-2")
		require.NoError(t, err)
		assert.False(t, b.DepositAmount.Valid)
		assert.Equal(t, "7000", b.RemainingBalance().String())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM bookings`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		b, err := repo.GetBooking(ctx, "missing")
		assert.Nil(t, b)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		rows := sqlmock.NewRows(bookingColumns).
			AddRow("bk-3", "cl-1", "100", nil, "0", "archived", "unpaid", time.Now())
		mock.ExpectQuery(`SELECT .* FROM bookings`).
			WithArgs("bk-3").
			WillReturnRows(rows)

		_, err := repo.GetBooking(ctx, "bk-3")
		assert.ErrorIs(t, err, ErrInvalidBooking)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM bookings`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetBooking(ctx, "bk-1")
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
