package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrAttemptNotFound = errors.New("payment attempt not found")

// Repository is the attempt ledger. It never touches the booking itself.
type Repository interface {
	SaveAttempt(ctx context.Context, a *Attempt) error
	UpdateAttemptStatus(ctx context.Context, intentID, status string, reason *string) error
	GetAttemptByIntent(ctx context.Context, intentID string) (*Attempt, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveAttempt(ctx context.Context, a *Attempt) error {
	const q = `
	INSERT INTO payment_attempts (
		session_id,
		booking_id,
		schedule,
		method,
		amount,
		intent_id,
		status
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at;
	`

	err := r.db.QueryRowContext(ctx, q,
		a.SessionID,
		a.BookingID,
		string(a.Schedule),
		string(a.Method),
		a.Amount,
		a.IntentID,
		a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save attempt for intent %s: %w", a.IntentID, err)
	}
	return nil
}

func (r *repository) UpdateAttemptStatus(ctx context.Context, intentID, status string, reason *string) error {
	const q = `
	UPDATE payment_attempts
	SET status = $1, failure_reason = $2, updated_at = now()
	WHERE intent_id = $3;
	`

	res, err := r.db.ExecContext(ctx, q, status, reason, intentID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *repository) GetAttemptByIntent(ctx context.Context, intentID string) (*Attempt, error) {
	const q = `
	SELECT id, session_id, booking_id, schedule, method, amount, intent_id, status, failure_reason, created_at, updated_at
	FROM payment_attempts
	WHERE intent_id = $1;
	`

	var (
		a        Attempt
		schedule string
		method   string
		reason   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, intentID).Scan(
		&a.ID, &a.SessionID, &a.BookingID, &schedule, &method,
		&a.Amount, &a.IntentID, &a.Status, &reason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	a.Schedule = ScheduleKind(schedule)
	a.Method = MethodID(method)
	if reason.Valid {
		a.FailureReason = &reason.String
	}
	return &a, nil
}
