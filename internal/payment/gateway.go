package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// IntentClient is the boundary to the payment gateway used by the checkout flow.
type IntentClient interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, methods []MethodID) (*Intent, error)
	AttachMethod(ctx context.Context, intentID string, p MethodPayload) (*AttachOutcome, error)
}

// IntentStatus is the gateway's current view of an intent, used to confirm
// outcomes the browser reports and after the payer returns from a redirect.
type IntentStatus struct {
	ID              string
	Status          string
	Amount          decimal.Decimal
	PaymentID       string
	PaymentMethodID string
	RedirectURL     string
	LastError       string
}

type Gateway interface {
	IntentClient
	RetrieveIntent(ctx context.Context, intentID string) (*IntentStatus, error)
}
