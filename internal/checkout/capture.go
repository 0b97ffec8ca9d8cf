package checkout

import (
	"context"

	"bookpay-be/internal/payment"
)

// CaptureSurface is the handle the page needs to render the in-page card
// form for one attempt. ClientKey authorizes the form against the intent.
type CaptureSurface struct {
	Attempt   int    `json:"attempt"`
	IntentID  string `json:"intent_id"`
	ClientKey string `json:"client_key"`
	PublicKey string `json:"public_key"`
}

// CaptureProvider initializes capture surfaces.
type CaptureProvider interface {
	Mount(ctx context.Context, attempt int, intent payment.Intent) (*CaptureSurface, error)
}

type captureProvider struct {
	publicKey string
}

// NewCaptureProvider returns a provider for the gateway's hosted card form.
// Without a public key every mount fails with SdkUnavailableError.
func NewCaptureProvider(publicKey string) CaptureProvider {
	return &captureProvider{publicKey: publicKey}
}

func (p *captureProvider) Mount(ctx context.Context, attempt int, intent payment.Intent) (*CaptureSurface, error) {
	if p.publicKey == "" {
		return nil, payment.NewError(payment.KindSdkUnavailable, "MountCapture",
			"The card form is not available right now.", nil)
	}
	if intent.ClientKey == "" {
		return nil, payment.NewError(payment.KindSdkUnavailable, "MountCapture",
			"The card form could not be bound to this payment.", nil)
	}
	return &CaptureSurface{
		Attempt:   attempt,
		IntentID:  intent.ID,
		ClientKey: intent.ClientKey,
		PublicKey: p.publicKey,
	}, nil
}
