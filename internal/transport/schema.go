package transport

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"bookpay-be/internal/checkout"
	"bookpay-be/internal/payment"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/event.json
var eventSchemaJSON string

var validate = validator.New()

// EventValidator checks event bodies against the checkout event schema.
type EventValidator struct {
	schema *gojsonschema.Schema
}

func NewEventValidator() (*EventValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("error compiling event schema: %w", err)
	}
	return &EventValidator{schema: schema}, nil
}

// Validate returns nil for a valid body, otherwise an error wrapping
// checkout.ErrInvalidEvent that lists every violation.
func (v *EventValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", checkout.ErrInvalidEvent, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", checkout.ErrInvalidEvent, strings.Join(msgs, "; "))
}

type eventRequest struct {
	Type            string           `json:"type"`
	Schedule        string           `json:"schedule,omitempty"`
	Method          string           `json:"method,omitempty"`
	Billing         *payment.Billing `json:"billing,omitempty"`
	Attempt         int              `json:"attempt,omitempty"`
	PaymentMethodID string           `json:"payment_method_id,omitempty"`
	Status          string           `json:"status,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// decodeEvent turns a validated body into a checkout event. Only events a
// payer may trigger are accepted; gateway results are produced internally.
func decodeEvent(body []byte) (checkout.Event, error) {
	var req eventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", checkout.ErrInvalidEvent, err)
	}

	switch req.Type {
	case "schedule_selected":
		return checkout.ScheduleSelected{Schedule: payment.ScheduleKind(req.Schedule)}, nil
	case "schedule_cleared":
		return checkout.ScheduleCleared{}, nil
	case "method_confirmed":
		if req.Billing != nil {
			if err := validate.Struct(req.Billing); err != nil {
				return nil, fmt.Errorf("%w: billing: %v", checkout.ErrInvalidEvent, err)
			}
		}
		return checkout.MethodConfirmed{Method: payment.MethodID(req.Method), Billing: req.Billing}, nil
	case "capture_submitted":
		return checkout.CaptureSubmitted{Attempt: req.Attempt, PaymentMethodID: req.PaymentMethodID}, nil
	case "capture_resolved":
		// Only the gateway can settle the attempt; the reported status is a hint.
		ev := checkout.CaptureReported{Attempt: req.Attempt, Status: payment.NormalizeStatus(req.Status)}
		if req.Error != "" {
			ev.Err = payment.NewError(payment.KindGatewayAttach, "CaptureReported", req.Error, nil)
		}
		return ev, nil
	case "cancel":
		return checkout.Cancel{}, nil
	case "restart":
		return checkout.Restart{}, nil
	case "dismiss":
		return checkout.Dismiss{}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", checkout.ErrInvalidEvent, req.Type)
}
