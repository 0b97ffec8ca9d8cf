package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("IsMatchesKind", func(t *testing.T) {
		err := NewError(KindGatewayCreate, "CreateIntent", "Could not start the payment.", cause)
		wrapped := fmt.Errorf("confirm: %w", err)

		assert.ErrorIs(t, wrapped, ErrGatewayCreate)
		assert.NotErrorIs(t, wrapped, ErrGatewayAttach)
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("Message", func(t *testing.T) {
		err := NewError(KindAsyncFailure, "", "processing", nil)
		assert.Equal(t, "GatewayAsyncFailure: processing", err.Error())

		err = NewError(KindGatewayAttach, "AttachMethod", "", cause)
		assert.Equal(t, "GatewayAttachError: AttachMethod: connection reset", err.Error())
	})

	t.Run("UserMessage", func(t *testing.T) {
		assert.Equal(t, "Amount must be greater than zero.",
			UserMessage(NewError(KindValidation, "Confirm", "Amount must be greater than zero.", nil)))
		assert.Equal(t, "connection reset", UserMessage(NewError(KindGatewayCreate, "", "", cause)))
		assert.Equal(t, "SdkUnavailableError", UserMessage(ErrSdkUnavailable))
		assert.Equal(t, "plain", UserMessage(errors.New("plain")))
		assert.Empty(t, UserMessage(nil))
	})

	t.Run("KindOf", func(t *testing.T) {
		assert.Equal(t, KindValidation, KindOf(fmt.Errorf("x: %w", ErrValidation)))
		assert.Equal(t, Kind(""), KindOf(cause))
	})
}
