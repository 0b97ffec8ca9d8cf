package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestGateway() *paymongoGateway {
	return NewPayMongoGateway(PayMongoConfig{
		SecretKey: "sk_test_secret",
		BaseURL:   "https://api.paymongo.test/",
		ReturnURL: "https://app.example/payments/return",
	}).(*paymongoGateway)
}

func decodeAttributes(t *testing.T, req *http.Request) map[string]interface{} {
	t.Helper()
	var body struct {
		Data struct {
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
	return body.Data.Attributes
}

func TestPayMongoGateway_CreateIntent(t *testing.T) {
	gw := newTestGateway()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		respBody := `{
			"data": {
				"id": "pi_123",
				"attributes": {
					"amount": 300000,
					"currency": "PHP",
					"client_key": "pi_123_client_abc",
					"status": "awaiting_payment_method"
				}
			}
		}`

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, "https://api.paymongo.test/v1/payment_intents", req.URL.String())
			assert.NotEmpty(t, req.Header.Get(idempotencyHeader))

			user, _, ok := req.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "sk_test_secret", user)

			attrs := decodeAttributes(t, req)
			assert.EqualValues(t, 300000, attrs["amount"])
			assert.Equal(t, "PHP", attrs["currency"])
			assert.Equal(t, []interface{}{"card"}, attrs["payment_method_allowed"])

			return jsonResponse(http.StatusOK, respBody)
		})

		intent, err := gw.CreateIntent(ctx, decimal.RequireFromString("3000"), []MethodID{MethodCard})
		require.NoError(t, err)
		assert.Equal(t, "pi_123", intent.ID)
		assert.Equal(t, "pi_123_client_abc", intent.ClientKey)
		assert.Equal(t, "3000", intent.Amount.String())
		assert.Equal(t, []MethodID{MethodCard}, intent.Methods)
	})

	t.Run("RoundsToCentavos", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			attrs := decodeAttributes(t, req)
			assert.EqualValues(t, 123457, attrs["amount"])
			return jsonResponse(http.StatusOK, `{"data":{"id":"pi_r","attributes":{"amount":123457}}}`)
		})

		_, err := gw.CreateIntent(ctx, decimal.RequireFromString("1234.565"), []MethodID{MethodGCash})
		assert.NoError(t, err)
	})

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			t.Fatal("gateway must not be called")
			return nil
		})

		_, err := gw.CreateIntent(ctx, decimal.Zero, []MethodID{MethodCard})
		assert.Error(t, err)
	})

	t.Run("APIError", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest, `{"errors":[{"code":"parameter_below_minimum","detail":"amount cannot be less than 2000."}]}`)
		})

		_, err := gw.CreateIntent(ctx, decimal.RequireFromString("10"), []MethodID{MethodCard})
		require.Error(t, err)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "parameter_below_minimum", apiErr.Code)
		assert.Contains(t, err.Error(), "amount cannot be less than 2000.")
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := gw.CreateIntent(ctx, decimal.RequireFromString("3000"), []MethodID{MethodCard})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{invalid-json`)
		})

		_, err := gw.CreateIntent(ctx, decimal.RequireFromString("3000"), []MethodID{MethodCard})
		assert.Error(t, err)
	})
}

func TestPayMongoGateway_AttachMethod(t *testing.T) {
	gw := newTestGateway()
	ctx := context.Background()

	t.Run("RedirectCreatesMethodThenAttaches", func(t *testing.T) {
		var paths []string
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			paths = append(paths, req.URL.Path)
			switch req.URL.Path {
			case "/v1/payment_methods":
				attrs := decodeAttributes(t, req)
				assert.Equal(t, "gcash", attrs["type"])
				return jsonResponse(http.StatusOK, `{"data":{"id":"pm_gcash"}}`)
			case "/v1/payment_intents/pi_123/attach":
				attrs := decodeAttributes(t, req)
				assert.Equal(t, "pm_gcash", attrs["payment_method"])
				assert.Equal(t, "pi_123_client_abc", attrs["client_key"])
				assert.Equal(t, "https://app.example/payments/return", attrs["return_url"])
				return jsonResponse(http.StatusOK, `{
					"data": {
						"id": "pi_123",
						"attributes": {
							"status": "awaiting_next_action",
							"next_action": {"type": "redirect", "redirect": {"url": "https://pay.example/x"}}
						}
					}
				}`)
			}
			t.Fatalf("unexpected path %s", req.URL.Path)
			return nil
		})

		out, err := gw.AttachMethod(ctx, "pi_123", MethodPayload{Method: MethodGCash, ClientKey: "pi_123_client_abc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/v1/payment_methods", "/v1/payment_intents/pi_123/attach"}, paths)
		assert.Equal(t, AttachRequiresAction, out.Status)
		assert.Equal(t, "https://pay.example/x", out.RedirectURL)
		assert.Equal(t, "pm_gcash", out.PaymentMethodID)
	})

	t.Run("ExistingMethodSucceeds", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/v1/payment_intents/pi_9/attach", req.URL.Path)
			return jsonResponse(http.StatusOK, `{
				"data": {
					"id": "pi_9",
					"attributes": {"status": "succeeded", "payments": [{"id": "pay_1"}]}
				}
			}`)
		})

		out, err := gw.AttachMethod(ctx, "pi_9", MethodPayload{Method: MethodCard, PaymentMethodID: "pm_card"})
		require.NoError(t, err)
		assert.Equal(t, AttachSucceeded, out.Status)
		assert.Equal(t, "pay_1", out.PaymentID)
		assert.Empty(t, out.RedirectURL)
	})

	t.Run("OtherStatusPassedThrough", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"data":{"id":"pi_9","attributes":{"status":"processing"}}}`)
		})

		out, err := gw.AttachMethod(ctx, "pi_9", MethodPayload{Method: MethodMaya, PaymentMethodID: "pm_maya"})
		require.NoError(t, err)
		assert.Equal(t, "processing", out.Status)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		_, err := gw.AttachMethod(ctx, "pi_9", MethodPayload{Method: "cash"})
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("MethodCreationRejected", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/v1/payment_methods", req.URL.Path)
			return jsonResponse(http.StatusUnprocessableEntity, `{"errors":[{"code":"parameter_invalid","detail":"billing.phone is invalid"}]}`)
		})

		_, err := gw.AttachMethod(ctx, "pi_9", MethodPayload{Method: MethodGCash})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "billing.phone is invalid")
	})

	t.Run("MissingIntent", func(t *testing.T) {
		_, err := gw.AttachMethod(ctx, "", MethodPayload{Method: MethodGCash})
		assert.Error(t, err)
	})
}

func TestPayMongoGateway_RetrieveIntent(t *testing.T) {
	gw := newTestGateway()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "GET", req.Method)
			assert.Equal(t, "/v1/payment_intents/pi_123", req.URL.Path)
			return jsonResponse(http.StatusOK, `{
				"data": {
					"id": "pi_123",
					"attributes": {"amount": 700000, "status": "succeeded", "payments": [{"id": "pay_7"}]}
				}
			}`)
		})

		st, err := gw.RetrieveIntent(ctx, "pi_123")
		require.NoError(t, err)
		assert.Equal(t, AttachSucceeded, st.Status)
		assert.Equal(t, "pay_7", st.PaymentID)
		assert.Equal(t, "7000", st.Amount.String())
	})

	t.Run("NextActionAndMethod", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{
				"data": {
					"id": "pi_123",
					"attributes": {
						"status": "awaiting_next_action",
						"payment_method": "pm_9",
						"next_action": {"type": "redirect", "redirect": {"url": "https://3ds.test/x"}}
					}
				}
			}`)
		})

		st, err := gw.RetrieveIntent(ctx, "pi_123")
		require.NoError(t, err)
		assert.Equal(t, AttachRequiresAction, st.Status)
		assert.Equal(t, "https://3ds.test/x", st.RedirectURL)
		assert.Equal(t, "pm_9", st.PaymentMethodID)
	})

	t.Run("LastPaymentError", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{
				"data": {
					"id": "pi_123",
					"attributes": {
						"status": "awaiting_payment_method",
						"last_payment_error": {"failed_code": "insufficient_funds", "failed_message": "Insufficient funds"}
					}
				}
			}`)
		})

		st, err := gw.RetrieveIntent(ctx, "pi_123")
		require.NoError(t, err)
		assert.Equal(t, "Insufficient funds", st.LastError)
		assert.Equal(t, IntentAwaitingPaymentMethod, st.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusNotFound, `{"errors":[{"code":"resource_not_found","detail":"No such payment_intent"}]}`)
		})

		_, err := gw.RetrieveIntent(ctx, "pi_missing")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

func TestNewPayMongoGateway(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		gw := NewPayMongoGateway(PayMongoConfig{}).(*paymongoGateway)
		assert.Equal(t, defaultBaseURL, gw.baseURL)
		assert.Equal(t, defaultTimeout, gw.httpClient.Timeout)
	})
}
