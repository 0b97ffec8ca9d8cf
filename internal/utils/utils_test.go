package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientContext(t *testing.T) {
	t.Run("SetClientContext and GetClientIDFromContext", func(t *testing.T) {
		ctx := SetClientContext(context.Background(), "client-42", "client")

		id, ok := GetClientIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "client-42", id)
		assert.Equal(t, "client", GetClientRoleFromContext(ctx))
	})

	t.Run("GetClientIDFromContext with empty context", func(t *testing.T) {
		_, ok := GetClientIDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("Empty id is not authenticated", func(t *testing.T) {
		_, ok := GetClientIDFromContext(SetClientContext(context.Background(), "", "client"))
		assert.False(t, ok)
	})
}

func TestIsInternalRequest(t *testing.T) {
	t.Run("Returns false for empty context", func(t *testing.T) {
		assert.False(t, IsInternalRequest(context.Background()))
	})

	t.Run("Returns true for internal request", func(t *testing.T) {
		assert.True(t, IsInternalRequest(WithInternalRequest(context.Background())))
	})
}

func TestPointers(t *testing.T) {
	p := StrPtr("hello")
	require.NotNil(t, p)
	assert.Equal(t, "hello", PtrString(p))
	assert.Equal(t, "", PtrString(nil))
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, "session not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "session not found", resp["error"])
}

func TestFormatPeso(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "₱0.00"},
		{"5", "₱5.00"},
		{"999.5", "₱999.50"},
		{"1000", "₱1,000.00"},
		{"3000", "₱3,000.00"},
		{"1234567.891", "₱1,234,567.89"},
		{"-2500", "-₱2,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPeso(decimal.RequireFromString(tt.input)))
		})
	}
}
