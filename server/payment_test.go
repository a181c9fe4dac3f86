package main

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.sessionID = "cs_live_like_456"

	w := env.request(t, http.MethodPost, "/api/payment/create-checkout-session", gin.H{
		"tenant":     gin.H{"rentAmount": 1200, "flatNo": "FLAT-3"},
		"propertyId": "prop-1",
	}, env.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, "cs_live_like_456", resp.ID)

	require.Len(t, env.checkout.calls, 1)
	call := env.checkout.calls[0]
	assert.Equal(t, "prop-1", call.PropertyID)
	assert.Equal(t, "FLAT-3", call.FlatNo)
	assert.Equal(t, float64(1200), call.RentAmount)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	cases := []gin.H{
		{"tenant": gin.H{"rentAmount": 0, "flatNo": "A-1"}, "propertyId": "p"},
		{"tenant": gin.H{"rentAmount": -5, "flatNo": "A-1"}, "propertyId": "p"},
		{"tenant": gin.H{"rentAmount": 100}, "propertyId": "p"},
		{"tenant": gin.H{"rentAmount": 100, "flatNo": "A-1"}},
		{},
	}
	for _, body := range cases {
		w := env.request(t, http.MethodPost, "/api/payment/create-checkout-session", body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %v", body)
		assert.Equal(t, "Tenant details, property ID, and rent amount are required.", decodeEnvelope(t, w).Error)
	}

	// validation failures never reach the provider
	assert.Len(t, env.checkout.calls, 0)
}

func TestCreateCheckoutSessionProviderError(t *testing.T) {
	env := newTestEnv(t)
	env.checkout.err = errors.New("provider says no")

	w := env.request(t, http.MethodPost, "/api/payment/create-checkout-session", gin.H{
		"tenant":     gin.H{"rentAmount": 900, "flatNo": "B-2"},
		"propertyId": "p-9",
	}, env.adminToken(t))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// the provider's message is surfaced to the caller
	assert.Equal(t, "provider says no", decodeEnvelope(t, w).Error)
}

func TestCreateCheckoutSessionRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/payment/create-checkout-session", gin.H{
		"tenant":     gin.H{"rentAmount": 900, "flatNo": "B-2"},
		"propertyId": "p-9",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, env.checkout.calls, 0)
}
