package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func newTestGateway() *StripeGateway {
	return NewStripeGateway(config.StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret})
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"client_reference_id": "12",
			"customer_email": "u@example.com",
			"amount_total": 72000,
			"metadata": {"user_id": "7"}
		}},
		"created": %d
	}`, time.Now().Unix()))

	event, err := newTestGateway().ParseEvent(payload, signedPayload(t, payload))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_test_1", event.Session.ID)
	assert.Equal(t, "12", event.Session.ClientReference)
	assert.Equal(t, int64(72000), event.Session.AmountTotal)
	assert.Equal(t, "7", event.Session.Metadata["user_id"])
}

func TestParseEventIgnoresOtherTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{}}}`)

	event, err := newTestGateway().ParseEvent(payload, signedPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Nil(t, event.Session)
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed"}`)

	_, err := newTestGateway().ParseEvent(payload, "t=1,v1=deadbeef")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}
