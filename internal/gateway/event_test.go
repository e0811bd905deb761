package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_1",
			"payment_intent": "pi_1",
			"amount_total": 20000,
			"metadata": {"clerkUserId": "user_1"}
		}}
	}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventCheckoutSessionCompleted, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "cs_1", ev.Session.ID)
	assert.Equal(t, "pi_1", ev.Session.PaymentID)
	assert.Equal(t, int64(20000), ev.Session.AmountTotal)
	assert.Equal(t, "user_1", ev.Session.Metadata["clerkUserId"])
}

func TestParseEvent_UnhandledTypeHasNoSession(t *testing.T) {
	body := []byte(`{"id":"evt_2","type":"payment_intent.created","created":1,"data":{"object":{"id":"pi_x"}}}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventType("payment_intent.created"), ev.Type)
	assert.Nil(t, ev.Session)
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseEvent_MissingIDOrType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"id":"","type":"checkout.session.completed"}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"id":"evt_3"}`))
	assert.Error(t, err)
}

func TestParseEvent_CompletedWithoutSessionID(t *testing.T) {
	body := []byte(`{"id":"evt_4","type":"checkout.session.completed","data":{"object":{"payment_intent":"pi_1"}}}`)
	_, err := ParseEvent(body)
	assert.Error(t, err)
}
