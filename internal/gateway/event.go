package gateway

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	// EventCheckoutSessionCompleted is the only event type that
	// triggers order creation; everything else is acknowledged and
	// ignored.
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
)

// Event is a webhook notification, validated once at the boundary so
// the handler operates on a closed set of shapes instead of ad hoc
// presence checks. Session is non-nil only for
// EventCheckoutSessionCompleted.
type Event struct {
	ID      string
	Type    EventType
	Created int64
	Session *CheckoutSession
}

type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes and validates a raw webhook body. It must be
// called only after the signature has been verified.
func ParseEvent(body []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed event payload: %w", err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("event is missing id or type")
	}

	ev := &Event{ID: env.ID, Type: EventType(env.Type), Created: env.Created}
	if ev.Type != EventCheckoutSessionCompleted {
		return ev, nil
	}

	var sess CheckoutSession
	if err := json.Unmarshal(env.Data.Object, &sess); err != nil {
		return nil, fmt.Errorf("malformed checkout session object: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("checkout session object is missing id")
	}
	ev.Session = &sess
	return ev, nil
}
