// internal/pkg/payment/payment.go
package payment

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the only event the shop acts on
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SessionRequest describes a hosted checkout for a single amount
type SessionRequest struct {
	AmountMinor     int64
	Currency        string
	ProductName     string
	CustomerEmail   string
	ClientReference string
	Metadata        map[string]string
}

// Session is what the client is redirected to
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedSession is the payload of a successful checkout
type CompletedSession struct {
	ID              string
	ClientReference string
	CustomerEmail   string
	AmountTotal     int64
	Metadata        map[string]string
}

// Event is a verified webhook notification
type Event struct {
	ID      string
	Type    string
	Session *CompletedSession
}

// Gateway is the payment provider seen by checkout
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}
