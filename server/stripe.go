package main

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/rentcare/rentcare-backend/shared/utils"
)

// CheckoutInput describes one rent payment to collect through the provider.
type CheckoutInput struct {
	PropertyID string
	FlatNo     string
	RentAmount float64
}

// CheckoutProvider creates a hosted checkout session and returns its opaque
// reference. The store is never touched here; reconciliation happens through
// the payment-success route after the client returns from the redirect.
type CheckoutProvider interface {
	CreateSession(in CheckoutInput) (string, error)
}

// StripeCheckout is the Stripe-backed CheckoutProvider. Calls go through a
// circuit breaker so a struggling provider fails fast instead of piling up
// half-minute timeouts.
type StripeCheckout struct {
	clientURL string
	breaker   *utils.CircuitBreaker
}

// NewStripeCheckout configures the Stripe client with the secret key and the
// frontend base URL used for the redirect targets.
func NewStripeCheckout(secretKey, clientURL string) *StripeCheckout {
	stripe.Key = secretKey
	if clientURL == "" {
		clientURL = "http://localhost:3000"
	}
	return &StripeCheckout{
		clientURL: clientURL,
		breaker:   utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// CreateSession builds a single line-item checkout for the rent amount,
// denominated in the smallest currency unit.
func (s *StripeCheckout) CreateSession(in CheckoutInput) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyINR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Rent for Flat %s", in.FlatNo)),
					},
					UnitAmount: stripe.Int64(int64(in.RentAmount * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/payment-success/%s/%s", s.clientURL, in.FlatNo, in.PropertyID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/payment-cancelled", s.clientURL)),
	}
	params.AddMetadata("propertyId", in.PropertyID)
	params.AddMetadata("flatNo", in.FlatNo)
	params.AddMetadata("rentAmount", fmt.Sprintf("%v", in.RentAmount))

	var sessionID string
	err := s.breaker.Call(func() error {
		sess, err := session.New(params)
		if err != nil {
			return err
		}
		sessionID = sess.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}
