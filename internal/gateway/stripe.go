// Package gateway adapts external payment providers to service.PaymentGateway.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

const (
	metadataUID     = "uid"
	metadataPurpose = "purpose"
)

// intentsAPI is the subset of the Stripe payment intent client in use.
type intentsAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe implements service.PaymentGateway on Stripe payment intents.
type Stripe struct {
	intents intentsAPI
}

// NewStripe creates a Stripe gateway for the given secret key.
func NewStripe(secretKey string) *Stripe {
	sc := client.New(secretKey, nil)
	return &Stripe{intents: sc.PaymentIntents}
}

// CreateIntent creates a payment intent with automatic payment methods.
func (s *Stripe) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata domain.IntentMetadata) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUID, metadata.UID)
	params.AddMetadata(metadataPurpose, metadata.Purpose)

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

// RetrieveIntent fetches a payment intent by ID.
func (s *Stripe) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(intentID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, service.ErrPaymentIntentNotFound
		}
		return nil, fmt.Errorf("stripe: retrieve payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Code == stripe.ErrorCodeResourceMissing
}

func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata: domain.IntentMetadata{
			UID:     pi.Metadata[metadataUID],
			Purpose: pi.Metadata[metadataPurpose],
		},
		PaymentMethodTypes: pi.PaymentMethodTypes,
	}
}

var _ service.PaymentGateway = (*Stripe)(nil)
