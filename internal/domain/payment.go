package domain

// PaymentIntentStatusSucceeded is the gateway status that allows crediting.
const PaymentIntentStatusSucceeded = "succeeded"

// TopUpPurpose tags payment intents created for wallet top-ups.
const TopUpPurpose = "wallet_topup"

// IntentMetadata links a gateway payment intent to a user and purpose.
type IntentMetadata struct {
	UID     string
	Purpose string
}

// PaymentIntent is the gateway-owned record of an external payment.
type PaymentIntent struct {
	ID                 string
	AmountCents        int64
	Currency           string
	Status             string
	ClientSecret       string
	Metadata           IntentMetadata
	PaymentMethodTypes []string
}

// Succeeded reports whether the gateway settled the payment.
func (p *PaymentIntent) Succeeded() bool {
	return p.Status == PaymentIntentStatusSucceeded
}
