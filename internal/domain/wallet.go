package domain

import "time"

// LedgerEntryType classifies a balance-affecting event.
type LedgerEntryType string

const (
	LedgerEntryRideHold    LedgerEntryType = "ride_hold"
	LedgerEntryRideRefund  LedgerEntryType = "ride_refund"
	LedgerEntryRideEarning LedgerEntryType = "ride_earning"
	LedgerEntryTopUp       LedgerEntryType = "topup"
)

// LedgerEntryStatusSuccess is the only status written today.
const LedgerEntryStatusSuccess = "success"

// WalletAccount holds a user's materialized wallet balance.
type WalletAccount struct {
	UID          string
	BalanceCents int64 // never negative
	PushToken    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LedgerReference correlates an entry with the ride or payment that caused it.
type LedgerReference struct {
	RideID          string   `json:"ride_id,omitempty"`
	RequestID       string   `json:"request_id,omitempty"`
	DriverID        string   `json:"driver_id,omitempty"`
	PaymentIntentID string   `json:"payment_intent_id,omitempty"`
	PaymentMethods  []string `json:"payment_methods,omitempty"`
}

// WalletLedgerEntry is an immutable record of one balance change.
type WalletLedgerEntry struct {
	ID                string
	UID               string
	Type              LedgerEntryType
	AmountCents       int64 // negative for holds
	BalanceAfterCents int64
	Status            string
	Ref               LedgerReference
	CreatedAt         time.Time
}
