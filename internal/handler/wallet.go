package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// WalletHandler handles HTTP requests for wallets and top-ups.
type WalletHandler struct {
	wallets *service.WalletService
	topups  *service.TopUpService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *service.WalletService, topups *service.TopUpService) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		topups:  topups,
	}
}

// OpenWalletBody is the HTTP request body for opening a wallet.
type OpenWalletBody struct {
	PushToken string `json:"push_token,omitempty"`
}

// CreateTopUpBody is the HTTP request body for starting a top-up.
type CreateTopUpBody struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// ConfirmTopUpBody is the HTTP request body for confirming a top-up.
type ConfirmTopUpBody struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// WalletResponse is the HTTP representation of a wallet account.
type WalletResponse struct {
	UID          string `json:"uid"`
	BalanceCents int64  `json:"balance_cents"`
	UpdatedAt    string `json:"updated_at"`
}

// LedgerEntryResponse is the HTTP representation of a ledger entry.
type LedgerEntryResponse struct {
	ID                string                 `json:"id"`
	Type              string                 `json:"type"`
	AmountCents       int64                  `json:"amount_cents"`
	BalanceAfterCents int64                  `json:"balance_after_cents"`
	Status            string                 `json:"status"`
	Ref               domain.LedgerReference `json:"ref"`
	CreatedAt         string                 `json:"created_at"`
}

// Open handles POST /v1/wallet
func (h *WalletHandler) Open(c *gin.Context) {
	var body OpenWalletBody
	_ = c.ShouldBindJSON(&body) // body is optional

	account, created, err := h.wallets.Open(c.Request.Context(), middleware.CallerUID(c), body.PushToken)
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	respondJSON(c, code, toWalletResponse(account))
}

// Get handles GET /v1/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	account, err := h.wallets.Balance(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWalletResponse(account))
}

// Ledger handles GET /v1/wallet/ledger
func (h *WalletHandler) Ledger(c *gin.Context) {
	entries, err := h.wallets.History(c.Request.Context(), middleware.CallerUID(c), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LedgerEntryResponse{
			ID:                e.ID,
			Type:              string(e.Type),
			AmountCents:       e.AmountCents,
			BalanceAfterCents: e.BalanceAfterCents,
			Status:            e.Status,
			Ref:               e.Ref,
			CreatedAt:         formatTime(e.CreatedAt),
		}
	}
	respondJSON(c, http.StatusOK, gin.H{"entries": resp})
}

// CreateTopUp handles POST /v1/wallet/topups
func (h *WalletHandler) CreateTopUp(c *gin.Context) {
	var body CreateTopUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidAmount)
		return
	}

	intent, err := h.topups.CreateIntent(c.Request.Context(), middleware.CallerUID(c), body.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount_cents":      intent.AmountCents,
		"currency":          intent.Currency,
	})
}

// ConfirmTopUp handles POST /v1/wallet/topups/confirm
func (h *WalletHandler) ConfirmTopUp(c *gin.Context) {
	var body ConfirmTopUpBody
	_ = c.ShouldBindJSON(&body) // missing id is reported by the service

	result, err := h.topups.Confirm(c.Request.Context(), middleware.CallerUID(c), body.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"credited":      result.Credited,
		"amount_cents":  result.AmountCents,
		"balance_cents": result.BalanceCents,
	})
}

func toWalletResponse(a *domain.WalletAccount) WalletResponse {
	return WalletResponse{
		UID:          a.UID,
		BalanceCents: a.BalanceCents,
		UpdatedAt:    formatTime(a.UpdatedAt),
	}
}
