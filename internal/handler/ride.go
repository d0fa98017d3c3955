package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rides     *service.RideService
	lifecycle *service.LifecycleService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rides *service.RideService, lifecycle *service.LifecycleService) *RideHandler {
	return &RideHandler{
		rides:     rides,
		lifecycle: lifecycle,
	}
}

// UpdateStatusBody is the HTTP request body for reporting ride progress.
type UpdateStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// CancelRideBody is the HTTP request body for cancelling a ride.
type CancelRideBody struct {
	CancelledBy string `json:"cancelled_by" binding:"required"`
	Reason      string `json:"reason,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID              string  `json:"id"`
	RequestID       string  `json:"request_id"`
	DriverID        string  `json:"driver_id"`
	RiderID         string  `json:"rider_id"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"payment_status"`
	HoldAmountCents int64   `json:"hold_amount_cents"`
	FinalFareCents  int64   `json:"final_fare_cents,omitempty"`
	DistanceKm      float64 `json:"distance_km"`
	CancelledBy     string  `json:"cancelled_by,omitempty"`
	CancelReason    string  `json:"cancel_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	CancelledAt     string  `json:"cancelled_at,omitempty"`
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:              r.ID,
		RequestID:       r.RequestID,
		DriverID:        r.DriverID,
		RiderID:         r.RiderID,
		Status:          string(r.Status),
		PaymentStatus:   string(r.PaymentStatus),
		HoldAmountCents: r.HoldAmountCents,
		FinalFareCents:  r.FinalFareCents,
		DistanceKm:      r.DistanceKm,
		CancelledBy:     string(r.CancelledBy),
		CancelReason:    r.CancelReason,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
		CompletedAt:     formatTime(r.CompletedAt),
		CancelledAt:     formatTime(r.CancelledAt),
	}
}

// TransitionResponse reports a ride state change.
type TransitionResponse struct {
	Ride    RideResponse `json:"ride"`
	Outcome string       `json:"outcome"`
	From    string       `json:"from"`
}

func toTransitionResponse(t *service.RideTransition) TransitionResponse {
	return TransitionResponse{
		Ride:    toRideResponse(t.Ride),
		Outcome: t.Outcome.String(),
		From:    string(t.From),
	}
}

// List handles GET /v1/rides
func (h *RideHandler) List(c *gin.Context) {
	rides, err := h.rides.List(c.Request.Context(), middleware.CallerUID(c), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RideResponse, len(rides))
	for i, r := range rides {
		resp[i] = toRideResponse(r)
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": resp})
}

// Get handles GET /v1/rides/:id
func (h *RideHandler) Get(c *gin.Context) {
	ride, err := h.rides.Get(c.Request.Context(), c.Param("id"), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// UpdateStatus handles POST /v1/rides/:id/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var body UpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(service.KindInvalidArgument), Reason: "status is required"})
		return
	}

	t, err := h.lifecycle.Advance(c.Request.Context(), c.Param("id"), middleware.CallerUID(c), domain.RideStatus(body.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTransitionResponse(t))
}

// Cancel handles POST /v1/rides/:id/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	var body CancelRideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(service.KindInvalidArgument), Reason: "cancelled_by is required"})
		return
	}

	t, err := h.lifecycle.Cancel(c.Request.Context(), c.Param("id"), middleware.CallerUID(c), domain.Party(body.CancelledBy), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTransitionResponse(t))
}

// Complete handles POST /v1/rides/:id/complete
func (h *RideHandler) Complete(c *gin.Context) {
	t, err := h.lifecycle.Complete(c.Request.Context(), c.Param("id"), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTransitionResponse(t))
}
