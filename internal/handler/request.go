package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// RequestHandler handles HTTP requests for ride requests.
type RequestHandler struct {
	requests  *service.RequestService
	matching  *service.MatchingService
	lifecycle *service.LifecycleService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requests *service.RequestService, matching *service.MatchingService, lifecycle *service.LifecycleService) *RequestHandler {
	return &RequestHandler{
		requests:  requests,
		matching:  matching,
		lifecycle: lifecycle,
	}
}

// Location is a coordinate pair in a request body.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l Location) point() geo.Point {
	return geo.Point{Lat: l.Lat, Lng: l.Lng}
}

// CreateRequestBody is the HTTP request body for creating a ride request.
type CreateRequestBody struct {
	Pickup             *Location `json:"pickup"`
	Destination        *Location `json:"destination"`
	PickupAddress      string    `json:"pickup_address,omitempty"`
	DestinationAddress string    `json:"destination_address,omitempty"`
	SearchRadiusKm     float64   `json:"search_radius_km,omitempty"`
}

// CancelBody is the HTTP request body for cancellations.
type CancelBody struct {
	Reason string `json:"reason,omitempty"`
}

// RequestResponse is the HTTP representation of a ride request.
type RequestResponse struct {
	ID                 string   `json:"id"`
	RiderID            string   `json:"rider_id"`
	Status             string   `json:"status"`
	Pickup             Location `json:"pickup"`
	Destination        Location `json:"destination"`
	PickupAddress      string   `json:"pickup_address,omitempty"`
	DestinationAddress string   `json:"destination_address,omitempty"`
	SearchRadiusKm     float64  `json:"search_radius_km"`
	MatchedDriverID    string   `json:"matched_driver_id,omitempty"`
	ActiveRideID       string   `json:"active_ride_id,omitempty"`
	CancelReason       string   `json:"cancel_reason,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func toRequestResponse(r *domain.RideRequest) RequestResponse {
	return RequestResponse{
		ID:                 r.ID,
		RiderID:            r.RiderID,
		Status:             string(r.Status),
		Pickup:             Location{Lat: r.Pickup.Lat, Lng: r.Pickup.Lng},
		Destination:        Location{Lat: r.Destination.Lat, Lng: r.Destination.Lng},
		PickupAddress:      r.PickupAddress,
		DestinationAddress: r.DestinationAddress,
		SearchRadiusKm:     r.SearchRadiusKm,
		MatchedDriverID:    r.MatchedDriverID,
		ActiveRideID:       r.ActiveRideID,
		CancelReason:       r.CancelReason,
		CreatedAt:          formatTime(r.CreatedAt),
		UpdatedAt:          formatTime(r.UpdatedAt),
	}
}

// ClaimResponse is the HTTP response for a successful claim.
type ClaimResponse struct {
	RideID          string  `json:"ride_id"`
	RequestID       string  `json:"request_id"`
	HoldAmountCents int64   `json:"hold_amount_cents"`
	DistanceKm      float64 `json:"distance_km"`
}

// Create handles POST /v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(service.KindInvalidArgument), Reason: "invalid request body"})
		return
	}
	if body.Pickup == nil {
		respondError(c, service.ErrInvalidPickupLocation)
		return
	}
	if body.Destination == nil {
		respondError(c, service.ErrInvalidDestinationLocation)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), middleware.CallerUID(c), service.CreateRequestInput{
		Pickup:             body.Pickup.point(),
		Destination:        body.Destination.point(),
		PickupAddress:      body.PickupAddress,
		DestinationAddress: body.DestinationAddress,
		SearchRadiusKm:     body.SearchRadiusKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRequestResponse(req))
}

// Get handles GET /v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	req, err := h.requests.Get(c.Request.Context(), c.Param("id"), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

// Cancel handles POST /v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	var body CancelBody
	_ = c.ShouldBindJSON(&body) // body is optional

	t, err := h.lifecycle.CancelRequest(c.Request.Context(), c.Param("id"), middleware.CallerUID(c), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"request": toRequestResponse(t.Request),
		"outcome": t.Outcome.String(),
	})
}

// Claim handles POST /v1/requests/:id/claim
func (h *RequestHandler) Claim(c *gin.Context) {
	result, err := h.matching.Claim(c.Request.Context(), c.Param("id"), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ClaimResponse{
		RideID:          result.RideID,
		RequestID:       result.RequestID,
		HoldAmountCents: result.HoldAmountCents,
		DistanceKm:      result.DistanceKm,
	})
}
