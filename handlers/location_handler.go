package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/models"
	"navswap/security"
	"navswap/services"
)

type LocationHandler struct {
	locationService *services.LocationService
	limiter         *security.RateLimiter
}

func NewLocationHandler(locationService *services.LocationService, limiter *security.RateLimiter) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		limiter:         limiter,
	}
}

// UpdateLocation ingests one GPS sample. This is the chattiest endpoint, so
// it carries the rate limit and the scraper check.
func (h *LocationHandler) UpdateLocation(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if security.IsSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	ctx := e.Request.Context()
	if !h.limiter.Allow(ctx, "location:"+e.Auth.Id) {
		return e.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Too many location updates. Please slow down.",
		})
	}

	var req struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Speed     *float64 `json:"speed,omitempty"`
		Heading   *float64 `json:"heading,omitempty"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	sample := &models.LocationSample{
		UserID:    e.Auth.Id,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Speed:     req.Speed,
		Heading:   req.Heading,
	}
	if err := h.locationService.UpdateLocation(ctx, sample); err != nil {
		return apis.NewBadRequestError("Invalid location", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Location updated"})
}

// GetCurrentLocation returns the caller's freshest known position.
func (h *LocationHandler) GetCurrentLocation(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	sample, err := h.locationService.CurrentLocation(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apiError(err)
	}
	if sample == nil {
		return apis.NewNotFoundError("No location on record", nil)
	}
	return e.JSON(http.StatusOK, sample)
}

// GetLocationHistory returns the caller's samples over the past N hours.
func (h *LocationHandler) GetLocationHistory(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	hours, err := strconv.Atoi(e.Request.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 500
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	samples, err := h.locationService.LocationHistory(e.Request.Context(), e.Auth.Id, since, limit)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"samples": samples})
}
