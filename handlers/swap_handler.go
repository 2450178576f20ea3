package handlers

import (
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
)

type SwapHandler struct {
	swapService *services.SwapService
}

func NewSwapHandler(swapService *services.SwapService) *SwapHandler {
	return &SwapHandler{swapService: swapService}
}

// StartSwap is the staff scan: burn the token and admit the user.
func (h *SwapHandler) StartSwap(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Token     string `json:"token"`
		StationID string `json:"station_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Token == "" || req.StationID == "" {
		return apis.NewBadRequestError("token and station_id are required", nil)
	}

	swap, err := h.swapService.StartSwap(e.Request.Context(), req.Token, req.StationID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, swap)
}

// CompleteSwap finishes an active swap and records the batteries exchanged.
func (h *SwapHandler) CompleteSwap(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		StationID    string `json:"station_id"`
		UserID       string `json:"user_id"`
		OldBatteryID string `json:"old_battery_id"`
		NewBatteryID string `json:"new_battery_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.StationID == "" || req.UserID == "" {
		return apis.NewBadRequestError("station_id and user_id are required", nil)
	}

	swap, err := h.swapService.CompleteSwap(e.Request.Context(),
		req.StationID, req.UserID, req.OldBatteryID, req.NewBatteryID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, swap)
}

// SwapHistory lists the caller's past swaps, newest first.
func (h *SwapHandler) SwapHistory(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))
	swaps, err := h.swapService.SwapHistory(e.Request.Context(), e.Auth.Id, limit)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"swaps": swaps})
}
