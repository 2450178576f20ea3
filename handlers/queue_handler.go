package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
)

type QueueHandler struct {
	queueService *services.QueueService
	swapService  *services.SwapService
}

func NewQueueHandler(queueService *services.QueueService, swapService *services.SwapService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		swapService:  swapService,
	}
}

// JoinQueue books a swap and takes the next position at a station.
func (h *QueueHandler) JoinQueue(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		StationID string `json:"station_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.StationID == "" {
		return apis.NewBadRequestError("station_id is required", nil)
	}

	slot, err := h.queueService.Enqueue(e.Request.Context(), req.StationID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":                "Successfully joined queue",
		"swap_id":                slot.SwapID,
		"position":               slot.Position,
		"estimated_wait_minutes": slot.EstimatedWait,
	})
}

// LeaveQueue cancels the caller's booking at a station.
func (h *QueueHandler) LeaveQueue(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		StationID string `json:"station_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.swapService.CancelSwap(e.Request.Context(), req.StationID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Successfully left queue"})
}

// GetQueueStatus returns the station queue with the caller's position marked.
func (h *QueueHandler) GetQueueStatus(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	stationID := e.Request.PathValue("stationId")
	if stationID == "" {
		return apis.NewBadRequestError("Station ID required", nil)
	}

	info, err := h.queueService.Status(e.Request.Context(), stationID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, info)
}

// GetAvailability reports remaining queue capacity at a station.
func (h *QueueHandler) GetAvailability(e *core.RequestEvent) error {
	stationID := e.Request.PathValue("stationId")
	if stationID == "" {
		return apis.NewBadRequestError("Station ID required", nil)
	}

	available, err := h.queueService.AvailableSlots(e.Request.Context(), stationID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"station_id":      stationID,
		"available_slots": available,
	})
}
