package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
	"navswap/store"
)

type AdminHandler struct {
	queueService     *services.QueueService
	qrService        *services.QRService
	transportService *services.TransportService
	store            store.Store
}

func NewAdminHandler(queueService *services.QueueService, qrService *services.QRService, transportService *services.TransportService, st store.Store) *AdminHandler {
	return &AdminHandler{
		queueService:     queueService,
		qrService:        qrService,
		transportService: transportService,
		store:            st,
	}
}

// Dashboard aggregates network state: per-station queue depth and capacity,
// plus unclaimed transport jobs.
func (h *AdminHandler) Dashboard(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ctx := e.Request.Context()
	stations, err := h.store.ListStations(ctx, false, 0)
	if err != nil {
		return apiError(err)
	}

	stationStats := make([]map[string]any, 0, len(stations))
	totalQueued := 0
	for _, station := range stations {
		queued, err := h.store.CountActive(ctx, station.ID)
		if err != nil {
			return apiError(err)
		}
		totalQueued += queued
		stationStats = append(stationStats, map[string]any{
			"station_id": station.ID,
			"name":       station.Name,
			"is_active":  station.IsActive,
			"capacity":   station.Capacity,
			"queued":     queued,
		})
	}

	pendingJobs, err := h.transportService.PendingJobs(ctx, 100)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"stations":               stationStats,
		"total_queued":           totalQueued,
		"pending_transport_jobs": len(pendingJobs),
	})
}

// ExpireStaleQueues manually triggers the stale-slot sweep.
func (h *AdminHandler) ExpireStaleQueues(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	expired, err := h.queueService.ExpireStale(e.Request.Context())
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"expired": expired})
}

// CleanupTokens manually triggers the expired-token sweep.
func (h *AdminHandler) CleanupTokens(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	deleted, err := h.qrService.CleanupExpired(e.Request.Context())
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"deleted": deleted})
}
