package handlers

import (
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
)

type TransportHandler struct {
	transportService *services.TransportService
}

func NewTransportHandler(transportService *services.TransportService) *TransportHandler {
	return &TransportHandler{transportService: transportService}
}

// CreateJob opens a battery redistribution job.
func (h *TransportHandler) CreateJob(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		FromLocation string   `json:"from_location"`
		ToLocation   string   `json:"to_location"`
		BatteryIDs   []string `json:"battery_ids"`
		Priority     int      `json:"priority"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	job, err := h.transportService.CreateJob(e.Request.Context(),
		req.FromLocation, req.ToLocation, req.BatteryIDs, req.Priority)
	if err != nil {
		return apis.NewBadRequestError("Failed to create job", err)
	}
	return e.JSON(http.StatusOK, job)
}

// AcceptJob claims a pending job for the calling transporter.
func (h *TransportHandler) AcceptJob(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	jobID := e.Request.PathValue("jobId")
	job, err := h.transportService.AcceptJob(e.Request.Context(), jobID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, job)
}

// CompleteJob records a delivery and awards transporter credits.
func (h *TransportHandler) CompleteJob(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	jobID := e.Request.PathValue("jobId")
	var req struct {
		DistanceKm float64 `json:"distance_km"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	job, err := h.transportService.CompleteJob(e.Request.Context(), jobID, e.Auth.Id, req.DistanceKm)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, job)
}

// ListPendingJobs shows unclaimed jobs, highest priority first.
func (h *TransportHandler) ListPendingJobs(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))
	jobs, err := h.transportService.PendingJobs(e.Request.Context(), limit)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"jobs": jobs})
}
