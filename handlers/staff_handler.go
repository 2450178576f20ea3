package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
)

type StaffHandler struct {
	staffService  *services.StaffService
	ticketService *services.TicketService
}

func NewStaffHandler(staffService *services.StaffService, ticketService *services.TicketService) *StaffHandler {
	return &StaffHandler{
		staffService:  staffService,
		ticketService: ticketService,
	}
}

// AssignStaff puts a staff member on shift at a station.
func (h *StaffHandler) AssignStaff(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		StaffID    string    `json:"staff_id"`
		StationID  string    `json:"station_id"`
		ShiftStart time.Time `json:"shift_start"`
		ShiftEnd   time.Time `json:"shift_end"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.StaffID == "" || req.StationID == "" {
		return apis.NewBadRequestError("staff_id and station_id are required", nil)
	}

	assignment, err := h.staffService.AssignStaff(e.Request.Context(),
		req.StaffID, req.StationID, req.ShiftStart, req.ShiftEnd)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, assignment)
}

// DivertStaff moves staff between stations mid-shift.
func (h *StaffHandler) DivertStaff(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		FromStationID string   `json:"from_station_id"`
		ToStationID   string   `json:"to_station_id"`
		StaffIDs      []string `json:"staff_ids"`
		Reason        string   `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	assignments, err := h.staffService.DivertStaff(e.Request.Context(),
		req.FromStationID, req.ToStationID, req.StaffIDs, req.Reason)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"assignments": assignments})
}

// AssignmentHistory lists a staff member's past shifts.
func (h *StaffHandler) AssignmentHistory(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	staffID := e.Request.PathValue("staffId")
	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))

	assignments, err := h.staffService.AssignmentHistory(e.Request.Context(), staffID, limit)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"assignments": assignments})
}

// StationRoster lists staff currently on shift at a station.
func (h *StaffHandler) StationRoster(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	stationID := e.Request.PathValue("stationId")
	assignments, err := h.staffService.StationRoster(e.Request.Context(), stationID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"assignments": assignments})
}

// ReportFault opens a fault ticket against a battery, station or swap.
func (h *StaffHandler) ReportFault(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EntityType  string `json:"entity_type"`
		EntityID    string `json:"entity_id"`
		FaultLevel  string `json:"fault_level"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EntityType == "" || req.EntityID == "" {
		return apis.NewBadRequestError("entity_type and entity_id are required", nil)
	}

	ticket, err := h.ticketService.ReportFault(e.Request.Context(),
		req.EntityType, req.EntityID, req.FaultLevel, req.Title, req.Description)
	if err != nil {
		return apis.NewBadRequestError("Failed to open ticket", err)
	}
	return e.JSON(http.StatusOK, ticket)
}
