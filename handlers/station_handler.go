package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/internal/status"
	"navswap/services"
	"navswap/store"
)

type StationHandler struct {
	locationService *services.LocationService
	store           store.Store
}

func NewStationHandler(locationService *services.LocationService, st store.Store) *StationHandler {
	return &StationHandler{
		locationService: locationService,
		store:           st,
	}
}

// ListStations returns stations, active ones only unless all=true.
func (h *StationHandler) ListStations(e *core.RequestEvent) error {
	all := e.Request.URL.Query().Get("all") == "true"

	stations, err := h.store.ListStations(e.Request.Context(), !all, 0)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"stations": stations})
}

func (h *StationHandler) GetStation(e *core.RequestEvent) error {
	stationID := e.Request.PathValue("stationId")

	station, err := h.store.StationByID(e.Request.Context(), stationID)
	if err != nil {
		return apiError(err)
	}
	if station == nil {
		return apis.NewNotFoundError("Station not found", nil)
	}
	return e.JSON(http.StatusOK, station)
}

// FindNearby returns active stations sorted by distance from a point.
func (h *StationHandler) FindNearby(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		return apis.NewBadRequestError("latitude and longitude are required", nil)
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	nearby, err := h.locationService.FindNearestStations(e.Request.Context(), lat, lon, limit)
	if err != nil {
		return apis.NewBadRequestError("Invalid coordinates", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"stations": nearby})
}

// RecommendStation picks the nearby station with the lowest combined travel
// time and queue wait.
func (h *StationHandler) RecommendStation(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		return apis.NewBadRequestError("latitude and longitude are required", nil)
	}
	trafficFactor, _ := strconv.ParseFloat(query.Get("traffic_factor"), 64)

	best, candidates, err := h.locationService.RecommendStation(e.Request.Context(), lat, lon, trafficFactor)
	if err != nil {
		if errors.Is(err, status.ErrStationNotFound) {
			return apiError(err)
		}
		return apis.NewBadRequestError("Invalid coordinates", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"recommended": best,
		"candidates":  candidates,
	})
}

// TravelTime estimates driving minutes from a point to a station.
func (h *StationHandler) TravelTime(e *core.RequestEvent) error {
	stationID := e.Request.PathValue("stationId")
	query := e.Request.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		return apis.NewBadRequestError("latitude and longitude are required", nil)
	}
	trafficFactor, _ := strconv.ParseFloat(query.Get("traffic_factor"), 64)

	estimate, err := h.locationService.EstimateTravelTime(e.Request.Context(), lat, lon, stationID, trafficFactor)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, estimate)
}

// NearbyUsers lists users recently seen close to a station.
func (h *StationHandler) NearbyUsers(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	stationID := e.Request.PathValue("stationId")
	radius, _ := strconv.ParseFloat(e.Request.URL.Query().Get("radius"), 64)

	users, err := h.locationService.ActiveUsersNearStation(e.Request.Context(), stationID, radius)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"station_id": stationID,
		"user_ids":   users,
	})
}
