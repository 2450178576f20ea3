package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"navswap/services"
	"navswap/store"
)

type QRHandler struct {
	qrService *services.QRService
	store     store.Store
}

func NewQRHandler(qrService *services.QRService, st store.Store) *QRHandler {
	return &QRHandler{
		qrService: qrService,
		store:     st,
	}
}

// GenerateQR mints an admission token for the caller's own swap.
func (h *QRHandler) GenerateQR(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		SwapID string `json:"swap_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.SwapID == "" {
		return apis.NewBadRequestError("swap_id is required", nil)
	}

	ctx := e.Request.Context()
	swap, err := h.store.SwapByID(ctx, req.SwapID)
	if err != nil {
		return apiError(err)
	}
	if swap == nil || swap.UserID != e.Auth.Id {
		return apis.NewNotFoundError("Swap not found", nil)
	}

	token, expiresAt, err := h.qrService.IssueToken(ctx, req.SwapID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"qr_token":   token,
		"expires_at": expiresAt,
	})
}

// VerifyQR checks a scanned token without consuming it.
func (h *QRHandler) VerifyQR(e *core.RequestEvent) error {
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

	result, err := h.qrService.VerifyToken(e.Request.Context(), req.Token, req.StationID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, result)
}
