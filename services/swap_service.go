package services

import (
	"context"
	"fmt"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/store"
)

// SwapService runs the at-station part of a swap: the staff scan that admits
// a user and the completion that hands over a battery. All slot and swap
// state changes go through the queue engine.
type SwapService struct {
	store  store.Store
	queue  *QueueService
	qr     *QRService
	config *config.Config
}

func NewSwapService(st store.Store, queue *QueueService, qr *QRService, cfg *config.Config) *SwapService {
	return &SwapService{
		store:  st,
		queue:  queue,
		qr:     qr,
		config: cfg,
	}
}

// StartSwap handles a staff QR scan: verify, burn the token, then move the
// user's slot to active. The consume is the commit point; a token that fails
// verification is never consumed.
func (s *SwapService) StartSwap(ctx context.Context, token, stationID, staffID string) (*models.Swap, error) {
	result, err := s.qr.VerifyToken(ctx, token, stationID)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("token rejected: %s", result.Reason)
	}

	if err := s.qr.ConsumeToken(ctx, token); err != nil {
		return nil, err
	}

	err = s.queue.TransitionStatus(ctx, stationID, result.UserID, models.QueueActive,
		map[string]any{"staff_id": staffID})
	if err != nil {
		return nil, err
	}

	return s.store.SwapByID(ctx, result.SwapID)
}

// CompleteSwap finishes an active swap: finalize the slot, stamp the
// batteries exchanged, award credits, and update battery placement.
func (s *SwapService) CompleteSwap(ctx context.Context, stationID, userID, oldBatteryID, newBatteryID string) (*models.Swap, error) {
	swap, err := s.store.ActiveSwap(ctx, stationID, userID)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, status.ErrSwapNotFound
	}
	if swap.Status != models.SwapActive {
		return nil, status.ErrSwapNotActive
	}

	err = s.queue.Dequeue(ctx, stationID, userID, models.QueueCompleted, map[string]any{
		"old_battery_id": oldBatteryID,
		"new_battery_id": newBatteryID,
	})
	if err != nil {
		return nil, err
	}

	// Old battery goes on the charger; new one leaves with the user.
	if oldBatteryID != "" {
		if err := s.store.UpdateBattery(ctx, oldBatteryID, map[string]any{
			"status":           "charging",
			"current_location": stationID,
		}); err != nil {
			return nil, err
		}
	}
	if newBatteryID != "" {
		if err := s.store.UpdateBattery(ctx, newBatteryID, map[string]any{
			"status":           "in_use",
			"current_location": "",
			"assigned_user_id": userID,
		}); err != nil {
			return nil, err
		}
	}

	credits := s.config.SwapCompletionCredits
	if err := s.store.AddCredits(ctx, userID, credits); err != nil {
		return nil, err
	}
	if err := s.store.InsertCreditEntry(ctx, userID, credits, "swap_completion", swap.ID); err != nil {
		return nil, err
	}

	return s.store.SwapByID(ctx, swap.ID)
}

// CancelSwap lets a user abandon their booking before it goes active.
func (s *SwapService) CancelSwap(ctx context.Context, stationID, userID string) error {
	return s.queue.Dequeue(ctx, stationID, userID, models.QueueCancelled, nil)
}

func (s *SwapService) SwapHistory(ctx context.Context, userID string, limit int) ([]*models.Swap, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListUserSwaps(ctx, userID, limit)
}
