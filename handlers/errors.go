package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"navswap/internal/status"
)

// apiError maps service errors onto HTTP errors. Not-found sentinels become
// 404s; every other known sentinel is a 400 with its message.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrStationNotFound),
		errors.Is(err, status.ErrSwapNotFound),
		errors.Is(err, status.ErrSlotNotFound),
		errors.Is(err, status.ErrJobNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, status.ErrQueueFull),
		errors.Is(err, status.ErrAlreadyQueued),
		errors.Is(err, status.ErrStationInactive),
		errors.Is(err, status.ErrBackwardChange),
		errors.Is(err, status.ErrSwapNotActive),
		errors.Is(err, status.ErrTokenConsumed),
		errors.Is(err, status.ErrJobNotPending),
		errors.Is(err, status.ErrNotAssigned):
		return apis.NewBadRequestError(err.Error(), err)
	}
	return apis.NewInternalServerError("request failed", err)
}
