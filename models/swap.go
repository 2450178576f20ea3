package models

import "time"

// SwapStatus is the lifecycle of a swap booking. A user has at most one
// non-terminal swap per station at any time.
type SwapStatus string

const (
	SwapPending     SwapStatus = "pending"
	SwapConfirmed   SwapStatus = "confirmed"
	SwapApproaching SwapStatus = "approaching"
	SwapActive      SwapStatus = "active"
	SwapCompleted   SwapStatus = "completed"
	SwapCancelled   SwapStatus = "cancelled"
	SwapFailed      SwapStatus = "failed"
)

// ActiveSwapStatuses are the statuses a geofence check cares about.
var ActiveSwapStatuses = []SwapStatus{SwapConfirmed, SwapApproaching}

func (s SwapStatus) Terminal() bool {
	switch s {
	case SwapCompleted, SwapCancelled, SwapFailed:
		return true
	}
	return false
}

type Swap struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	StationID    string     `json:"station_id"`
	Status       SwapStatus `json:"status"`
	QRToken      string     `json:"qr_token,omitempty"`
	StaffID      string     `json:"staff_id,omitempty"`
	OldBatteryID string     `json:"old_battery_id,omitempty"`
	NewBatteryID string     `json:"new_battery_id,omitempty"`
	StartedAt    time.Time  `json:"started_at,omitempty"`
	CompletedAt  time.Time  `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
