package models

import "time"

// TokenRecord is the durable audit row for an issued QR token. The Redis
// copy is only an accelerator; this record is authoritative for replay
// detection.
type TokenRecord struct {
	Token     string    `json:"token"`
	SwapID    string    `json:"swap_id"`
	UserID    string    `json:"user_id"`
	StationID string    `json:"station_id"`
	Used      bool      `json:"used"`
	UsedAt    time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
