package models

import "time"

// QueueStatus is the lifecycle of a queue slot:
// confirmed -> approaching -> active -> completed, with cancelled and
// expired as alternate terminal edges.
type QueueStatus string

const (
	QueueConfirmed   QueueStatus = "confirmed"
	QueueApproaching QueueStatus = "approaching"
	QueueActive      QueueStatus = "active"
	QueueCompleted   QueueStatus = "completed"
	QueueCancelled   QueueStatus = "cancelled"
	QueueExpired     QueueStatus = "expired"
)

func (s QueueStatus) Terminal() bool {
	switch s {
	case QueueCompleted, QueueCancelled, QueueExpired:
		return true
	}
	return false
}

// Rank orders the forward path of the state machine. Terminal statuses
// have no rank; transitions may never move backward.
func (s QueueStatus) Rank() int {
	switch s {
	case QueueConfirmed:
		return 1
	case QueueApproaching:
		return 2
	case QueueActive:
		return 3
	}
	return 0
}

// QueueSlot is the ordered-admission record for one swap booking.
// Invariant: per station, positions of non-terminal slots always form a
// contiguous run 1..N.
type QueueSlot struct {
	ID            string      `json:"id"`
	StationID     string      `json:"station_id"`
	UserID        string      `json:"user_id"`
	SwapID        string      `json:"swap_id"`
	Position      int         `json:"position"`
	Status        QueueStatus `json:"status"`
	QRToken       string      `json:"qr_token,omitempty"`
	EstimatedWait int         `json:"estimated_wait_minutes"`
	CompletedAt   time.Time   `json:"completed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// QueueEntry is the public view of a slot in status responses.
type QueueEntry struct {
	Position             int    `json:"position"`
	UserID               string `json:"user_id"`
	Status               string `json:"status"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

type QueueStatusInfo struct {
	StationID            string       `json:"station_id"`
	TotalInQueue         int          `json:"total_in_queue"`
	CurrentPosition      int          `json:"current_position,omitempty"`
	EstimatedWaitMinutes int          `json:"estimated_wait_minutes,omitempty"`
	Entries              []QueueEntry `json:"queue_entries"`
}
