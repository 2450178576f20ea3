package models

import "time"

type TransportJobStatus string

const (
	JobPending   TransportJobStatus = "pending"
	JobAssigned  TransportJobStatus = "assigned"
	JobInTransit TransportJobStatus = "in_transit"
	JobDelivered TransportJobStatus = "delivered"
	JobCancelled TransportJobStatus = "cancelled"
)

type TransportJob struct {
	ID            string             `json:"id"`
	FromLocation  string             `json:"from_location"`
	ToLocation    string             `json:"to_location"`
	BatteryIDs    []string           `json:"battery_ids"`
	BatteryCount  int                `json:"battery_count"`
	Status        TransportJobStatus `json:"status"`
	Priority      int                `json:"priority"`
	TransporterID string             `json:"assigned_transporter_id,omitempty"`
	DistanceKm    float64            `json:"distance_km,omitempty"`
	CreditsEarned int                `json:"credits_earned,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	AcceptedAt    time.Time          `json:"accepted_at,omitempty"`
	CompletedAt   time.Time          `json:"completed_at,omitempty"`
}

type StaffAssignment struct {
	ID         string    `json:"id"`
	StaffID    string    `json:"staff_id"`
	StationID  string    `json:"station_id"`
	ShiftStart time.Time `json:"shift_start"`
	ShiftEnd   time.Time `json:"shift_end"`
	IsActive   bool      `json:"is_active"`
}

type Ticket struct {
	ID           string    `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	Status       string    `json:"status"`
	EntityType   string    `json:"related_entity_type"`
	EntityID     string    `json:"related_entity_id"`
	FaultLevel   string    `json:"fault_level"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Priority     int       `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
}
