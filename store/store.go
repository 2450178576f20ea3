// Package store abstracts the durable document store behind small
// per-concern interfaces so services can be tested against in-memory fakes.
// The production implementation is backed by PocketBase.
package store

import (
	"context"
	"time"

	"navswap/models"
)

// QueueStore persists queue slots. Lookups returning a single record yield
// (nil, nil) when no matching record exists.
type QueueStore interface {
	// ActiveSlot returns the user's non-terminal slot at a station, if any.
	ActiveSlot(ctx context.Context, stationID, userID string) (*models.QueueSlot, error)
	// CountActive counts non-terminal slots at a station.
	CountActive(ctx context.Context, stationID string) (int, error)
	InsertSlot(ctx context.Context, slot *models.QueueSlot) (string, error)
	UpdateSlotStatus(ctx context.Context, slotID string, status models.QueueStatus) error
	// FinalizeSlot stamps a terminal status and completion time.
	FinalizeSlot(ctx context.Context, slotID string, status models.QueueStatus, completedAt time.Time) error
	// ShiftPositionsAfter decrements, in one atomic statement, the position
	// of every non-terminal slot at the station whose position is greater
	// than the given one.
	ShiftPositionsAfter(ctx context.Context, stationID string, position int) error
	// ListActive returns non-terminal slots ordered by ascending position.
	ListActive(ctx context.Context, stationID string) ([]*models.QueueSlot, error)
	ListStaleConfirmed(ctx context.Context, cutoff time.Time) ([]*models.QueueSlot, error)
	AttachSlotToken(ctx context.Context, slotID, token string) error
}

// SwapStore persists swap bookings.
type SwapStore interface {
	InsertSwap(ctx context.Context, swap *models.Swap) (string, error)
	SwapByID(ctx context.Context, id string) (*models.Swap, error)
	// ActiveSwapForUser returns the user's swap in confirmed or approaching
	// status, if any. At most one exists by invariant.
	ActiveSwapForUser(ctx context.Context, userID string) (*models.Swap, error)
	// ActiveSwap returns the user's non-terminal swap at a station, if any.
	ActiveSwap(ctx context.Context, stationID, userID string) (*models.Swap, error)
	UpdateSwapStatus(ctx context.Context, swapID string, status models.SwapStatus, set map[string]any) error
	AttachSwapToken(ctx context.Context, swapID, token string) error
	ListUserSwaps(ctx context.Context, userID string, limit int) ([]*models.Swap, error)
}

// TokenStore persists the durable audit record for QR tokens.
type TokenStore interface {
	InsertToken(ctx context.Context, rec *models.TokenRecord) error
	TokenByValue(ctx context.Context, token string) (*models.TokenRecord, error)
	// ConsumeToken flips used=false to true, returning whether this call won
	// the flip. Concurrent consumers of one token see exactly one true.
	ConsumeToken(ctx context.Context, token string, usedAt time.Time) (bool, error)
	// DeleteExpiredUsed removes records that are both expired and used.
	// Unused expired records are kept for audit.
	DeleteExpiredUsed(ctx context.Context, now time.Time) (int, error)
}

type StationStore interface {
	StationByID(ctx context.Context, id string) (*models.Station, error)
	ListStations(ctx context.Context, activeOnly bool, limit int) ([]*models.Station, error)
}

// LocationStore persists GPS samples for history and audit.
type LocationStore interface {
	InsertSample(ctx context.Context, sample *models.LocationSample) error
	LatestSample(ctx context.Context, userID string) (*models.LocationSample, error)
	SamplesSince(ctx context.Context, userID string, since time.Time, limit int) ([]*models.LocationSample, error)
	RecentSamples(ctx context.Context, since time.Time, limit int) ([]*models.LocationSample, error)
}

// OpsStore covers the operational collaborators: transport jobs, staff
// assignments, batteries, tickets and the credit ledger.
type OpsStore interface {
	InsertJob(ctx context.Context, job *models.TransportJob) (string, error)
	JobByID(ctx context.Context, id string) (*models.TransportJob, error)
	// AssignJob conditionally moves a pending job to assigned; returns false
	// when the job was already claimed.
	AssignJob(ctx context.Context, jobID, transporterID string, at time.Time) (bool, error)
	CompleteJob(ctx context.Context, jobID string, credits int, at time.Time) error
	ListPendingJobs(ctx context.Context, limit int) ([]*models.TransportJob, error)

	InsertAssignment(ctx context.Context, a *models.StaffAssignment) (string, error)
	ActiveAssignment(ctx context.Context, staffID string) (*models.StaffAssignment, error)
	AssignmentHistory(ctx context.Context, staffID string, limit int) ([]*models.StaffAssignment, error)
	StationAssignments(ctx context.Context, stationID string) ([]*models.StaffAssignment, error)
	EndAssignments(ctx context.Context, stationID string, staffIDs []string, reason string, at time.Time) error

	UpdateBattery(ctx context.Context, batteryID string, set map[string]any) error
	MoveBatteries(ctx context.Context, batteryIDs []string, location string) error

	InsertTicket(ctx context.Context, t *models.Ticket) (string, error)

	AddCredits(ctx context.Context, userID string, amount int) error
	InsertCreditEntry(ctx context.Context, userID string, amount int, entryType, relatedID string) error
}

// Store is the full durable-store surface the application wires at startup.
type Store interface {
	QueueStore
	SwapStore
	TokenStore
	StationStore
	LocationStore
	OpsStore
}
