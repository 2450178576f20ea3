package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/store"
)

// TransportService manages battery redistribution jobs between warehouses
// and stations, and the transporter credits they earn.
type TransportService struct {
	store  store.Store
	config *config.Config
}

func NewTransportService(st store.Store, cfg *config.Config) *TransportService {
	return &TransportService{store: st, config: cfg}
}

// CreateJob opens a pending transport job for a batch of batteries.
func (s *TransportService) CreateJob(ctx context.Context, fromLocation, toLocation string, batteryIDs []string, priority int) (*models.TransportJob, error) {
	if len(batteryIDs) == 0 {
		return nil, fmt.Errorf("transport job needs at least one battery")
	}
	if fromLocation == "" || toLocation == "" || fromLocation == toLocation {
		return nil, fmt.Errorf("invalid transport route %q -> %q", fromLocation, toLocation)
	}

	job := &models.TransportJob{
		FromLocation: fromLocation,
		ToLocation:   toLocation,
		BatteryIDs:   batteryIDs,
		Priority:     priority,
	}
	id, err := s.store.InsertJob(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.store.JobByID(ctx, id)
}

// AcceptJob claims a pending job for a transporter. The conditional update
// in the store decides races; the loser gets ErrJobNotPending.
func (s *TransportService) AcceptJob(ctx context.Context, jobID, transporterID string) (*models.TransportJob, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, status.ErrJobNotFound
	}

	claimed, err := s.store.AssignJob(ctx, jobID, transporterID, time.Now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, status.ErrJobNotPending
	}
	return s.store.JobByID(ctx, jobID)
}

// CompleteJob marks a delivery done, moves the batteries to the destination
// and credits the transporter. Credit math runs on decimals so the distance
// component never drifts.
func (s *TransportService) CompleteJob(ctx context.Context, jobID, transporterID string, distanceKm float64) (*models.TransportJob, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, status.ErrJobNotFound
	}
	if job.TransporterID != transporterID {
		return nil, status.ErrNotAssigned
	}

	credits := s.jobCredits(distanceKm, len(job.BatteryIDs))
	if err := s.store.CompleteJob(ctx, jobID, credits, time.Now()); err != nil {
		return nil, err
	}
	if err := s.store.MoveBatteries(ctx, job.BatteryIDs, job.ToLocation); err != nil {
		return nil, err
	}
	if err := s.store.AddCredits(ctx, transporterID, credits); err != nil {
		return nil, err
	}
	if err := s.store.InsertCreditEntry(ctx, transporterID, credits, "transport_job", jobID); err != nil {
		return nil, err
	}

	return s.store.JobByID(ctx, jobID)
}

// jobCredits = base + distance * multiplier + batteries * per-battery rate.
func (s *TransportService) jobCredits(distanceKm float64, batteryCount int) int {
	base := decimal.NewFromInt(int64(s.config.TransportBaseCredits))
	distance := decimal.NewFromFloat(distanceKm).
		Mul(decimal.NewFromFloat(s.config.TransportDistanceMultiplier))
	batteries := decimal.NewFromInt(int64(batteryCount * s.config.TransportPerBatteryCredits))

	return int(base.Add(distance).Add(batteries).Round(0).IntPart())
}

func (s *TransportService) PendingJobs(ctx context.Context, limit int) ([]*models.TransportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListPendingJobs(ctx, limit)
}
