package services

import (
	"context"
	"fmt"
	"time"

	"navswap/internal/status"
	"navswap/models"
	"navswap/store"
)

const divertedShiftHours = 8

// StaffService manages station staffing: shift assignments and emergency
// diversions between stations.
type StaffService struct {
	store store.Store
}

func NewStaffService(st store.Store) *StaffService {
	return &StaffService{store: st}
}

// AssignStaff puts a staff member on shift at a station, ending any
// assignment they already hold elsewhere.
func (s *StaffService) AssignStaff(ctx context.Context, staffID, stationID string, shiftStart, shiftEnd time.Time) (*models.StaffAssignment, error) {
	station, err := s.store.StationByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, status.ErrStationNotFound
	}
	if !shiftEnd.After(shiftStart) {
		return nil, fmt.Errorf("shift end %v not after start %v", shiftEnd, shiftStart)
	}

	existing, err := s.store.ActiveAssignment(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		err := s.store.EndAssignments(ctx, existing.StationID, []string{staffID}, "reassigned", time.Now())
		if err != nil {
			return nil, err
		}
	}

	assignment := &models.StaffAssignment{
		StaffID:    staffID,
		StationID:  stationID,
		ShiftStart: shiftStart,
		ShiftEnd:   shiftEnd,
		IsActive:   true,
	}
	id, err := s.store.InsertAssignment(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = id
	return assignment, nil
}

// DivertStaff moves staff from one station to another mid-shift, recording
// the reason on the assignments it closes.
func (s *StaffService) DivertStaff(ctx context.Context, fromStationID, toStationID string, staffIDs []string, reason string) ([]*models.StaffAssignment, error) {
	if len(staffIDs) == 0 {
		return nil, fmt.Errorf("no staff to divert")
	}
	target, err := s.store.StationByID(ctx, toStationID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, status.ErrStationNotFound
	}

	now := time.Now()
	if err := s.store.EndAssignments(ctx, fromStationID, staffIDs, reason, now); err != nil {
		return nil, err
	}

	assignments := make([]*models.StaffAssignment, 0, len(staffIDs))
	for _, staffID := range staffIDs {
		assignment := &models.StaffAssignment{
			StaffID:    staffID,
			StationID:  toStationID,
			ShiftStart: now,
			ShiftEnd:   now.Add(divertedShiftHours * time.Hour),
			IsActive:   true,
		}
		id, err := s.store.InsertAssignment(ctx, assignment)
		if err != nil {
			return nil, err
		}
		assignment.ID = id
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

func (s *StaffService) AssignmentHistory(ctx context.Context, staffID string, limit int) ([]*models.StaffAssignment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.AssignmentHistory(ctx, staffID, limit)
}

func (s *StaffService) StationRoster(ctx context.Context, stationID string) ([]*models.StaffAssignment, error) {
	return s.store.StationAssignments(ctx, stationID)
}
