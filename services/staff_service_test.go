package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navswap/internal/status"
	"navswap/models"
)

func setupStaffTest(t *testing.T) (*StaffService, *fakeStore) {
	t.Helper()

	st := newFakeStore()
	st.addStation(&models.Station{ID: "st1", Name: "Riverside", IsActive: true})
	st.addStation(&models.Station{ID: "st2", Name: "Airport", IsActive: true})
	return NewStaffService(st), st
}

func TestAssignStaff_EndsPreviousAssignment(t *testing.T) {
	service, st := setupStaffTest(t)
	ctx := context.Background()
	now := time.Now()

	first, err := service.AssignStaff(ctx, "staff1", "st1", now, now.Add(8*time.Hour))
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := service.AssignStaff(ctx, "staff1", "st2", now, now.Add(8*time.Hour))
	require.NoError(t, err)

	active, err := st.ActiveAssignment(ctx, "staff1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "st2", active.StationID)
}

func TestAssignStaff_Validation(t *testing.T) {
	service, _ := setupStaffTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := service.AssignStaff(ctx, "staff1", "nope", now, now.Add(time.Hour))
	assert.ErrorIs(t, err, status.ErrStationNotFound)

	_, err = service.AssignStaff(ctx, "staff1", "st1", now, now)
	assert.Error(t, err)
}

func TestDivertStaff_MovesRoster(t *testing.T) {
	service, st := setupStaffTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := service.AssignStaff(ctx, "staff1", "st1", now, now.Add(8*time.Hour))
	require.NoError(t, err)
	_, err = service.AssignStaff(ctx, "staff2", "st1", now, now.Add(8*time.Hour))
	require.NoError(t, err)

	moved, err := service.DivertStaff(ctx, "st1", "st2", []string{"staff1"}, "surge at airport")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "st2", moved[0].StationID)

	fromRoster, err := st.StationAssignments(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, fromRoster, 1)
	assert.Equal(t, "staff2", fromRoster[0].StaffID)

	toRoster, err := st.StationAssignments(ctx, "st2")
	require.NoError(t, err)
	require.Len(t, toRoster, 1)
	assert.Equal(t, "staff1", toRoster[0].StaffID)
}

func TestDivertStaff_Validation(t *testing.T) {
	service, _ := setupStaffTest(t)
	ctx := context.Background()

	_, err := service.DivertStaff(ctx, "st1", "st2", nil, "reason")
	assert.Error(t, err)

	_, err = service.DivertStaff(ctx, "st1", "nope", []string{"staff1"}, "reason")
	assert.ErrorIs(t, err, status.ErrStationNotFound)
}
