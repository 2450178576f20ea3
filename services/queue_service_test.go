package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/monitoring"
)

func setupQueueTest(t *testing.T) (*QueueService, *fakeStore) {
	t.Helper()

	db, _ := redismock.NewClientMock()
	st := newFakeStore()
	st.addStation(&models.Station{
		ID:       "st1",
		Name:     "Riverside",
		Location: models.Location{Latitude: 17.9757, Longitude: 102.6331},
		Capacity: 3,
		IsActive: true,
	})
	st.addStation(&models.Station{
		ID:       "st2",
		Name:     "Airport",
		Location: models.Location{Latitude: 17.9883, Longitude: 102.5631},
		IsActive: false,
	})

	cfg := &config.Config{
		QueueMaxCapacity:   20,
		AvgSwapMinutes:     5,
		QueueBufferMinutes: 2,
		StaleQueueAge:      2 * time.Hour,
	}

	return NewQueueService(db, st, nil, &monitoring.Monitor{}, cfg), st
}

func TestEnqueue_AssignsSequentialPositions(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	for i, userID := range []string{"u1", "u2", "u3"} {
		slot, err := service.Enqueue(ctx, "st1", userID)
		require.NoError(t, err)
		assert.Equal(t, i+1, slot.Position)
		assert.Equal(t, models.QueueConfirmed, slot.Status)
		assert.GreaterOrEqual(t, slot.EstimatedWait, 1)

		swap, err := st.SwapByID(ctx, slot.SwapID)
		require.NoError(t, err)
		require.NotNil(t, swap)
		assert.Equal(t, models.SwapConfirmed, swap.Status)
		assert.Equal(t, userID, swap.UserID)
	}
}

func TestEnqueue_DuplicateRejected(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	_, err = service.Enqueue(ctx, "st1", "u1")
	assert.ErrorIs(t, err, status.ErrAlreadyQueued)
}

func TestEnqueue_QueueFull(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	// Station st1 has capacity 3.
	for _, userID := range []string{"u1", "u2", "u3"} {
		_, err := service.Enqueue(ctx, "st1", userID)
		require.NoError(t, err)
	}

	_, err := service.Enqueue(ctx, "st1", "u4")
	assert.ErrorIs(t, err, status.ErrQueueFull)
}

func TestEnqueue_StationChecks(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "nope", "u1")
	assert.ErrorIs(t, err, status.ErrStationNotFound)

	_, err = service.Enqueue(ctx, "st2", "u1")
	assert.ErrorIs(t, err, status.ErrStationInactive)
}

func TestEnqueue_DuplicateCheckedBeforeCapacity(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2", "u3"} {
		_, err := service.Enqueue(ctx, "st1", userID)
		require.NoError(t, err)
	}

	// u1 is queued and the queue is full; the duplicate error wins.
	_, err := service.Enqueue(ctx, "st1", "u1")
	assert.ErrorIs(t, err, status.ErrAlreadyQueued)
}

func TestEnqueue_ConcurrentUsersGetUniquePositions(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	users := []string{"u1", "u2", "u3"}
	var wg sync.WaitGroup
	for _, userID := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := service.Enqueue(ctx, "st1", userID)
			assert.NoError(t, err)
		}(userID)
	}
	wg.Wait()

	// No two slots may share a position; together they form 1..3.
	slots, err := st.ListActive(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i, slot := range slots {
		assert.Equal(t, i+1, slot.Position)
	}
}

func TestTransitionStatus_ForwardPath(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	slot, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueApproaching, nil))

	current, err := st.ActiveSlot(ctx, "st1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueApproaching, current.Status)

	swap, err := st.SwapByID(ctx, slot.SwapID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapApproaching, swap.Status)

	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueActive,
		map[string]any{"staff_id": "staff1"}))

	swap, err = st.SwapByID(ctx, slot.SwapID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapActive, swap.Status)
	assert.Equal(t, "staff1", swap.StaffID)
	assert.False(t, swap.StartedAt.IsZero())
}

func TestTransitionStatus_IdempotentRepeat(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueApproaching, nil))
	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueApproaching, nil))

	current, err := st.ActiveSlot(ctx, "st1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueApproaching, current.Status)
}

func TestTransitionStatus_BackwardRejected(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)
	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueActive, nil))

	err = service.TransitionStatus(ctx, "st1", "u1", models.QueueApproaching, nil)
	assert.ErrorIs(t, err, status.ErrBackwardChange)
}

func TestTransitionStatus_NoSlot(t *testing.T) {
	service, _ := setupQueueTest(t)

	err := service.TransitionStatus(context.Background(), "st1", "ghost", models.QueueApproaching, nil)
	assert.ErrorIs(t, err, status.ErrSlotNotFound)
}

func TestDequeue_CompactsPositions(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2", "u3"} {
		_, err := service.Enqueue(ctx, "st1", userID)
		require.NoError(t, err)
	}

	require.NoError(t, service.Dequeue(ctx, "st1", "u2", models.QueueCancelled, nil))

	slots, err := st.ListActive(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "u1", slots[0].UserID)
	assert.Equal(t, 1, slots[0].Position)
	assert.Equal(t, "u3", slots[1].UserID)
	assert.Equal(t, 2, slots[1].Position)
}

func TestDequeue_PushesPositionsOffTheStationLock(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	// The post-dequeue position push lists active slots; by then the station
	// lock must already be free so slow pushes cannot stall other callers.
	var sawUnlocked bool
	st.onListActive = func() {
		lock := service.stationLock("st1")
		if lock.TryLock() {
			lock.Unlock()
			sawUnlocked = true
		}
	}

	require.NoError(t, service.Dequeue(ctx, "st1", "u1", models.QueueCancelled, nil))
	assert.True(t, sawUnlocked)
}

func TestDequeue_TerminalSwapState(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	slot, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	require.NoError(t, service.Dequeue(ctx, "st1", "u1", models.QueueCompleted, nil))

	swap, err := st.SwapByID(ctx, slot.SwapID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapCompleted, swap.Status)
	assert.False(t, swap.CompletedAt.IsZero())

	// The slot is terminal now; a second dequeue has nothing to act on.
	err = service.Dequeue(ctx, "st1", "u1", models.QueueCancelled, nil)
	assert.ErrorIs(t, err, status.ErrSlotNotFound)
}

func TestExpireStale_SweepsOldConfirmedSlots(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	slot1, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)
	_, err = service.Enqueue(ctx, "st1", "u2")
	require.NoError(t, err)

	// Backdate u1's slot past the stale age.
	st.mu.Lock()
	st.slots[slot1.ID].CreatedAt = time.Now().Add(-3 * time.Hour)
	st.mu.Unlock()

	expired, err := service.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	slots, err := st.ListActive(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "u2", slots[0].UserID)
	assert.Equal(t, 1, slots[0].Position)

	swap, err := st.SwapByID(ctx, slot1.SwapID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapCancelled, swap.Status)
}

func TestExpireStale_SkipsApproachingSlots(t *testing.T) {
	service, st := setupQueueTest(t)
	ctx := context.Background()

	slot, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)
	require.NoError(t, service.TransitionStatus(ctx, "st1", "u1", models.QueueApproaching, nil))

	st.mu.Lock()
	st.slots[slot.ID].CreatedAt = time.Now().Add(-3 * time.Hour)
	st.mu.Unlock()

	expired, err := service.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestReconcileLengthCache_CountsAllActiveStations(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	_, err := service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	// Cache writes against the mock just log; the sweep itself must not fail.
	require.NoError(t, service.ReconcileLengthCache(ctx))
}

func TestEstimateWait_Bounds(t *testing.T) {
	service, _ := setupQueueTest(t)

	// Head of the queue still gets the one minute floor.
	assert.Equal(t, 1, service.estimateWait(1))

	// Position 5: base 28 minutes, jittered within ±20%.
	for i := 0; i < 50; i++ {
		wait := service.estimateWait(5)
		assert.GreaterOrEqual(t, wait, 22)
		assert.LessOrEqual(t, wait, 34)
	}
}

func TestAvailableSlots(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	available, err := service.AvailableSlots(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, 3, available)

	_, err = service.Enqueue(ctx, "st1", "u1")
	require.NoError(t, err)

	available, err = service.AvailableSlots(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestStatus_MarksCallerPosition(t *testing.T) {
	service, _ := setupQueueTest(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		_, err := service.Enqueue(ctx, "st1", userID)
		require.NoError(t, err)
	}

	info, err := service.Status(ctx, "st1", "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, info.TotalInQueue)
	assert.Equal(t, 2, info.CurrentPosition)
	require.Len(t, info.Entries, 2)
	assert.Equal(t, 1, info.Entries[0].Position)
}
