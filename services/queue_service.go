package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/monitoring"
	"navswap/store"
)

const queueLengthPrefix = "queue:length:"

// QueueService is the ordered-admission engine. It is the only writer of
// queue slots and of swap status; geofencing and QR scans route their
// transitions through it. Per-station locks serialize mutations so positions
// stay a contiguous 1..N run.
type QueueService struct {
	Redis   *redis.Client
	store   store.Store
	pubnub  *pubnub.PubNub
	monitor *monitoring.Monitor
	config  *config.Config

	mu           sync.Mutex
	stationLocks map[string]*sync.Mutex
}

func NewQueueService(redisClient *redis.Client, st store.Store, pn *pubnub.PubNub, monitor *monitoring.Monitor, cfg *config.Config) *QueueService {
	return &QueueService{
		Redis:        redisClient,
		store:        st,
		pubnub:       pn,
		monitor:      monitor,
		config:       cfg,
		stationLocks: make(map[string]*sync.Mutex),
	}
}

func (s *QueueService) stationLock(stationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.stationLocks[stationID]
	if !ok {
		lock = &sync.Mutex{}
		s.stationLocks[stationID] = lock
	}
	return lock
}

// estimateWait computes the wait for a given position: everyone ahead costs
// an average swap plus a changeover buffer, jittered ±20% so clients don't
// treat the figure as a promise. Never below one minute.
func (s *QueueService) estimateWait(position int) int {
	base := float64((position - 1) * (s.config.AvgSwapMinutes + s.config.QueueBufferMinutes))
	jittered := base * (0.8 + 0.4*rand.Float64())
	minutes := int(jittered)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Enqueue books a swap and appends the user to the station's queue.
// Precondition order is fixed: duplicate membership first, then capacity.
func (s *QueueService) Enqueue(ctx context.Context, stationID, userID string) (*models.QueueSlot, error) {
	station, err := s.store.StationByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, status.ErrStationNotFound
	}
	if !station.IsActive {
		return nil, status.ErrStationInactive
	}

	lock := s.stationLock(stationID)
	lock.Lock()
	slot, err := s.enqueueLocked(ctx, station, userID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	// Cache and push work runs off the lock; a slow broker must not stall
	// the station.
	s.cacheQueueLength(ctx, stationID, slot.Position)
	s.notifyUser(userID, map[string]any{
		"type":                   "queue_confirmed",
		"station_id":             stationID,
		"position":               slot.Position,
		"estimated_wait_minutes": slot.EstimatedWait,
	})

	s.monitor.TrackQueueOperation("enqueue", stationID, "success")
	s.monitor.TrackWaitEstimate(stationID, slot.EstimatedWait)
	return slot, nil
}

// enqueueLocked runs the store mutations of an enqueue. Callers hold the
// station lock.
func (s *QueueService) enqueueLocked(ctx context.Context, station *models.Station, userID string) (*models.QueueSlot, error) {
	existing, err := s.store.ActiveSlot(ctx, station.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.monitor.TrackQueueOperation("enqueue", station.ID, "duplicate")
		return nil, status.ErrAlreadyQueued
	}

	count, err := s.store.CountActive(ctx, station.ID)
	if err != nil {
		return nil, err
	}
	capacity := s.config.QueueMaxCapacity
	if station.Capacity > 0 {
		capacity = station.Capacity
	}
	if count >= capacity {
		s.monitor.TrackQueueOperation("enqueue", station.ID, "full")
		return nil, status.ErrQueueFull
	}

	swapID, err := s.store.InsertSwap(ctx, &models.Swap{
		UserID:    userID,
		StationID: station.ID,
		Status:    models.SwapConfirmed,
	})
	if err != nil {
		return nil, err
	}

	slot := &models.QueueSlot{
		StationID:     station.ID,
		UserID:        userID,
		SwapID:        swapID,
		Position:      count + 1,
		Status:        models.QueueConfirmed,
		EstimatedWait: s.estimateWait(count + 1),
	}
	slotID, err := s.store.InsertSlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	slot.ID = slotID
	return slot, nil
}

// TransitionStatus advances a user's slot (and its swap, in lockstep) along
// confirmed -> approaching -> active. Repeating the current status is an
// idempotent success; moving backward is rejected. swapSet carries extra swap
// fields to stamp in the same update, such as the staff who scanned.
func (s *QueueService) TransitionStatus(ctx context.Context, stationID, userID string, target models.QueueStatus, swapSet map[string]any) error {
	lock := s.stationLock(stationID)
	lock.Lock()
	changed, err := s.transitionLocked(ctx, stationID, userID, target, swapSet)
	lock.Unlock()
	if err != nil || !changed {
		return err
	}

	s.notifyUser(userID, map[string]any{
		"type":       "status_change",
		"station_id": stationID,
		"status":     string(target),
	})
	s.monitor.TrackQueueOperation("transition", stationID, string(target))
	return nil
}

// transitionLocked runs the store mutations of a transition and reports
// whether anything changed. Callers hold the station lock.
func (s *QueueService) transitionLocked(ctx context.Context, stationID, userID string, target models.QueueStatus, swapSet map[string]any) (bool, error) {
	slot, err := s.store.ActiveSlot(ctx, stationID, userID)
	if err != nil {
		return false, err
	}
	if slot == nil {
		return false, status.ErrSlotNotFound
	}
	if slot.Status == target {
		return false, nil
	}
	if target.Rank() <= slot.Status.Rank() {
		return false, status.ErrBackwardChange
	}

	if err := s.store.UpdateSlotStatus(ctx, slot.ID, target); err != nil {
		return false, err
	}

	swapStatus := models.SwapApproaching
	if target == models.QueueActive {
		swapStatus = models.SwapActive
		if swapSet == nil {
			swapSet = map[string]any{}
		}
		swapSet["started_at"] = time.Now().UTC()
	}
	if err := s.store.UpdateSwapStatus(ctx, slot.SwapID, swapStatus, swapSet); err != nil {
		return false, err
	}
	return true, nil
}

// Dequeue finalizes a user's slot with a terminal outcome and compacts the
// queue behind it in a single statement, so remaining positions stay 1..N.
func (s *QueueService) Dequeue(ctx context.Context, stationID, userID string, outcome models.QueueStatus, swapSet map[string]any) error {
	lock := s.stationLock(stationID)
	lock.Lock()
	slot, err := s.store.ActiveSlot(ctx, stationID, userID)
	if err == nil && slot == nil {
		err = status.ErrSlotNotFound
	}
	if err == nil {
		err = s.finalizeLocked(ctx, slot, outcome, swapSet)
	}
	lock.Unlock()
	if err != nil {
		return err
	}

	s.afterFinalize(ctx, stationID, outcome)
	return nil
}

// finalizeLocked does the terminal store writes. Callers hold the station
// lock; cache refresh and pushes happen in afterFinalize once it is released.
func (s *QueueService) finalizeLocked(ctx context.Context, slot *models.QueueSlot, outcome models.QueueStatus, swapSet map[string]any) error {
	now := time.Now()

	if err := s.store.FinalizeSlot(ctx, slot.ID, outcome, now); err != nil {
		return err
	}
	if err := s.store.ShiftPositionsAfter(ctx, slot.StationID, slot.Position); err != nil {
		return err
	}

	swapStatus := models.SwapCancelled
	if outcome == models.QueueCompleted {
		swapStatus = models.SwapCompleted
	}
	if swapSet == nil {
		swapSet = map[string]any{}
	}
	swapSet["completed_at"] = now.UTC()
	return s.store.UpdateSwapStatus(ctx, slot.SwapID, swapStatus, swapSet)
}

// afterFinalize refreshes the length cache and pushes fresh positions after
// a terminal write, with the station lock already released.
func (s *QueueService) afterFinalize(ctx context.Context, stationID string, outcome models.QueueStatus) {
	if count, err := s.store.CountActive(ctx, stationID); err == nil {
		s.cacheQueueLength(ctx, stationID, count)
	}
	s.notifyPositions(ctx, stationID)

	s.monitor.TrackQueueOperation("dequeue", stationID, string(outcome))
}

// Status returns the station's queue as seen by one user.
func (s *QueueService) Status(ctx context.Context, stationID, userID string) (*models.QueueStatusInfo, error) {
	slots, err := s.store.ListActive(ctx, stationID)
	if err != nil {
		return nil, err
	}

	info := &models.QueueStatusInfo{
		StationID:    stationID,
		TotalInQueue: len(slots),
		Entries:      make([]models.QueueEntry, 0, len(slots)),
	}
	for _, slot := range slots {
		info.Entries = append(info.Entries, models.QueueEntry{
			Position:             slot.Position,
			UserID:               slot.UserID,
			Status:               string(slot.Status),
			EstimatedWaitMinutes: slot.EstimatedWait,
		})
		if slot.UserID == userID {
			info.CurrentPosition = slot.Position
			info.EstimatedWaitMinutes = slot.EstimatedWait
		}
	}
	return info, nil
}

// AvailableSlots reports remaining queue capacity at a station.
func (s *QueueService) AvailableSlots(ctx context.Context, stationID string) (int, error) {
	station, err := s.store.StationByID(ctx, stationID)
	if err != nil {
		return 0, err
	}
	if station == nil {
		return 0, status.ErrStationNotFound
	}

	count, err := s.store.CountActive(ctx, stationID)
	if err != nil {
		return 0, err
	}
	capacity := s.config.QueueMaxCapacity
	if station.Capacity > 0 {
		capacity = station.Capacity
	}

	available := capacity - count
	if available < 0 {
		available = 0
	}
	return available, nil
}

// ExpireStale sweeps confirmed slots older than the stale age through the
// same compaction path a normal dequeue takes, so positions never gap.
func (s *QueueService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.config.StaleQueueAge)
	slots, err := s.store.ListStaleConfirmed(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, slot := range slots {
		lock := s.stationLock(slot.StationID)
		lock.Lock()
		// Re-read under the lock; the slot may have moved on since listing.
		current, err := s.store.ActiveSlot(ctx, slot.StationID, slot.UserID)
		if err != nil || current == nil || current.Status != models.QueueConfirmed {
			lock.Unlock()
			continue
		}
		if err := s.finalizeLocked(ctx, current, models.QueueExpired, nil); err != nil {
			log.Printf("queue: expiring slot %s failed: %v", current.ID, err)
			lock.Unlock()
			continue
		}
		lock.Unlock()

		s.afterFinalize(ctx, slot.StationID, models.QueueExpired)
		s.notifyUser(slot.UserID, map[string]any{
			"type":       "queue_expired",
			"station_id": slot.StationID,
		})
		expired++
	}
	return expired, nil
}

// ReconcileLengthCache rewrites every active station's cached queue length
// from the durable count. The cache can drift when a write is dropped; the
// sweep keeps the gauges honest.
func (s *QueueService) ReconcileLengthCache(ctx context.Context) error {
	stations, err := s.store.ListStations(ctx, true, 0)
	if err != nil {
		return err
	}
	for _, station := range stations {
		count, err := s.store.CountActive(ctx, station.ID)
		if err != nil {
			log.Printf("queue: reconcile count for %s failed: %v", station.ID, err)
			continue
		}
		s.cacheQueueLength(ctx, station.ID, count)
	}
	return nil
}

func (s *QueueService) cacheQueueLength(ctx context.Context, stationID string, length int) {
	key := queueLengthPrefix + stationID
	if err := s.Redis.Set(ctx, key, length, time.Hour).Err(); err != nil {
		log.Printf("queue: length cache write failed: %v", err)
	}
}

// notifyPositions pushes fresh positions to everyone still queued after a
// compaction.
func (s *QueueService) notifyPositions(ctx context.Context, stationID string) {
	slots, err := s.store.ListActive(ctx, stationID)
	if err != nil {
		log.Printf("queue: listing slots for notify failed: %v", err)
		return
	}
	for _, slot := range slots {
		s.notifyUser(slot.UserID, map[string]any{
			"type":       "queue_position",
			"station_id": stationID,
			"position":   slot.Position,
		})
	}
}

func (s *QueueService) notifyUser(userID string, message map[string]any) {
	if s.pubnub == nil {
		return
	}
	channel := fmt.Sprintf("user-%s", userID)
	s.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}
