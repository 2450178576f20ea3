package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"navswap/models"
)

// fakeStore is an in-memory store.Store used by the service tests.
type fakeStore struct {
	mu sync.Mutex

	// onListActive, when set, runs at the start of every ListActive call.
	onListActive func()

	nextID int

	stations    map[string]*models.Station
	slots       map[string]*models.QueueSlot
	swaps       map[string]*models.Swap
	tokens      map[string]*models.TokenRecord
	samples     []*models.LocationSample
	jobs        map[string]*models.TransportJob
	assignments map[string]*models.StaffAssignment
	batteries   map[string]map[string]any
	tickets     map[string]*models.Ticket
	credits     map[string]int
	ledger      []ledgerEntry
}

type ledgerEntry struct {
	UserID    string
	Amount    int
	Type      string
	RelatedID string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stations:    make(map[string]*models.Station),
		slots:       make(map[string]*models.QueueSlot),
		swaps:       make(map[string]*models.Swap),
		tokens:      make(map[string]*models.TokenRecord),
		jobs:        make(map[string]*models.TransportJob),
		assignments: make(map[string]*models.StaffAssignment),
		batteries:   make(map[string]map[string]any),
		tickets:     make(map[string]*models.Ticket),
		credits:     make(map[string]int),
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("id%04d", f.nextID)
}

func (f *fakeStore) addStation(station *models.Station) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stations[station.ID] = station
}

// ----- QueueStore -----

func (f *fakeStore) ActiveSlot(ctx context.Context, stationID, userID string) (*models.QueueSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slot := range f.slots {
		if slot.StationID == stationID && slot.UserID == userID && !slot.Status.Terminal() {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CountActive(ctx context.Context, stationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, slot := range f.slots {
		if slot.StationID == stationID && !slot.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertSlot(ctx context.Context, slot *models.QueueSlot) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *slot
	copied.ID = f.genID()
	copied.CreatedAt = time.Now()
	f.slots[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStore) UpdateSlotStatus(ctx context.Context, slotID string, status models.QueueStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok {
		return fmt.Errorf("slot %s not found", slotID)
	}
	slot.Status = status
	return nil
}

func (f *fakeStore) FinalizeSlot(ctx context.Context, slotID string, status models.QueueStatus, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok {
		return fmt.Errorf("slot %s not found", slotID)
	}
	slot.Status = status
	slot.CompletedAt = completedAt
	return nil
}

func (f *fakeStore) ShiftPositionsAfter(ctx context.Context, stationID string, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slot := range f.slots {
		if slot.StationID == stationID && slot.Position > position && !slot.Status.Terminal() {
			slot.Position--
		}
	}
	return nil
}

func (f *fakeStore) ListActive(ctx context.Context, stationID string) ([]*models.QueueSlot, error) {
	if f.onListActive != nil {
		f.onListActive()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*models.QueueSlot
	for _, slot := range f.slots {
		if slot.StationID == stationID && !slot.Status.Terminal() {
			copied := *slot
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Position < active[j].Position })
	return active, nil
}

func (f *fakeStore) ListStaleConfirmed(ctx context.Context, cutoff time.Time) ([]*models.QueueSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stale []*models.QueueSlot
	for _, slot := range f.slots {
		if slot.Status == models.QueueConfirmed && slot.CreatedAt.Before(cutoff) {
			copied := *slot
			stale = append(stale, &copied)
		}
	}
	return stale, nil
}

func (f *fakeStore) AttachSlotToken(ctx context.Context, slotID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok {
		return fmt.Errorf("slot %s not found", slotID)
	}
	slot.QRToken = token
	return nil
}

// ----- SwapStore -----

func (f *fakeStore) InsertSwap(ctx context.Context, swap *models.Swap) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *swap
	copied.ID = f.genID()
	copied.CreatedAt = time.Now()
	f.swaps[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStore) SwapByID(ctx context.Context, id string) (*models.Swap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	swap, ok := f.swaps[id]
	if !ok {
		return nil, nil
	}
	copied := *swap
	return &copied, nil
}

func (f *fakeStore) ActiveSwapForUser(ctx context.Context, userID string) (*models.Swap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, swap := range f.swaps {
		if swap.UserID != userID {
			continue
		}
		if swap.Status == models.SwapConfirmed || swap.Status == models.SwapApproaching {
			copied := *swap
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ActiveSwap(ctx context.Context, stationID, userID string) (*models.Swap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, swap := range f.swaps {
		if swap.StationID == stationID && swap.UserID == userID && !swap.Status.Terminal() {
			copied := *swap
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateSwapStatus(ctx context.Context, swapID string, status models.SwapStatus, set map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	swap, ok := f.swaps[swapID]
	if !ok {
		return fmt.Errorf("swap %s not found", swapID)
	}
	swap.Status = status
	for key, value := range set {
		switch key {
		case "staff_id":
			swap.StaffID, _ = value.(string)
		case "old_battery_id":
			swap.OldBatteryID, _ = value.(string)
		case "new_battery_id":
			swap.NewBatteryID, _ = value.(string)
		case "started_at":
			swap.StartedAt, _ = value.(time.Time)
		case "completed_at":
			swap.CompletedAt, _ = value.(time.Time)
		}
	}
	return nil
}

func (f *fakeStore) AttachSwapToken(ctx context.Context, swapID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	swap, ok := f.swaps[swapID]
	if !ok {
		return fmt.Errorf("swap %s not found", swapID)
	}
	swap.QRToken = token
	return nil
}

func (f *fakeStore) ListUserSwaps(ctx context.Context, userID string, limit int) ([]*models.Swap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var swaps []*models.Swap
	for _, swap := range f.swaps {
		if swap.UserID == userID {
			copied := *swap
			swaps = append(swaps, &copied)
		}
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i].CreatedAt.After(swaps[j].CreatedAt) })
	if limit > 0 && len(swaps) > limit {
		swaps = swaps[:limit]
	}
	return swaps, nil
}

// ----- TokenStore -----

func (f *fakeStore) InsertToken(ctx context.Context, rec *models.TokenRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *rec
	copied.CreatedAt = time.Now()
	f.tokens[copied.Token] = &copied
	return nil
}

func (f *fakeStore) TokenByValue(ctx context.Context, token string) (*models.TokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.tokens[token]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) ConsumeToken(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.tokens[token]
	if !ok || rec.Used {
		return false, nil
	}
	rec.Used = true
	rec.UsedAt = usedAt
	return true, nil
}

func (f *fakeStore) DeleteExpiredUsed(ctx context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for token, rec := range f.tokens {
		if rec.Used && rec.ExpiresAt.Before(now) {
			delete(f.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

// ----- StationStore -----

func (f *fakeStore) StationByID(ctx context.Context, id string) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	station, ok := f.stations[id]
	if !ok {
		return nil, nil
	}
	copied := *station
	return &copied, nil
}

func (f *fakeStore) ListStations(ctx context.Context, activeOnly bool, limit int) ([]*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stations []*models.Station
	for _, station := range f.stations {
		if activeOnly && !station.IsActive {
			continue
		}
		copied := *station
		stations = append(stations, &copied)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Name < stations[j].Name })
	if limit > 0 && len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

// ----- LocationStore -----

func (f *fakeStore) InsertSample(ctx context.Context, sample *models.LocationSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *sample
	f.samples = append(f.samples, &copied)
	return nil
}

func (f *fakeStore) LatestSample(ctx context.Context, userID string) (*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.samples) - 1; i >= 0; i-- {
		if f.samples[i].UserID == userID {
			copied := *f.samples[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SamplesSince(ctx context.Context, userID string, since time.Time, limit int) ([]*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.LocationSample
	for i := len(f.samples) - 1; i >= 0; i-- {
		sample := f.samples[i]
		if sample.UserID == userID && !sample.Timestamp.Before(since) {
			copied := *sample
			result = append(result, &copied)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (f *fakeStore) RecentSamples(ctx context.Context, since time.Time, limit int) ([]*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.LocationSample
	for i := len(f.samples) - 1; i >= 0; i-- {
		sample := f.samples[i]
		if !sample.Timestamp.Before(since) {
			copied := *sample
			result = append(result, &copied)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// ----- OpsStore -----

func (f *fakeStore) InsertJob(ctx context.Context, job *models.TransportJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	copied.ID = f.genID()
	copied.Status = models.JobPending
	copied.BatteryCount = len(copied.BatteryIDs)
	copied.CreatedAt = time.Now()
	f.jobs[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStore) JobByID(ctx context.Context, id string) (*models.TransportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeStore) AssignJob(ctx context.Context, jobID, transporterID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.Status != models.JobPending {
		return false, nil
	}
	job.Status = models.JobAssigned
	job.TransporterID = transporterID
	job.AcceptedAt = at
	return true, nil
}

func (f *fakeStore) CompleteJob(ctx context.Context, jobID string, credits int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.Status = models.JobDelivered
	job.CreditsEarned = credits
	job.CompletedAt = at
	return nil
}

func (f *fakeStore) ListPendingJobs(ctx context.Context, limit int) ([]*models.TransportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []*models.TransportJob
	for _, job := range f.jobs {
		if job.Status == models.JobPending {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Priority > jobs[j].Priority })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (f *fakeStore) InsertAssignment(ctx context.Context, a *models.StaffAssignment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	copied.ID = f.genID()
	f.assignments[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStore) ActiveAssignment(ctx context.Context, staffID string) (*models.StaffAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.StaffID == staffID && a.IsActive {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) AssignmentHistory(ctx context.Context, staffID string, limit int) ([]*models.StaffAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var history []*models.StaffAssignment
	for _, a := range f.assignments {
		if a.StaffID == staffID {
			copied := *a
			history = append(history, &copied)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].ShiftStart.After(history[j].ShiftStart) })
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (f *fakeStore) StationAssignments(ctx context.Context, stationID string) ([]*models.StaffAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var roster []*models.StaffAssignment
	for _, a := range f.assignments {
		if a.StationID == stationID && a.IsActive {
			copied := *a
			roster = append(roster, &copied)
		}
	}
	return roster, nil
}

func (f *fakeStore) EndAssignments(ctx context.Context, stationID string, staffIDs []string, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[string]bool, len(staffIDs))
	for _, id := range staffIDs {
		ids[id] = true
	}
	for _, a := range f.assignments {
		if a.StationID == stationID && a.IsActive && ids[a.StaffID] {
			a.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) UpdateBattery(ctx context.Context, batteryID string, set map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	battery, ok := f.batteries[batteryID]
	if !ok {
		battery = make(map[string]any)
		f.batteries[batteryID] = battery
	}
	for key, value := range set {
		battery[key] = value
	}
	return nil
}

func (f *fakeStore) MoveBatteries(ctx context.Context, batteryIDs []string, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range batteryIDs {
		battery, ok := f.batteries[id]
		if !ok {
			battery = make(map[string]any)
			f.batteries[id] = battery
		}
		battery["current_location"] = location
	}
	return nil
}

func (f *fakeStore) InsertTicket(ctx context.Context, t *models.Ticket) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *t
	copied.ID = f.genID()
	f.tickets[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStore) AddCredits(ctx context.Context, userID string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits[userID] += amount
	return nil
}

func (f *fakeStore) InsertCreditEntry(ctx context.Context, userID string, amount int, entryType, relatedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ledger = append(f.ledger, ledgerEntry{
		UserID:    userID,
		Amount:    amount,
		Type:      entryType,
		RelatedID: relatedID,
	})
	return nil
}
