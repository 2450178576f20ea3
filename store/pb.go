package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"navswap/models"
)

// Collection names.
const (
	colSwaps      = "swaps"
	colQueueSlots = "queue_slots"
	colTokens     = "qr_tokens"
	colStations   = "stations"
	colGPSLogs    = "gps_logs"
	colJobs       = "transport_jobs"
	colStaff      = "staff_assignments"
	colBatteries  = "batteries"
	colTickets    = "tickets"
	colCredits    = "credit_ledger"
	colUsers      = "users"
)

// PB filter fragments for non-terminal lifecycle states.
const (
	slotActiveFilter  = "(status = 'confirmed' || status = 'approaching' || status = 'active')"
	swapActiveFilter  = "(status = 'pending' || status = 'confirmed' || status = 'approaching' || status = 'active')"
	swapEnRouteFilter = "(status = 'confirmed' || status = 'approaching')"
)

// PBStore implements Store on top of an embedded PocketBase app. Multi-row
// and conditional updates that must be a single atomic statement go through
// dbx; everything else uses record CRUD.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) newRecord(collection string) (*core.Record, error) {
	col, err := s.app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("find collection %s: %w", collection, err)
	}
	return core.NewRecord(col), nil
}

// firstByFilter returns (nil, nil) when no record matches.
func (s *PBStore) firstByFilter(collection, filter string, params dbx.Params) (*core.Record, error) {
	record, err := s.app.FindFirstRecordByFilter(collection, filter, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func pbTime(t time.Time) string {
	dt, _ := types.ParseDateTime(t.UTC())
	return dt.String()
}

// ----- QueueStore -----

func slotFromRecord(r *core.Record) *models.QueueSlot {
	return &models.QueueSlot{
		ID:            r.Id,
		StationID:     r.GetString("station_id"),
		UserID:        r.GetString("user_id"),
		SwapID:        r.GetString("swap_id"),
		Position:      r.GetInt("position"),
		Status:        models.QueueStatus(r.GetString("status")),
		QRToken:       r.GetString("qr_token"),
		EstimatedWait: r.GetInt("estimated_wait_minutes"),
		CompletedAt:   r.GetDateTime("completed_at").Time(),
		CreatedAt:     r.GetDateTime("created").Time(),
		UpdatedAt:     r.GetDateTime("updated").Time(),
	}
}

func (s *PBStore) ActiveSlot(ctx context.Context, stationID, userID string) (*models.QueueSlot, error) {
	record, err := s.firstByFilter(colQueueSlots,
		"station_id = {:station} && user_id = {:user} && "+slotActiveFilter,
		dbx.Params{"station": stationID, "user": userID})
	if err != nil || record == nil {
		return nil, err
	}
	return slotFromRecord(record), nil
}

func (s *PBStore) CountActive(ctx context.Context, stationID string) (int, error) {
	total, err := s.app.CountRecords(colQueueSlots, dbx.NewExp(
		"station_id = {:station} AND status IN ('confirmed', 'approaching', 'active')",
		dbx.Params{"station": stationID}))
	if err != nil {
		return 0, fmt.Errorf("count active slots: %w", err)
	}
	return int(total), nil
}

func (s *PBStore) InsertSlot(ctx context.Context, slot *models.QueueSlot) (string, error) {
	record, err := s.newRecord(colQueueSlots)
	if err != nil {
		return "", err
	}
	record.Set("station_id", slot.StationID)
	record.Set("user_id", slot.UserID)
	record.Set("swap_id", slot.SwapID)
	record.Set("position", slot.Position)
	record.Set("status", string(slot.Status))
	record.Set("qr_token", slot.QRToken)
	record.Set("estimated_wait_minutes", slot.EstimatedWait)
	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert slot: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) UpdateSlotStatus(ctx context.Context, slotID string, status models.QueueStatus) error {
	record, err := s.app.FindRecordById(colQueueSlots, slotID)
	if err != nil {
		return fmt.Errorf("find slot %s: %w", slotID, err)
	}
	record.Set("status", string(status))
	return s.app.Save(record)
}

func (s *PBStore) FinalizeSlot(ctx context.Context, slotID string, status models.QueueStatus, completedAt time.Time) error {
	record, err := s.app.FindRecordById(colQueueSlots, slotID)
	if err != nil {
		return fmt.Errorf("find slot %s: %w", slotID, err)
	}
	record.Set("status", string(status))
	record.Set("completed_at", completedAt.UTC())
	return s.app.Save(record)
}

func (s *PBStore) ShiftPositionsAfter(ctx context.Context, stationID string, position int) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE queue_slots SET position = position - 1, updated = {:now}" +
			" WHERE station_id = {:station} AND position > {:pos}" +
			" AND status IN ('confirmed', 'approaching', 'active')").
		Bind(dbx.Params{
			"now":     pbTime(time.Now()),
			"station": stationID,
			"pos":     position,
		}).Execute()
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}
	return nil
}

func (s *PBStore) ListActive(ctx context.Context, stationID string) ([]*models.QueueSlot, error) {
	records, err := s.app.FindRecordsByFilter(colQueueSlots,
		"station_id = {:station} && "+slotActiveFilter,
		"position", 0, 0, dbx.Params{"station": stationID})
	if err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}
	slots := make([]*models.QueueSlot, 0, len(records))
	for _, r := range records {
		slots = append(slots, slotFromRecord(r))
	}
	return slots, nil
}

func (s *PBStore) ListStaleConfirmed(ctx context.Context, cutoff time.Time) ([]*models.QueueSlot, error) {
	records, err := s.app.FindRecordsByFilter(colQueueSlots,
		"status = 'confirmed' && created < {:cutoff}",
		"created", 0, 0, dbx.Params{"cutoff": pbTime(cutoff)})
	if err != nil {
		return nil, fmt.Errorf("list stale slots: %w", err)
	}
	slots := make([]*models.QueueSlot, 0, len(records))
	for _, r := range records {
		slots = append(slots, slotFromRecord(r))
	}
	return slots, nil
}

func (s *PBStore) AttachSlotToken(ctx context.Context, slotID, token string) error {
	record, err := s.app.FindRecordById(colQueueSlots, slotID)
	if err != nil {
		return fmt.Errorf("find slot %s: %w", slotID, err)
	}
	record.Set("qr_token", token)
	return s.app.Save(record)
}

// ----- SwapStore -----

func swapFromRecord(r *core.Record) *models.Swap {
	return &models.Swap{
		ID:           r.Id,
		UserID:       r.GetString("user_id"),
		StationID:    r.GetString("station_id"),
		Status:       models.SwapStatus(r.GetString("status")),
		QRToken:      r.GetString("qr_token"),
		StaffID:      r.GetString("staff_id"),
		OldBatteryID: r.GetString("old_battery_id"),
		NewBatteryID: r.GetString("new_battery_id"),
		StartedAt:    r.GetDateTime("started_at").Time(),
		CompletedAt:  r.GetDateTime("completed_at").Time(),
		CreatedAt:    r.GetDateTime("created").Time(),
		UpdatedAt:    r.GetDateTime("updated").Time(),
	}
}

func (s *PBStore) InsertSwap(ctx context.Context, swap *models.Swap) (string, error) {
	record, err := s.newRecord(colSwaps)
	if err != nil {
		return "", err
	}
	record.Set("user_id", swap.UserID)
	record.Set("station_id", swap.StationID)
	record.Set("status", string(swap.Status))
	record.Set("qr_token", swap.QRToken)
	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert swap: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) SwapByID(ctx context.Context, id string) (*models.Swap, error) {
	record, err := s.app.FindRecordById(colSwaps, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return swapFromRecord(record), nil
}

func (s *PBStore) ActiveSwapForUser(ctx context.Context, userID string) (*models.Swap, error) {
	record, err := s.firstByFilter(colSwaps,
		"user_id = {:user} && "+swapEnRouteFilter,
		dbx.Params{"user": userID})
	if err != nil || record == nil {
		return nil, err
	}
	return swapFromRecord(record), nil
}

func (s *PBStore) ActiveSwap(ctx context.Context, stationID, userID string) (*models.Swap, error) {
	record, err := s.firstByFilter(colSwaps,
		"station_id = {:station} && user_id = {:user} && "+swapActiveFilter,
		dbx.Params{"station": stationID, "user": userID})
	if err != nil || record == nil {
		return nil, err
	}
	return swapFromRecord(record), nil
}

func (s *PBStore) UpdateSwapStatus(ctx context.Context, swapID string, status models.SwapStatus, set map[string]any) error {
	record, err := s.app.FindRecordById(colSwaps, swapID)
	if err != nil {
		return fmt.Errorf("find swap %s: %w", swapID, err)
	}
	record.Set("status", string(status))
	for k, v := range set {
		record.Set(k, v)
	}
	return s.app.Save(record)
}

func (s *PBStore) AttachSwapToken(ctx context.Context, swapID, token string) error {
	record, err := s.app.FindRecordById(colSwaps, swapID)
	if err != nil {
		return fmt.Errorf("find swap %s: %w", swapID, err)
	}
	record.Set("qr_token", token)
	return s.app.Save(record)
}

func (s *PBStore) ListUserSwaps(ctx context.Context, userID string, limit int) ([]*models.Swap, error) {
	records, err := s.app.FindRecordsByFilter(colSwaps,
		"user_id = {:user}", "-created", limit, 0, dbx.Params{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}
	swaps := make([]*models.Swap, 0, len(records))
	for _, r := range records {
		swaps = append(swaps, swapFromRecord(r))
	}
	return swaps, nil
}

// ----- TokenStore -----

func tokenFromRecord(r *core.Record) *models.TokenRecord {
	return &models.TokenRecord{
		Token:     r.GetString("token"),
		SwapID:    r.GetString("swap_id"),
		UserID:    r.GetString("user_id"),
		StationID: r.GetString("station_id"),
		Used:      r.GetBool("used"),
		UsedAt:    r.GetDateTime("used_at").Time(),
		ExpiresAt: r.GetDateTime("expires_at").Time(),
		CreatedAt: r.GetDateTime("created").Time(),
	}
}

func (s *PBStore) InsertToken(ctx context.Context, rec *models.TokenRecord) error {
	record, err := s.newRecord(colTokens)
	if err != nil {
		return err
	}
	record.Set("token", rec.Token)
	record.Set("swap_id", rec.SwapID)
	record.Set("user_id", rec.UserID)
	record.Set("station_id", rec.StationID)
	record.Set("used", rec.Used)
	record.Set("expires_at", rec.ExpiresAt.UTC())
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *PBStore) TokenByValue(ctx context.Context, token string) (*models.TokenRecord, error) {
	record, err := s.firstByFilter(colTokens, "token = {:token}", dbx.Params{"token": token})
	if err != nil || record == nil {
		return nil, err
	}
	return tokenFromRecord(record), nil
}

func (s *PBStore) ConsumeToken(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE qr_tokens SET used = 1, used_at = {:at}, updated = {:at}" +
			" WHERE token = {:token} AND used = 0").
		Bind(dbx.Params{"at": pbTime(usedAt), "token": token}).Execute()
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *PBStore) DeleteExpiredUsed(ctx context.Context, now time.Time) (int, error) {
	res, err := s.app.DB().NewQuery(
		"DELETE FROM qr_tokens WHERE used = 1 AND expires_at < {:now}").
		Bind(dbx.Params{"now": pbTime(now)}).Execute()
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// ----- StationStore -----

func stationFromRecord(r *core.Record) *models.Station {
	return &models.Station{
		ID:   r.Id,
		Name: r.GetString("name"),
		Location: models.Location{
			Latitude:  r.GetFloat("latitude"),
			Longitude: r.GetFloat("longitude"),
		},
		Capacity: r.GetInt("capacity"),
		IsActive: r.GetBool("is_active"),
	}
}

func (s *PBStore) StationByID(ctx context.Context, id string) (*models.Station, error) {
	record, err := s.app.FindRecordById(colStations, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return stationFromRecord(record), nil
}

func (s *PBStore) ListStations(ctx context.Context, activeOnly bool, limit int) ([]*models.Station, error) {
	filter := "id != ''"
	if activeOnly {
		filter = "is_active = true"
	}
	records, err := s.app.FindRecordsByFilter(colStations, filter, "name", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	stations := make([]*models.Station, 0, len(records))
	for _, r := range records {
		stations = append(stations, stationFromRecord(r))
	}
	return stations, nil
}

// ----- LocationStore -----

func sampleFromRecord(r *core.Record) *models.LocationSample {
	sample := &models.LocationSample{
		UserID:    r.GetString("user_id"),
		Latitude:  r.GetFloat("latitude"),
		Longitude: r.GetFloat("longitude"),
		Timestamp: r.GetDateTime("created").Time(),
	}
	if v := r.GetFloat("speed"); v != 0 {
		sample.Speed = &v
	}
	if v := r.GetFloat("heading"); v != 0 {
		sample.Heading = &v
	}
	return sample
}

func (s *PBStore) InsertSample(ctx context.Context, sample *models.LocationSample) error {
	record, err := s.newRecord(colGPSLogs)
	if err != nil {
		return err
	}
	record.Set("user_id", sample.UserID)
	record.Set("latitude", sample.Latitude)
	record.Set("longitude", sample.Longitude)
	if sample.Speed != nil {
		record.Set("speed", *sample.Speed)
	}
	if sample.Heading != nil {
		record.Set("heading", *sample.Heading)
	}
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("insert gps log: %w", err)
	}
	return nil
}

func (s *PBStore) LatestSample(ctx context.Context, userID string) (*models.LocationSample, error) {
	records, err := s.app.FindRecordsByFilter(colGPSLogs,
		"user_id = {:user}", "-created", 1, 0, dbx.Params{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("latest sample: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return sampleFromRecord(records[0]), nil
}

func (s *PBStore) SamplesSince(ctx context.Context, userID string, since time.Time, limit int) ([]*models.LocationSample, error) {
	records, err := s.app.FindRecordsByFilter(colGPSLogs,
		"user_id = {:user} && created >= {:since}",
		"-created", limit, 0, dbx.Params{"user": userID, "since": pbTime(since)})
	if err != nil {
		return nil, fmt.Errorf("samples since: %w", err)
	}
	samples := make([]*models.LocationSample, 0, len(records))
	for _, r := range records {
		samples = append(samples, sampleFromRecord(r))
	}
	return samples, nil
}

func (s *PBStore) RecentSamples(ctx context.Context, since time.Time, limit int) ([]*models.LocationSample, error) {
	records, err := s.app.FindRecordsByFilter(colGPSLogs,
		"created >= {:since}", "-created", limit, 0, dbx.Params{"since": pbTime(since)})
	if err != nil {
		return nil, fmt.Errorf("recent samples: %w", err)
	}
	samples := make([]*models.LocationSample, 0, len(records))
	for _, r := range records {
		samples = append(samples, sampleFromRecord(r))
	}
	return samples, nil
}

// ----- OpsStore -----

func jobFromRecord(r *core.Record) *models.TransportJob {
	job := &models.TransportJob{
		ID:            r.Id,
		FromLocation:  r.GetString("from_location"),
		ToLocation:    r.GetString("to_location"),
		BatteryCount:  r.GetInt("battery_count"),
		Status:        models.TransportJobStatus(r.GetString("status")),
		Priority:      r.GetInt("priority"),
		TransporterID: r.GetString("assigned_transporter_id"),
		CreditsEarned: r.GetInt("credits_earned"),
		CreatedAt:     r.GetDateTime("created").Time(),
		AcceptedAt:    r.GetDateTime("accepted_at").Time(),
		CompletedAt:   r.GetDateTime("completed_at").Time(),
	}
	r.UnmarshalJSONField("battery_ids", &job.BatteryIDs)
	return job
}

func (s *PBStore) InsertJob(ctx context.Context, job *models.TransportJob) (string, error) {
	record, err := s.newRecord(colJobs)
	if err != nil {
		return "", err
	}
	record.Set("from_location", job.FromLocation)
	record.Set("to_location", job.ToLocation)
	record.Set("battery_ids", job.BatteryIDs)
	record.Set("battery_count", len(job.BatteryIDs))
	record.Set("status", string(models.JobPending))
	record.Set("priority", job.Priority)
	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert transport job: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) JobByID(ctx context.Context, id string) (*models.TransportJob, error) {
	record, err := s.app.FindRecordById(colJobs, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return jobFromRecord(record), nil
}

func (s *PBStore) AssignJob(ctx context.Context, jobID, transporterID string, at time.Time) (bool, error) {
	res, err := s.app.DB().NewQuery(
		"UPDATE transport_jobs SET status = 'assigned'," +
			" assigned_transporter_id = {:transporter}, accepted_at = {:at}, updated = {:at}" +
			" WHERE id = {:id} AND status = 'pending'").
		Bind(dbx.Params{"transporter": transporterID, "at": pbTime(at), "id": jobID}).Execute()
	if err != nil {
		return false, fmt.Errorf("assign job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *PBStore) CompleteJob(ctx context.Context, jobID string, credits int, at time.Time) error {
	record, err := s.app.FindRecordById(colJobs, jobID)
	if err != nil {
		return fmt.Errorf("find job %s: %w", jobID, err)
	}
	record.Set("status", string(models.JobDelivered))
	record.Set("completed_at", at.UTC())
	record.Set("credits_earned", credits)
	return s.app.Save(record)
}

func (s *PBStore) ListPendingJobs(ctx context.Context, limit int) ([]*models.TransportJob, error) {
	records, err := s.app.FindRecordsByFilter(colJobs,
		"status = 'pending'", "-priority", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	jobs := make([]*models.TransportJob, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, jobFromRecord(r))
	}
	return jobs, nil
}

func assignmentFromRecord(r *core.Record) *models.StaffAssignment {
	return &models.StaffAssignment{
		ID:         r.Id,
		StaffID:    r.GetString("staff_id"),
		StationID:  r.GetString("station_id"),
		ShiftStart: r.GetDateTime("shift_start").Time(),
		ShiftEnd:   r.GetDateTime("shift_end").Time(),
		IsActive:   r.GetBool("is_active"),
	}
}

func (s *PBStore) InsertAssignment(ctx context.Context, a *models.StaffAssignment) (string, error) {
	record, err := s.newRecord(colStaff)
	if err != nil {
		return "", err
	}
	record.Set("staff_id", a.StaffID)
	record.Set("station_id", a.StationID)
	record.Set("shift_start", a.ShiftStart.UTC())
	record.Set("shift_end", a.ShiftEnd.UTC())
	record.Set("is_active", true)
	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert assignment: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) ActiveAssignment(ctx context.Context, staffID string) (*models.StaffAssignment, error) {
	record, err := s.firstByFilter(colStaff,
		"staff_id = {:staff} && is_active = true", dbx.Params{"staff": staffID})
	if err != nil || record == nil {
		return nil, err
	}
	return assignmentFromRecord(record), nil
}

func (s *PBStore) AssignmentHistory(ctx context.Context, staffID string, limit int) ([]*models.StaffAssignment, error) {
	records, err := s.app.FindRecordsByFilter(colStaff,
		"staff_id = {:staff}", "-shift_start", limit, 0, dbx.Params{"staff": staffID})
	if err != nil {
		return nil, fmt.Errorf("assignment history: %w", err)
	}
	assignments := make([]*models.StaffAssignment, 0, len(records))
	for _, r := range records {
		assignments = append(assignments, assignmentFromRecord(r))
	}
	return assignments, nil
}

func (s *PBStore) StationAssignments(ctx context.Context, stationID string) ([]*models.StaffAssignment, error) {
	records, err := s.app.FindRecordsByFilter(colStaff,
		"station_id = {:station} && is_active = true", "", 0, 0,
		dbx.Params{"station": stationID})
	if err != nil {
		return nil, fmt.Errorf("station assignments: %w", err)
	}
	assignments := make([]*models.StaffAssignment, 0, len(records))
	for _, r := range records {
		assignments = append(assignments, assignmentFromRecord(r))
	}
	return assignments, nil
}

func (s *PBStore) EndAssignments(ctx context.Context, stationID string, staffIDs []string, reason string, at time.Time) error {
	ids := make([]any, 0, len(staffIDs))
	for _, id := range staffIDs {
		ids = append(ids, id)
	}
	_, err := s.app.DB().Update(colStaff,
		dbx.Params{
			"is_active":        false,
			"diverted_at":      pbTime(at),
			"diversion_reason": reason,
			"updated":          pbTime(at),
		},
		dbx.And(
			dbx.HashExp{"station_id": stationID, "is_active": true},
			dbx.In("staff_id", ids...),
		)).Execute()
	if err != nil {
		return fmt.Errorf("end assignments: %w", err)
	}
	return nil
}

func (s *PBStore) UpdateBattery(ctx context.Context, batteryID string, set map[string]any) error {
	record, err := s.firstByFilter(colBatteries, "battery_id = {:id}", dbx.Params{"id": batteryID})
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("battery %s not found", batteryID)
	}
	for k, v := range set {
		record.Set(k, v)
	}
	return s.app.Save(record)
}

func (s *PBStore) MoveBatteries(ctx context.Context, batteryIDs []string, location string) error {
	ids := make([]any, 0, len(batteryIDs))
	for _, id := range batteryIDs {
		ids = append(ids, id)
	}
	_, err := s.app.DB().Update(colBatteries,
		dbx.Params{"current_location": location, "updated": pbTime(time.Now())},
		dbx.In("battery_id", ids...)).Execute()
	if err != nil {
		return fmt.Errorf("move batteries: %w", err)
	}
	return nil
}

func (s *PBStore) InsertTicket(ctx context.Context, t *models.Ticket) (string, error) {
	record, err := s.newRecord(colTickets)
	if err != nil {
		return "", err
	}
	record.Set("ticket_number", t.TicketNumber)
	record.Set("status", "open")
	record.Set("related_entity_type", t.EntityType)
	record.Set("related_entity_id", t.EntityID)
	record.Set("fault_level", t.FaultLevel)
	record.Set("title", t.Title)
	record.Set("description", t.Description)
	record.Set("priority", t.Priority)
	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert ticket: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) AddCredits(ctx context.Context, userID string, amount int) error {
	_, err := s.app.DB().NewQuery(
		"UPDATE users SET credits = credits + {:amount} WHERE id = {:id}").
		Bind(dbx.Params{"amount": amount, "id": userID}).Execute()
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

func (s *PBStore) InsertCreditEntry(ctx context.Context, userID string, amount int, entryType, relatedID string) error {
	record, err := s.newRecord(colCredits)
	if err != nil {
		return err
	}
	record.Set("user_id", userID)
	record.Set("amount", amount)
	record.Set("type", entryType)
	record.Set("related_id", relatedID)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("insert credit entry: %w", err)
	}
	return nil
}
