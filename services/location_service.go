package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/monitoring"
	"navswap/store"
	"navswap/utils"
)

const locationCachePrefix = "location:"

// TravelEstimate is the response for a travel-time query.
type TravelEstimate struct {
	StationID      string  `json:"station_id"`
	DistanceKm     float64 `json:"distance_km"`
	DistanceMeters float64 `json:"distance_meters"`
	TravelMinutes  int     `json:"estimated_travel_minutes"`
}

// LocationService ingests GPS samples and drives the geofence monitor. Every
// sample lands in gps_logs; only the latest one matters for geofencing.
type LocationService struct {
	Redis   *redis.Client
	store   store.Store
	queue   *QueueService
	monitor *monitoring.Monitor
	config  *config.Config
}

func NewLocationService(redisClient *redis.Client, st store.Store, queue *QueueService, monitor *monitoring.Monitor, cfg *config.Config) *LocationService {
	return &LocationService{
		Redis:   redisClient,
		store:   st,
		queue:   queue,
		monitor: monitor,
		config:  cfg,
	}
}

// UpdateLocation records a GPS sample and runs the geofence check against
// the user's active swap, if any.
func (s *LocationService) UpdateLocation(ctx context.Context, sample *models.LocationSample) error {
	if err := utils.ValidateCoordinates(sample.Latitude, sample.Longitude); err != nil {
		return err
	}
	sample.Timestamp = time.Now()

	if err := s.store.InsertSample(ctx, sample); err != nil {
		return err
	}

	if data, err := json.Marshal(sample); err == nil {
		key := locationCachePrefix + sample.UserID
		if err := s.Redis.SetEx(ctx, key, data, s.config.LocationCacheTTL).Err(); err != nil {
			log.Printf("location: cache write failed: %v", err)
		}
	}

	s.monitor.TrackLocationUpdate()
	return s.checkGeofence(ctx, sample)
}

// checkGeofence flips the user's swap to approaching when they cross the
// inner radius. A missing booking or station is a silent no-op; location
// updates must never fail because of geofence state.
func (s *LocationService) checkGeofence(ctx context.Context, sample *models.LocationSample) error {
	swap, err := s.store.ActiveSwapForUser(ctx, sample.UserID)
	if err != nil {
		return err
	}
	if swap == nil {
		return nil
	}

	station, err := s.store.StationByID(ctx, swap.StationID)
	if err != nil {
		return err
	}
	if station == nil {
		return nil
	}

	distance, err := utils.Haversine(sample.Latitude, sample.Longitude,
		station.Location.Latitude, station.Location.Longitude)
	if err != nil {
		return nil
	}

	switch {
	case distance <= s.config.GeofenceRadiusMeters:
		err := s.queue.TransitionStatus(ctx, swap.StationID, sample.UserID, models.QueueApproaching, nil)
		if err == nil {
			s.monitor.TrackGeofenceTransition(swap.StationID)
		} else if err != status.ErrSlotNotFound && err != status.ErrBackwardChange {
			log.Printf("location: geofence transition failed for user %s: %v", sample.UserID, err)
		}
	case distance <= s.config.ApproachingRadiusMeters:
		log.Printf("location: user %s within %.0fm of station %s", sample.UserID, distance, station.ID)
	}
	return nil
}

// CurrentLocation returns the freshest known position for a user, from cache
// when available.
func (s *LocationService) CurrentLocation(ctx context.Context, userID string) (*models.LocationSample, error) {
	data, err := s.Redis.Get(ctx, locationCachePrefix+userID).Result()
	if err == nil {
		var sample models.LocationSample
		if jsonErr := json.Unmarshal([]byte(data), &sample); jsonErr == nil {
			return &sample, nil
		}
	} else if err != redis.Nil {
		log.Printf("location: cache read failed: %v", err)
	}

	return s.store.LatestSample(ctx, userID)
}

func (s *LocationService) LocationHistory(ctx context.Context, userID string, since time.Time, limit int) ([]*models.LocationSample, error) {
	return s.store.SamplesSince(ctx, userID, since, limit)
}

// FindNearestStations returns active stations sorted by distance from a
// point.
func (s *LocationService) FindNearestStations(ctx context.Context, lat, lon float64, limit int) ([]*models.NearbyStation, error) {
	if err := utils.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	stations, err := s.store.ListStations(ctx, true, 0)
	if err != nil {
		return nil, err
	}

	nearby := make([]*models.NearbyStation, 0, len(stations))
	for _, station := range stations {
		meters, err := utils.Haversine(lat, lon, station.Location.Latitude, station.Location.Longitude)
		if err != nil {
			continue
		}
		nearby = append(nearby, &models.NearbyStation{
			StationID:      station.ID,
			Name:           station.Name,
			DistanceKm:     math.Round(meters/10) / 100,
			DistanceMeters: math.Round(meters),
			Location:       station.Location,
			Capacity:       station.Capacity,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// EstimateTravelTime estimates driving time from a point to a station.
func (s *LocationService) EstimateTravelTime(ctx context.Context, lat, lon float64, stationID string, trafficFactor float64) (*TravelEstimate, error) {
	station, err := s.store.StationByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, status.ErrStationNotFound
	}

	meters, err := utils.Haversine(lat, lon, station.Location.Latitude, station.Location.Longitude)
	if err != nil {
		return nil, err
	}
	if trafficFactor <= 0 {
		trafficFactor = 1.0
	}

	km := meters / 1000
	return &TravelEstimate{
		StationID:      stationID,
		DistanceKm:     math.Round(km*100) / 100,
		DistanceMeters: math.Round(meters),
		TravelMinutes:  utils.EstimateTravelMinutes(km, trafficFactor),
	}, nil
}

// StationRecommendation scores one candidate station: travel minutes plus the
// expected wait behind its current queue.
type StationRecommendation struct {
	StationID     string  `json:"station_id"`
	Name          string  `json:"name"`
	DistanceKm    float64 `json:"distance_km"`
	QueueLength   int     `json:"queue_length"`
	TravelMinutes int     `json:"estimated_travel_minutes"`
	WaitMinutes   int     `json:"estimated_wait_minutes"`
	Score         int     `json:"score"`
}

// RecommendStation picks the active station with the lowest combined travel
// and queue wait near a point. Inputs are plain scalars only: queue depth and
// the distance-based travel estimate.
func (s *LocationService) RecommendStation(ctx context.Context, lat, lon, trafficFactor float64) (*StationRecommendation, []*StationRecommendation, error) {
	nearby, err := s.FindNearestStations(ctx, lat, lon, 5)
	if err != nil {
		return nil, nil, err
	}
	if len(nearby) == 0 {
		return nil, nil, status.ErrStationNotFound
	}
	if trafficFactor <= 0 {
		trafficFactor = 1.0
	}

	candidates := make([]*StationRecommendation, 0, len(nearby))
	for _, n := range nearby {
		queued, err := s.store.CountActive(ctx, n.StationID)
		if err != nil {
			return nil, nil, err
		}
		rec := &StationRecommendation{
			StationID:     n.StationID,
			Name:          n.Name,
			DistanceKm:    n.DistanceKm,
			QueueLength:   queued,
			TravelMinutes: utils.EstimateTravelMinutes(n.DistanceKm, trafficFactor),
			WaitMinutes:   queued * (s.config.AvgSwapMinutes + s.config.QueueBufferMinutes),
		}
		rec.Score = rec.TravelMinutes + rec.WaitMinutes
		candidates = append(candidates, rec)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score < best.Score {
			best = c
		}
	}
	return best, candidates, nil
}

// ActiveUsersNearStation lists users whose freshest sample inside the lookback
// window puts them within radius meters of the station.
func (s *LocationService) ActiveUsersNearStation(ctx context.Context, stationID string, radiusMeters float64) ([]string, error) {
	station, err := s.store.StationByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, status.ErrStationNotFound
	}
	if radiusMeters <= 0 {
		radiusMeters = s.config.ApproachingRadiusMeters
	}

	samples, err := s.store.RecentSamples(ctx, time.Now().Add(-s.config.LocationCacheTTL), 1000)
	if err != nil {
		return nil, err
	}

	// Samples arrive newest first; the first one per user wins.
	seen := make(map[string]bool)
	users := make([]string, 0)
	for _, sample := range samples {
		if seen[sample.UserID] {
			continue
		}
		seen[sample.UserID] = true

		meters, err := utils.Haversine(sample.Latitude, sample.Longitude,
			station.Location.Latitude, station.Location.Longitude)
		if err != nil {
			continue
		}
		if meters <= radiusMeters {
			users = append(users, sample.UserID)
		}
	}
	return users, nil
}
