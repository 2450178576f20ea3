package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"navswap/config"
	"navswap/handlers"
	_ "navswap/migrations"
	"navswap/monitoring"
	"navswap/security"
	"navswap/services"
	"navswap/store"
	"navswap/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Monitoring
	monitor := monitoring.NewMonitor(redisClient)
	if cfg.EnableMetrics {
		monitoring.StartMetricsServer(cfg.MetricsPort, redisClient)
	}

	// Initialize services
	pbStore := store.NewPBStore(app)
	queueService := services.NewQueueService(redisClient, pbStore, pn, monitor, cfg)
	qrService := services.NewQRService(redisClient, pbStore, monitor, cfg)
	locationService := services.NewLocationService(redisClient, pbStore, queueService, monitor, cfg)
	swapService := services.NewSwapService(pbStore, queueService, qrService, cfg)
	transportService := services.NewTransportService(pbStore, cfg)
	staffService := services.NewStaffService(pbStore)
	ticketService := services.NewTicketService(pbStore)

	limiter := security.NewRateLimiter(redisClient, cfg.LocationUpdatesPerMinute)

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(queueService, swapService)
	qrHandler := handlers.NewQRHandler(qrService, pbStore)
	swapHandler := handlers.NewSwapHandler(swapService)
	locationHandler := handlers.NewLocationHandler(locationService, limiter)
	stationHandler := handlers.NewStationHandler(locationService, pbStore)
	transportHandler := handlers.NewTransportHandler(transportService)
	staffHandler := handlers.NewStaffHandler(staffService, ticketService)
	adminHandler := handlers.NewAdminHandler(queueService, qrService, transportService, pbStore)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background sweeps
	go runSweeps(ctx, queueService, qrService, cfg.CleanupInterval)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		syncActiveStationsToRedis(app, redisClient)

		// Queue endpoints
		e.Router.POST("/api/v1/queue/join", queueHandler.JoinQueue)
		e.Router.POST("/api/v1/queue/leave", queueHandler.LeaveQueue)

		// Station endpoints
		e.Router.GET("/api/v1/stations", stationHandler.ListStations)
		e.Router.GET("/api/v1/stations/nearby", stationHandler.FindNearby)
		e.Router.GET("/api/v1/stations/recommend", stationHandler.RecommendStation)
		e.Router.GET("/api/v1/stations/{stationId}", stationHandler.GetStation)
		e.Router.GET("/api/v1/stations/{stationId}/queue", queueHandler.GetQueueStatus)
		e.Router.GET("/api/v1/stations/{stationId}/availability", queueHandler.GetAvailability)
		e.Router.GET("/api/v1/stations/{stationId}/travel-time", stationHandler.TravelTime)
		e.Router.GET("/api/v1/stations/{stationId}/nearby-users", stationHandler.NearbyUsers)
		e.Router.GET("/api/v1/stations/{stationId}/staff", staffHandler.StationRoster)

		// QR endpoints
		e.Router.POST("/api/v1/qr/generate", qrHandler.GenerateQR)
		e.Router.POST("/api/v1/qr/verify", qrHandler.VerifyQR)

		// Swap endpoints
		e.Router.POST("/api/v1/swaps/start", swapHandler.StartSwap)
		e.Router.POST("/api/v1/swaps/complete", swapHandler.CompleteSwap)
		e.Router.GET("/api/v1/swaps/history", swapHandler.SwapHistory)

		// Location endpoints
		e.Router.POST("/api/v1/location/update", locationHandler.UpdateLocation)
		e.Router.GET("/api/v1/location/current", locationHandler.GetCurrentLocation)
		e.Router.GET("/api/v1/location/history", locationHandler.GetLocationHistory)

		// Transport endpoints
		e.Router.POST("/api/v1/transport/jobs", transportHandler.CreateJob)
		e.Router.GET("/api/v1/transport/jobs/pending", transportHandler.ListPendingJobs)
		e.Router.POST("/api/v1/transport/jobs/{jobId}/accept", transportHandler.AcceptJob)
		e.Router.POST("/api/v1/transport/jobs/{jobId}/complete", transportHandler.CompleteJob)

		// Staff endpoints
		e.Router.POST("/api/v1/staff/assign", staffHandler.AssignStaff)
		e.Router.POST("/api/v1/staff/divert", staffHandler.DivertStaff)
		e.Router.GET("/api/v1/staff/{staffId}/history", staffHandler.AssignmentHistory)
		e.Router.POST("/api/v1/tickets/report", staffHandler.ReportFault)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/dashboard", adminHandler.Dashboard)
		e.Router.POST("/api/v1/admin/expire-stale", adminHandler.ExpireStaleQueues)
		e.Router.POST("/api/v1/admin/cleanup-tokens", adminHandler.CleanupTokens)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupStationHooks(app, redisClient)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// runSweeps expires stale queue slots and deletes spent token records on a
// fixed cadence.
func runSweeps(ctx context.Context, queueService *services.QueueService, qrService *services.QRService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := queueService.ExpireStale(ctx); err != nil {
				slog.Error("queue expiry sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("expired stale queue slots", "count", n)
			}

			if n, err := qrService.CleanupExpired(ctx); err != nil {
				slog.Error("token cleanup sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("deleted spent qr tokens", "count", n)
			}

			if err := queueService.ReconcileLengthCache(ctx); err != nil {
				slog.Error("queue length reconcile failed", "error", err)
			}
		}
	}
}

// syncActiveStationsToRedis seeds the queue length cache for every active
// station so the metrics collector has gauges from the first scrape.
func syncActiveStationsToRedis(app *pocketbase.PocketBase, redisClient *redis.Client) {
	ctx := context.Background()

	records, err := app.FindRecordsByFilter("stations", "is_active = true", "", 0, 0)
	if err != nil {
		log.Printf("Error fetching active stations: %v", err)
		return
	}

	for _, record := range records {
		total, err := app.CountRecords("queue_slots", dbx.NewExp(
			"station_id = {:station} AND status IN ('confirmed', 'approaching', 'active')",
			dbx.Params{"station": record.Id}))
		if err != nil {
			continue
		}
		key := "queue:length:" + record.Id
		redisClient.Set(ctx, key, total, time.Hour)
	}

	log.Printf("Synced %d active stations to Redis", len(records))
}

func setupStationHooks(app *pocketbase.PocketBase, redisClient *redis.Client) {
	// Deactivating or deleting a station drops its cached queue length so
	// the dashboard stops reporting it.
	app.OnRecordUpdateRequest("stations").BindFunc(func(e *core.RecordRequestEvent) error {
		if !e.Record.GetBool("is_active") {
			if err := redisClient.Del(e.Request.Context(), "queue:length:"+e.Record.Id).Err(); err != nil {
				slog.Error("failed to drop station queue cache", "stationID", e.Record.Id, "error", err)
			}
		}
		return e.Next()
	})

	app.OnRecordDeleteRequest("stations").BindFunc(func(e *core.RecordRequestEvent) error {
		if err := redisClient.Del(e.Request.Context(), "queue:length:"+e.Record.Id).Err(); err != nil {
			slog.Error("failed to drop station queue cache", "stationID", e.Record.Id, "error", err)
		}
		return e.Next()
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
