package main

import (
	"context"
	"errors"
	"time"

	"courier-portal/internal/core/cache"
	"courier-portal/internal/core/config"
	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/metrics"
	"courier-portal/internal/core/realtime"
	"courier-portal/internal/core/server"
	"courier-portal/internal/core/validation"
	opsdomain "courier-portal/internal/features/operations/domain"
	opshandler "courier-portal/internal/features/operations/handler"
	opsservice "courier-portal/internal/features/operations/service"
	"courier-portal/internal/features/shipments/adapters"
	"courier-portal/internal/features/shipments/handler"
	"courier-portal/internal/features/shipments/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const redisPingTimeout = 3 * time.Second

// application wires every component of the portal.
type application struct {
	cfg        *config.AppConfig
	metrics    *metrics.Metrics
	hub        *realtime.Hub
	lastEvents cache.Cache
	store      *service.Store
	tracker    *service.Tracker
	operations *opsservice.Store
}

// newApplication connects the optional relays and the external backend
// concurrently, restores the package snapshot and builds the stores.
func newApplication(ctx context.Context, cfg *config.AppConfig) *application {
	l := logger.Get()
	m := metrics.New()

	memory := adapters.NewMemoryRepository()
	snapshots := adapters.NewFileSnapshotStore(cfg.Storage.DataDir)
	if pkgs, err := snapshots.LoadPackages(); err != nil {
		l.Warn("Failed to restore package snapshot, starting empty", zap.Error(err))
	} else if len(pkgs) > 0 {
		memory.ReplacePackages(pkgs)
		l.Info("Package snapshot restored", zap.Int("packages", len(pkgs)))
	}

	var (
		redisAdapter *cache.RedisAdapter
		store        *service.Store
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		redisAdapter = connectRedis(gctx, cfg.Realtime.RedisURL)
		return nil
	})
	g.Go(func() error {
		store = service.Open(gctx, memory, adapters.Connector(cfg.External),
			service.WithLogger(logger.Named("store")),
			service.WithSeedSQLPath(cfg.Storage.SeedSQLPath),
		)
		return nil
	})
	_ = g.Wait()

	var (
		sinks      []realtime.Sink
		lastEvents cache.Cache
	)
	if redisAdapter != nil {
		sinks = append(sinks, realtime.NewRedisSink(redisAdapter))
		lastEvents = redisAdapter
	}
	if brokers := cfg.Realtime.Brokers(); len(brokers) > 0 {
		sinks = append(sinks, realtime.NewKafkaSink(brokers, cfg.Realtime.KafkaTopic))
		l.Info("Kafka relay enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.Realtime.KafkaTopic))
	}

	hub := realtime.NewHub(
		realtime.WithHistoryLimit(cfg.Realtime.HistoryLimit),
		realtime.WithSinks(sinks...),
		realtime.WithLogger(logger.Named("realtime")),
		realtime.WithMetrics(m),
	)

	tracker := service.NewTracker(store, hub,
		service.WithSnapshots(snapshots),
		service.WithTrackerMetrics(m),
		service.WithTrackerLogger(logger.Named("tracker")),
	)

	operations := opsservice.NewStore(hub,
		opsservice.WithLogger(logger.Named("operations")),
		opsservice.WithLocationChecks(opsdomain.CapacityWithinLimit),
	)

	return &application{
		cfg:        cfg,
		metrics:    m,
		hub:        hub,
		lastEvents: lastEvents,
		store:      store,
		tracker:    tracker,
		operations: operations,
	}
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// portal then runs without the Redis relay.
func connectRedis(ctx context.Context, url string) *cache.RedisAdapter {
	if url == "" {
		return nil
	}
	l := logger.Get()
	adapter, err := cache.NewRedisAdapter(url)
	if err != nil {
		l.Warn("Invalid Redis URL, continuing without Redis relay", zap.Error(err))
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := adapter.Ping(pctx); err != nil {
		l.Warn("Redis unreachable, continuing without Redis relay", zap.Error(err))
		_ = adapter.Close()
		return nil
	}
	l.Info("Redis relay enabled")
	return adapter
}

// routes registers every HTTP handler on srv.
func (a *application) routes(srv *server.Server) {
	v := validation.New()
	auth := handler.NewAuthHandler(a.store, v)
	packages := handler.NewPackageHandler(a.store, a.tracker, a.store, v)
	live := handler.NewRealtimeHandler(a.tracker, a.lastEvents)
	admin := opshandler.NewAdminHandler(a.operations, v)

	api := srv.App.Group("/api")

	api.Post("/auth/login", auth.Login)
	api.Post("/auth/register", auth.Register)

	api.Get("/packages", packages.ListPackages)
	api.Get("/packages/stats", packages.Stats)
	api.Get("/packages/:number", packages.GetPackage)
	api.Post("/packages/:number/status", packages.UpdateStatus)
	api.Post("/packages/:number/events", packages.AddEvent)

	api.Get("/realtime/history", live.History)
	api.Get("/realtime/last", live.Last)
	api.Get("/realtime/stream", live.Stream)

	adminGroup := api.Group("/admin")
	adminGroup.Post("/seed", packages.Seed)
	adminGroup.Get("/stats", admin.Stats)
	adminGroup.Get("/delivered-today", admin.DeliveredToday)
	adminGroup.Get("/tracking-numbers", admin.TrackingNumbers)
	adminGroup.Post("/tracking-numbers", admin.MutateTrackingNumbers)
	adminGroup.Get("/products", admin.Products)
	adminGroup.Post("/products", admin.MutateProducts)
	adminGroup.Get("/locations", admin.Locations)
	adminGroup.Post("/locations", admin.MutateLocations)
	adminGroup.Get("/activities", admin.Activities)
	adminGroup.Post("/activities", admin.MutateActivities)
}

// close releases the external backend and the relays.
func (a *application) close() error {
	return errors.Join(a.store.Close(), a.hub.Close())
}
