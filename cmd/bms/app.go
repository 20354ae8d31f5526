package main

import (
	"context"
	"fmt"

	"bms/internal/caching"
	"bms/internal/common"
	"bms/internal/config"
	"bms/internal/importer"
	"bms/internal/repositories"
	"bms/internal/services"
	"bms/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	pool      *pgxpool.Pool
	store     repositories.Store
	cache     caching.CacheService
	archive   services.ArchiveService
	dashboard services.DashboardService
	status    services.StatusService
	occupancy services.OccupancyService
	flats     services.FlatService
	owners    services.PeopleService
	lessees   services.PeopleService
	parking   services.ParkingService
	providers services.ProviderService
	export    services.ExportService
	importer  importer.Service
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, cfg.Database.URL, database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime.Duration,
	}, common.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := common.Logger

	pool, err := connectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, pool: pool, store: repositories.NewStore(pool)}

	a.cache = caching.NopCache{}
	if cfg.Redis.Enabled {
		a.cache = caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log.WithField("component", "cache"))
	}

	if cfg.Minio.Enabled {
		a.archive, err = services.NewMinioArchiveService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize MinIO archive: %w", err)
		}
		if err := a.archive.EnsureBucketExists(ctx); err != nil {
			log.WithError(err).WithField("bucket", cfg.Minio.Bucket).Warn("import archive bucket unavailable")
		}
	}

	a.dashboard = services.NewDashboardService(a.store, a.cache, cfg.Redis.DashboardTTL.Duration, log.WithField("component", "dashboard"))
	a.status = services.NewStatusService(a.store, a.dashboard, log.WithField("component", "status"))
	a.occupancy = services.NewOccupancyService(a.store, a.status, a.dashboard, log.WithField("component", "occupancy"))
	a.flats = services.NewFlatService(a.store, a.dashboard)
	a.owners = services.NewOwnerService(a.store)
	a.lessees = services.NewLesseeService(a.store)
	a.parking = services.NewParkingService(a.store, log.WithField("component", "parking"))
	a.providers = services.NewProviderService(a.store)
	a.export = services.NewExportService(a.store)

	var archiver importer.Archiver
	if a.archive != nil {
		archiver = a.archive
	}
	a.importer = importer.NewService(a.store, a.dashboard, archiver, importer.Config{
		Location:      cfg.Location(),
		DefaultPolicy: importer.ConflictPolicy(cfg.Import.OnConflict),
		MaxRows:       cfg.Import.MaxRows,
	}, log.WithField("component", "importer"))

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}
