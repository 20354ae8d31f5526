package services

import (
	"context"
	"time"

	"bms/internal/caching"
	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/sirupsen/logrus"
)

// DashboardService builds the occupancy summary and grid. It also acts as
// the StatusListener that drops the cached copy.
type DashboardService interface {
	StatusListener
	Get(ctx context.Context) (*models.Dashboard, error)
}

type dashboardService struct {
	store repositories.Store
	cache caching.CacheService
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewDashboardService(store repositories.Store, cache caching.CacheService, ttl time.Duration, log logrus.FieldLogger) DashboardService {
	if cache == nil {
		cache = caching.NopCache{}
	}
	return &dashboardService{store: store, cache: cache, ttl: ttl, log: log}
}

// Get serves from cache when possible. Cache failures are logged and the
// dashboard is rebuilt from the store.
func (s *dashboardService) Get(ctx context.Context) (*models.Dashboard, error) {
	cached, err := s.cache.GetDashboard(ctx)
	if err != nil {
		s.log.WithError(err).Warn("dashboard cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	dashboard, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetDashboard(ctx, dashboard, s.ttl); err != nil {
		s.log.WithError(err).Warn("dashboard cache write failed")
	}
	return dashboard, nil
}

// build lays flats out top floor first, units A to H.
func (s *dashboardService) build(ctx context.Context) (*models.Dashboard, error) {
	flats, err := s.store.Repos().Flats.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[models.FlatKey]*models.Flat, len(flats))
	dashboard := &models.Dashboard{FlatCount: len(flats)}
	for _, f := range flats {
		byKey[f.Key()] = f
		switch f.Status {
		case models.StatusOwnerOccupied:
			dashboard.OwnerOccupied++
		case models.StatusRented:
			dashboard.Rented++
		default:
			dashboard.Vacant++
		}
	}

	for floor := models.MaxFloor; floor >= models.MinFloor; floor-- {
		level := models.GridLevel{Floor: floor}
		for _, unit := range models.Units {
			cell := models.GridCell{Unit: string(unit), Floor: floor, Status: models.StatusVacant}
			if f, ok := byKey[models.FlatKey{Unit: string(unit), Floor: floor}]; ok {
				cell.Status = f.Status
			}
			level.Cells = append(level.Cells, cell)
		}
		dashboard.Levels = append(dashboard.Levels, level)
	}
	return dashboard, nil
}

func (s *dashboardService) StatusChanged(ctx context.Context) {
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.log.WithError(err).Warn("dashboard cache invalidation failed")
	}
}
