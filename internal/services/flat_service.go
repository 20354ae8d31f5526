package services

import (
	"context"
	"fmt"
	"strings"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
)

type FlatService interface {
	Create(ctx context.Context, flat *models.Flat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Flat, error)
	Update(ctx context.Context, flat *models.Flat) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.FlatFilter) ([]*models.Flat, error)
	// SetStatus writes the status directly, bypassing derivation. The next
	// sync repairs any drift it introduces.
	SetStatus(ctx context.Context, id uuid.UUID, status models.FlatStatus) error
	Occupancy(ctx context.Context, id uuid.UUID) (*models.FlatOccupancy, error)
	// SeedBuilding creates every missing floor and unit position as a vacant
	// flat and reports how many were created.
	SeedBuilding(ctx context.Context) (int, error)
}

type flatService struct {
	store    repositories.Store
	listener StatusListener
}

func NewFlatService(store repositories.Store, listener StatusListener) FlatService {
	if listener == nil {
		listener = noopListener{}
	}
	return &flatService{store: store, listener: listener}
}

func validateFlat(flat *models.Flat) error {
	flat.Unit = strings.ToUpper(strings.TrimSpace(flat.Unit))
	if len(flat.Unit) != 1 || !strings.Contains(models.Units, flat.Unit) {
		return models.NewValidationError("unit", "must be one of A-H")
	}
	if flat.Floor < models.MinFloor || flat.Floor > models.MaxFloor {
		return models.NewValidationError("floor", fmt.Sprintf("must be between %d and %d", models.MinFloor, models.MaxFloor))
	}
	flat.Remarks = strings.TrimSpace(flat.Remarks)
	return nil
}

// Create always stores a new flat as vacant; it has no intervals yet.
func (s *flatService) Create(ctx context.Context, flat *models.Flat) error {
	if err := validateFlat(flat); err != nil {
		return err
	}
	flat.ID = uuid.New()
	flat.Status = models.StatusVacant
	if err := s.store.Repos().Flats.Create(ctx, flat); err != nil {
		return err
	}
	s.listener.StatusChanged(ctx)
	return nil
}

func (s *flatService) GetByID(ctx context.Context, id uuid.UUID) (*models.Flat, error) {
	return s.store.Repos().Flats.GetByID(ctx, id)
}

// Update changes position and remarks; the stored status is kept.
func (s *flatService) Update(ctx context.Context, flat *models.Flat) error {
	if err := validateFlat(flat); err != nil {
		return err
	}
	existing, err := s.store.Repos().Flats.GetByID(ctx, flat.ID)
	if err != nil {
		return err
	}
	flat.Status = existing.Status
	if err := s.store.Repos().Flats.Update(ctx, flat); err != nil {
		return err
	}
	s.listener.StatusChanged(ctx)
	return nil
}

func (s *flatService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Repos().Flats.Delete(ctx, id); err != nil {
		return err
	}
	s.listener.StatusChanged(ctx)
	return nil
}

func (s *flatService) SeedBuilding(ctx context.Context) (int, error) {
	created := 0
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		existing, err := repos.Flats.ListAll(ctx)
		if err != nil {
			return err
		}
		have := make(map[models.FlatKey]bool, len(existing))
		for _, f := range existing {
			have[f.Key()] = true
		}
		for floor := models.MinFloor; floor <= models.MaxFloor; floor++ {
			for _, unit := range models.Units {
				key := models.FlatKey{Unit: string(unit), Floor: floor}
				if have[key] {
					continue
				}
				flat := &models.Flat{ID: uuid.New(), Unit: key.Unit, Floor: floor, Status: models.StatusVacant}
				if err := repos.Flats.Create(ctx, flat); err != nil {
					return fmt.Errorf("flat %s: %w", key, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.listener.StatusChanged(ctx)
	}
	return created, nil
}

func (s *flatService) List(ctx context.Context, filter models.FlatFilter) ([]*models.Flat, error) {
	return s.store.Repos().Flats.List(ctx, filter)
}

func (s *flatService) SetStatus(ctx context.Context, id uuid.UUID, status models.FlatStatus) error {
	if !status.Valid() {
		return models.NewValidationError("status", "must be vacant, owner or rented")
	}
	if err := s.store.Repos().Flats.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.listener.StatusChanged(ctx)
	return nil
}

func (s *flatService) Occupancy(ctx context.Context, id uuid.UUID) (*models.FlatOccupancy, error) {
	repos := s.store.Repos()
	flat, err := repos.Flats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	occ := &models.FlatOccupancy{Flat: flat}

	if occ.Ownerships, err = repos.Ownerships.ListByFlat(ctx, id); err != nil {
		return nil, err
	}
	if occ.Tenancies, err = repos.Tenancies.ListByFlat(ctx, id); err != nil {
		return nil, err
	}
	if occ.ActiveOwnership, err = repos.Ownerships.FindActiveByFlat(ctx, id); err != nil {
		return nil, err
	}
	if occ.ActiveTenancy, err = repos.Tenancies.FindActiveByFlat(ctx, id); err != nil {
		return nil, err
	}
	if occ.ActiveOwnership != nil {
		if occ.CurrentOwner, err = repos.Owners.GetByID(ctx, occ.ActiveOwnership.PartyID); err != nil {
			return nil, err
		}
	}
	if occ.ActiveTenancy != nil {
		if occ.CurrentLessee, err = repos.Lessees.GetByID(ctx, occ.ActiveTenancy.PartyID); err != nil {
			return nil, err
		}
	}
	if occ.ParkingSpot, err = repos.Spots.FindByFlat(ctx, id); err != nil {
		return nil, err
	}
	if occ.ParkingSpot != nil {
		if occ.ActiveParking, err = repos.Parking.FindActiveBySpot(ctx, occ.ParkingSpot.ID); err != nil {
			return nil, err
		}
	}
	occ.DerivedStatus = models.DeriveStatus(occ.ActiveOwnership != nil, occ.ActiveTenancy != nil)
	return occ, nil
}
