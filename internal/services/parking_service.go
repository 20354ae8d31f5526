package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const autoAssignRemark = "Auto-assign"

// AssignSpotRequest places a registered vehicle or a bare plate on a spot.
type AssignSpotRequest struct {
	VehicleID  *uuid.UUID
	PlateNo    string
	DriverName string
	Remarks    string
	StartDate  time.Time
}

// AutoAssignResult reports what an auto-assign run did, or would do.
type AutoAssignResult struct {
	DryRun       bool `json:"dry_run"`
	Processed    int  `json:"processed"`
	SpotsCreated int  `json:"spots_created"`
	Ended        int  `json:"ended"`
	Created      int  `json:"created"`
}

func (r AutoAssignResult) Changes() int {
	return r.Ended + r.Created
}

type ParkingService interface {
	CreateSpot(ctx context.Context, spot *models.ParkingSpot) error
	GetSpot(ctx context.Context, id uuid.UUID) (*models.ParkingSpot, error)
	UpdateSpot(ctx context.Context, spot *models.ParkingSpot) error
	ListSpots(ctx context.Context, limit, offset int) ([]*models.ParkingSpot, error)
	SpotHistory(ctx context.Context, spotID uuid.UUID) ([]*models.ParkingAssignment, error)

	CreateVehicle(ctx context.Context, v *models.Vehicle) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *models.Vehicle) error
	ListVehicles(ctx context.Context, filter repositories.VehicleFilter) ([]*models.Vehicle, error)

	// Assign ends the spot's open assignment and the vehicle's open
	// assignment elsewhere before opening the new one.
	Assign(ctx context.Context, spotID uuid.UUID, req AssignSpotRequest) (*models.ParkingAssignment, error)
	Release(ctx context.Context, spotID uuid.UUID, end time.Time) (*models.ParkingAssignment, error)

	// SeedSpots creates one dedicated spot per flat that has none.
	SeedSpots(ctx context.Context) (int, error)
	// AutoAssign gives every occupied flat's spot an open assignment that
	// starts when the current occupancy started.
	AutoAssign(ctx context.Context, dryRun bool) (*AutoAssignResult, error)
}

type parkingService struct {
	store repositories.Store
	log   logrus.FieldLogger
}

func NewParkingService(store repositories.Store, log logrus.FieldLogger) ParkingService {
	return &parkingService{store: store, log: log}
}

func (s *parkingService) prepareSpot(ctx context.Context, repos *repositories.Repositories, spot *models.ParkingSpot) error {
	spot.Code = strings.ToUpper(strings.TrimSpace(spot.Code))
	if spot.Level == 0 {
		spot.Level = 1
	}
	if spot.Code == "" && spot.FlatID != nil {
		flat, err := repos.Flats.GetByID(ctx, *spot.FlatID)
		if err != nil {
			return fmt.Errorf("flat %s: %w", *spot.FlatID, err)
		}
		spot.Code = flat.Code()
	}
	if spot.Code == "" {
		return models.NewValidationError("code", "is required when no flat is linked")
	}
	if len(spot.Code) > 10 {
		return models.NewValidationError("code", "cannot exceed 10 characters")
	}
	return nil
}

func (s *parkingService) CreateSpot(ctx context.Context, spot *models.ParkingSpot) error {
	repos := s.store.Repos()
	if err := s.prepareSpot(ctx, repos, spot); err != nil {
		return err
	}
	spot.ID = uuid.New()
	return repos.Spots.Create(ctx, spot)
}

func (s *parkingService) GetSpot(ctx context.Context, id uuid.UUID) (*models.ParkingSpot, error) {
	return s.store.Repos().Spots.GetByID(ctx, id)
}

func (s *parkingService) UpdateSpot(ctx context.Context, spot *models.ParkingSpot) error {
	repos := s.store.Repos()
	if err := s.prepareSpot(ctx, repos, spot); err != nil {
		return err
	}
	return repos.Spots.Update(ctx, spot)
}

func (s *parkingService) ListSpots(ctx context.Context, limit, offset int) ([]*models.ParkingSpot, error) {
	return s.store.Repos().Spots.List(ctx, limit, offset)
}

func (s *parkingService) SpotHistory(ctx context.Context, spotID uuid.UUID) ([]*models.ParkingAssignment, error) {
	repos := s.store.Repos()
	if _, err := repos.Spots.GetByID(ctx, spotID); err != nil {
		return nil, err
	}
	return repos.Parking.ListBySpot(ctx, spotID)
}

func (s *parkingService) prepareVehicle(v *models.Vehicle) error {
	v.PlateNo = models.NormalizePlate(v.PlateNo)
	if v.VehicleType == "" {
		v.VehicleType = models.VehicleCar
	}
	return v.Validate()
}

func (s *parkingService) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	if err := s.prepareVehicle(v); err != nil {
		return err
	}
	v.ID = uuid.New()
	return s.store.Repos().Vehicles.Create(ctx, v)
}

func (s *parkingService) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.store.Repos().Vehicles.GetByID(ctx, id)
}

func (s *parkingService) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	if err := s.prepareVehicle(v); err != nil {
		return err
	}
	return s.store.Repos().Vehicles.Update(ctx, v)
}

func (s *parkingService) ListVehicles(ctx context.Context, filter repositories.VehicleFilter) ([]*models.Vehicle, error) {
	return s.store.Repos().Vehicles.List(ctx, filter)
}

func (s *parkingService) Assign(ctx context.Context, spotID uuid.UUID, req AssignSpotRequest) (*models.ParkingAssignment, error) {
	req.PlateNo = models.NormalizePlate(req.PlateNo)
	if req.VehicleID == nil && req.PlateNo == "" {
		return nil, models.NewValidationError("vehicle", "select a vehicle or enter a plate number")
	}

	var result *models.ParkingAssignment
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		if _, err := repos.Spots.GetByID(ctx, spotID); err != nil {
			return fmt.Errorf("parking spot %s: %w", spotID, err)
		}
		if req.VehicleID != nil {
			vehicle, err := repos.Vehicles.GetByID(ctx, *req.VehicleID)
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", *req.VehicleID, err)
			}
			if req.PlateNo == "" {
				req.PlateNo = vehicle.PlateNo
			}
			if err := closeAssignment(ctx, repos, repos.Parking.FindActiveByVehicle, *req.VehicleID, req.StartDate); err != nil {
				return err
			}
		}
		if err := closeAssignment(ctx, repos, repos.Parking.FindActiveBySpot, spotID, req.StartDate); err != nil {
			return err
		}

		result = &models.ParkingAssignment{
			ID:         uuid.New(),
			SpotID:     spotID,
			VehicleID:  req.VehicleID,
			PlateNo:    req.PlateNo,
			DriverName: strings.TrimSpace(req.DriverName),
			Remarks:    strings.TrimSpace(req.Remarks),
			Interval:   models.Interval{StartDate: models.DateOnly(req.StartDate)},
		}
		return repos.Parking.Create(ctx, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func closeAssignment(ctx context.Context, repos *repositories.Repositories,
	find func(context.Context, uuid.UUID) (*models.ParkingAssignment, error), id uuid.UUID, end time.Time) error {
	active, err := find(ctx, id)
	if err != nil || active == nil {
		return err
	}
	if err := active.Close(end); err != nil {
		return err
	}
	return repos.Parking.End(ctx, active.ID, *active.EndDate)
}

func (s *parkingService) Release(ctx context.Context, spotID uuid.UUID, end time.Time) (*models.ParkingAssignment, error) {
	var result *models.ParkingAssignment
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		active, err := repos.Parking.FindActiveBySpot(ctx, spotID)
		if err != nil {
			return err
		}
		if active == nil {
			return fmt.Errorf("no active parking assignment: %w", models.ErrNotFound)
		}
		if err := active.Close(end); err != nil {
			return err
		}
		result = active
		return repos.Parking.End(ctx, active.ID, *active.EndDate)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// uniqueSpotCode appends -2, -3, ... until the code is free.
func uniqueSpotCode(ctx context.Context, repos *repositories.Repositories, base string) (string, error) {
	code := base
	for i := 2; ; i++ {
		taken, err := repos.Spots.CodeExists(ctx, code, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		code = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *parkingService) ensureSpot(ctx context.Context, repos *repositories.Repositories, flat *models.Flat) (*models.ParkingSpot, bool, error) {
	spot, err := repos.Spots.FindByFlat(ctx, flat.ID)
	if err != nil || spot != nil {
		return spot, false, err
	}
	code, err := uniqueSpotCode(ctx, repos, flat.Code())
	if err != nil {
		return nil, false, err
	}
	flatID := flat.ID
	spot = &models.ParkingSpot{ID: uuid.New(), Code: code, Level: 1, FlatID: &flatID}
	if err := repos.Spots.Create(ctx, spot); err != nil {
		return nil, false, err
	}
	return spot, true, nil
}

func (s *parkingService) SeedSpots(ctx context.Context) (int, error) {
	created := 0
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		flats, err := repos.Flats.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, flat := range flats {
			_, made, err := s.ensureSpot(ctx, repos, flat)
			if err != nil {
				return fmt.Errorf("flat %s: %w", flat.Code(), err)
			}
			if made {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("created", created).Info("parking spots seeded")
	return created, nil
}

// occupancyStart is the start of the tenancy, or of the ownership when the
// flat is not rented. Zero when the flat is vacant.
func occupancyStart(ctx context.Context, repos *repositories.Repositories, flatID uuid.UUID) (time.Time, string, error) {
	tenancy, err := repos.Tenancies.FindActiveByFlat(ctx, flatID)
	if err != nil {
		return time.Time{}, "", err
	}
	if tenancy != nil {
		lessee, err := repos.Lessees.GetByID(ctx, tenancy.PartyID)
		if err != nil {
			return time.Time{}, "", err
		}
		return tenancy.StartDate, lessee.Name, nil
	}
	ownership, err := repos.Ownerships.FindActiveByFlat(ctx, flatID)
	if err != nil || ownership == nil {
		return time.Time{}, "", err
	}
	owner, err := repos.Owners.GetByID(ctx, ownership.PartyID)
	if err != nil {
		return time.Time{}, "", err
	}
	return ownership.StartDate, owner.Name, nil
}

func (s *parkingService) AutoAssign(ctx context.Context, dryRun bool) (*AutoAssignResult, error) {
	result := &AutoAssignResult{DryRun: dryRun}
	run := func(ctx context.Context, repos *repositories.Repositories) error {
		flats, err := repos.Flats.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, flat := range flats {
			result.Processed++
			start, occupant, err := occupancyStart(ctx, repos, flat.ID)
			if err != nil {
				return fmt.Errorf("flat %s: %w", flat.Code(), err)
			}
			if start.IsZero() {
				continue
			}

			spot, err := repos.Spots.FindByFlat(ctx, flat.ID)
			if err != nil {
				return err
			}
			if spot == nil {
				result.SpotsCreated++
				result.Created++
				if !dryRun {
					if spot, _, err = s.ensureSpot(ctx, repos, flat); err != nil {
						return err
					}
					if err := s.openAuto(ctx, repos, spot.ID, start, occupant); err != nil {
						return err
					}
				}
				continue
			}

			current, err := repos.Parking.FindActiveBySpot(ctx, spot.ID)
			if err != nil {
				return err
			}
			if current != nil && current.StartDate.Equal(start) {
				continue
			}
			if current != nil {
				result.Ended++
				if !dryRun {
					end := start
					if end.Before(current.StartDate) {
						end = current.StartDate
					}
					if err := repos.Parking.End(ctx, current.ID, end); err != nil {
						return err
					}
				}
			}
			result.Created++
			if !dryRun {
				if err := s.openAuto(ctx, repos, spot.ID, start, occupant); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var err error
	if dryRun {
		err = run(ctx, s.store.Repos())
	} else {
		err = s.store.InTx(ctx, run)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"changes":   result.Changes(),
		"dry_run":   dryRun,
	}).Info("parking auto-assign finished")
	return result, nil
}

func (s *parkingService) openAuto(ctx context.Context, repos *repositories.Repositories, spotID uuid.UUID, start time.Time, occupant string) error {
	return repos.Parking.Create(ctx, &models.ParkingAssignment{
		ID:         uuid.New(),
		SpotID:     spotID,
		DriverName: occupant,
		Remarks:    autoAssignRemark,
		Interval:   models.Interval{StartDate: models.DateOnly(start)},
	})
}
