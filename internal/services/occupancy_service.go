package services

import (
	"context"
	"fmt"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OccupancyService opens and ends ownerships and tenancies of a flat. Each
// call closes the previous open interval, writes the new one and refreshes
// the flat's status in one transaction.
type OccupancyService interface {
	AssignOwner(ctx context.Context, flatID, ownerID uuid.UUID, start time.Time) (*models.Tenure, error)
	EndOwnership(ctx context.Context, flatID uuid.UUID, end time.Time) (*models.Tenure, error)
	AssignLessee(ctx context.Context, flatID, lesseeID uuid.UUID, start time.Time) (*models.Tenure, error)
	EndTenancy(ctx context.Context, flatID uuid.UUID, end time.Time) (*models.Tenure, error)
}

type occupancyService struct {
	store    repositories.Store
	status   StatusService
	listener StatusListener
	log      logrus.FieldLogger
}

func NewOccupancyService(store repositories.Store, status StatusService, listener StatusListener, log logrus.FieldLogger) OccupancyService {
	if listener == nil {
		listener = noopListener{}
	}
	return &occupancyService{store: store, status: status, listener: listener, log: log}
}

func tenureRepos(repos *repositories.Repositories, kind models.TenureKind) (repositories.TenureRepository, repositories.PersonRepository) {
	if kind == models.TenureTenancy {
		return repos.Tenancies, repos.Lessees
	}
	return repos.Ownerships, repos.Owners
}

func (s *occupancyService) AssignOwner(ctx context.Context, flatID, ownerID uuid.UUID, start time.Time) (*models.Tenure, error) {
	return s.assign(ctx, models.TenureOwnership, flatID, ownerID, start)
}

func (s *occupancyService) AssignLessee(ctx context.Context, flatID, lesseeID uuid.UUID, start time.Time) (*models.Tenure, error) {
	return s.assign(ctx, models.TenureTenancy, flatID, lesseeID, start)
}

func (s *occupancyService) EndOwnership(ctx context.Context, flatID uuid.UUID, end time.Time) (*models.Tenure, error) {
	return s.end(ctx, models.TenureOwnership, flatID, end)
}

func (s *occupancyService) EndTenancy(ctx context.Context, flatID uuid.UUID, end time.Time) (*models.Tenure, error) {
	return s.end(ctx, models.TenureTenancy, flatID, end)
}

// assign is a no-op when the party already holds the open interval.
func (s *occupancyService) assign(ctx context.Context, kind models.TenureKind, flatID, partyID uuid.UUID, start time.Time) (*models.Tenure, error) {
	var result *models.Tenure
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		tenures, people := tenureRepos(repos, kind)

		flat, err := repos.Flats.GetByID(ctx, flatID)
		if err != nil {
			return fmt.Errorf("flat %s: %w", flatID, err)
		}
		if _, err := people.GetByID(ctx, partyID); err != nil {
			return fmt.Errorf("%s party %s: %w", kind, partyID, err)
		}

		active, err := tenures.FindActiveByFlat(ctx, flatID)
		if err != nil {
			return err
		}
		if active != nil && active.PartyID == partyID {
			result = active
			return nil
		}
		if active != nil {
			if err := active.Close(start); err != nil {
				return err
			}
			if err := tenures.End(ctx, active.ID, *active.EndDate); err != nil {
				return err
			}
		}

		result = models.NewTenure(kind, flatID, partyID, start)
		if err := tenures.Create(ctx, result); err != nil {
			return err
		}
		if _, err := s.status.Refresh(ctx, repos, flatID); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"flat": flat.Code(), "kind": kind, "party": partyID}).Info("interval opened")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.listener.StatusChanged(ctx)
	return result, nil
}

func (s *occupancyService) end(ctx context.Context, kind models.TenureKind, flatID uuid.UUID, end time.Time) (*models.Tenure, error) {
	var result *models.Tenure
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		tenures, _ := tenureRepos(repos, kind)

		if _, err := repos.Flats.GetByID(ctx, flatID); err != nil {
			return fmt.Errorf("flat %s: %w", flatID, err)
		}
		active, err := tenures.FindActiveByFlat(ctx, flatID)
		if err != nil {
			return err
		}
		if active == nil {
			return fmt.Errorf("no active %s: %w", kind, models.ErrNotFound)
		}
		if err := active.Close(end); err != nil {
			return err
		}
		if err := tenures.End(ctx, active.ID, *active.EndDate); err != nil {
			return err
		}
		result = active
		_, err = s.status.Refresh(ctx, repos, flatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.listener.StatusChanged(ctx)
	return result, nil
}
