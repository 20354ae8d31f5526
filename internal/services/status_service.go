package services

import (
	"context"
	"fmt"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusListener is told after flat statuses may have changed.
type StatusListener interface {
	StatusChanged(ctx context.Context)
}

type noopListener struct{}

func (noopListener) StatusChanged(context.Context) {}

// StatusService keeps the stored flat status equal to what the active
// ownership and tenancy rows imply.
type StatusService interface {
	// Refresh re-derives one flat's status using the caller's transaction.
	Refresh(ctx context.Context, repos *repositories.Repositories, flatID uuid.UUID) (models.FlatStatus, error)
	// SyncAll repairs every drifted flat and returns how many changed.
	SyncAll(ctx context.Context) (int, error)
}

type statusService struct {
	store    repositories.Store
	listener StatusListener
	log      logrus.FieldLogger
}

func NewStatusService(store repositories.Store, listener StatusListener, log logrus.FieldLogger) StatusService {
	if listener == nil {
		listener = noopListener{}
	}
	return &statusService{store: store, listener: listener, log: log}
}

func (s *statusService) Refresh(ctx context.Context, repos *repositories.Repositories, flatID uuid.UUID) (models.FlatStatus, error) {
	flat, err := repos.Flats.GetByID(ctx, flatID)
	if err != nil {
		return "", fmt.Errorf("flat %s: %w", flatID, err)
	}
	ownership, err := repos.Ownerships.FindActiveByFlat(ctx, flatID)
	if err != nil {
		return "", err
	}
	tenancy, err := repos.Tenancies.FindActiveByFlat(ctx, flatID)
	if err != nil {
		return "", err
	}

	status := models.DeriveStatus(ownership != nil, tenancy != nil)
	if status != flat.Status {
		if err := repos.Flats.UpdateStatus(ctx, flatID, status); err != nil {
			return "", err
		}
		s.log.WithFields(logrus.Fields{"flat": flat.Code(), "from": flat.Status, "to": status}).Debug("flat status refreshed")
	}
	return status, nil
}

func (s *statusService) SyncAll(ctx context.Context) (int, error) {
	changed := 0
	err := s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		flats, err := repos.Flats.ListAll(ctx)
		if err != nil {
			return err
		}
		owned, err := activeFlats(ctx, repos.Ownerships)
		if err != nil {
			return err
		}
		rented, err := activeFlats(ctx, repos.Tenancies)
		if err != nil {
			return err
		}

		for _, flat := range flats {
			status := models.DeriveStatus(owned[flat.ID], rented[flat.ID])
			if status == flat.Status {
				continue
			}
			if err := repos.Flats.UpdateStatus(ctx, flat.ID, status); err != nil {
				return fmt.Errorf("flat %s: %w", flat.Code(), err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithField("changed", changed).Info("flat status sync finished")
	if changed > 0 {
		s.listener.StatusChanged(ctx)
	}
	return changed, nil
}

func activeFlats(ctx context.Context, repo repositories.TenureRepository) (map[uuid.UUID]bool, error) {
	active, err := repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(active))
	for _, t := range active {
		set[t.FlatID] = true
	}
	return set, nil
}
