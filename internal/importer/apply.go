package importer

import (
	"context"
	"fmt"

	"bms/internal/models"
	"bms/internal/repositories"
)

// Apply performs the plan's effects in order against repos and returns the
// counters of what was actually written. Any failure is returned as is so
// the surrounding transaction rolls back.
func Apply(ctx context.Context, repos *repositories.Repositories, plan *Plan) (Counters, error) {
	done := Counters{Skipped: plan.Counters.Skipped, Conflicts: plan.Counters.Conflicts}
	for _, e := range plan.Effects {
		if err := applyEffect(ctx, repos, e); err != nil {
			return done, fmt.Errorf("line %d %s: %w", e.Line, e.Kind, err)
		}
		done.add(e.Kind)
	}
	return done, nil
}

func applyEffect(ctx context.Context, repos *repositories.Repositories, e Effect) error {
	switch e.Kind {
	case CreateOwner:
		return repos.Owners.Create(ctx, &models.Person{
			ID:    e.OwnerID,
			Kind:  models.PersonOwner,
			Name:  e.Name,
			Phone: e.Phone,
		})
	case UpdateOwnerPhone:
		return repos.Owners.UpdatePhone(ctx, e.OwnerID, e.Phone)
	case EndOwnership:
		return repos.Ownerships.End(ctx, e.TenureID, e.Date)
	case CreateOwnership:
		t := models.NewTenure(models.TenureOwnership, e.FlatID, e.OwnerID, e.Date)
		t.ID = e.TenureID
		return repos.Ownerships.Create(ctx, t)
	case SetStatus:
		return repos.Flats.UpdateStatus(ctx, e.FlatID, e.Status)
	}
	return fmt.Errorf("unknown effect %q", e.Kind)
}
