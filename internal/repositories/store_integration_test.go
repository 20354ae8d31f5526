package repositories_test

import (
	"context"
	"errors"
	"testing"

	"bms/internal/models"
	"bms/internal/repositories"
	"bms/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ActiveIntervalIndexRejectsSecondOwnership(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer db.Cleanup()

	store := repositories.NewStore(db.Pool)
	flat := testhelpers.CreateFlat(t, store, "A", 1)
	first := testhelpers.CreatePerson(t, store, models.PersonOwner, "Rahim Uddin", "01711000000")
	second := testhelpers.CreatePerson(t, store, models.PersonOwner, "Karim Uddin", "01811000000")

	testhelpers.OpenTenure(t, store, models.TenureOwnership, flat.ID, first.ID, testhelpers.Date(2024, 1, 1))

	err := store.Repos().Ownerships.Create(context.Background(),
		models.NewTenure(models.TenureOwnership, flat.ID, second.ID, testhelpers.Date(2024, 6, 1)))
	assert.ErrorIs(t, err, models.ErrActiveIntervalConflict)
	assert.Equal(t, 1, testhelpers.ActiveTenureCounts(t, store, models.TenureOwnership)[flat.ID])
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer db.Cleanup()

	store := repositories.NewStore(db.Pool)
	flat := testhelpers.CreateFlat(t, store, "B", 2)

	boom := errors.New("boom")
	err := store.InTx(context.Background(), func(ctx context.Context, repos *repositories.Repositories) error {
		if err := repos.Flats.UpdateStatus(ctx, flat.ID, models.StatusOwnerOccupied); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Repos().Flats.GetByID(context.Background(), flat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVacant, got.Status)
}
