package testhelpers

import (
	"context"
	"errors"
	"testing"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_RejectsSecondActiveOwnership(t *testing.T) {
	store := NewMemStore()
	flat := CreateFlat(t, store, "A", 1)
	first := CreatePerson(t, store, models.PersonOwner, "John Doe", "")
	second := CreatePerson(t, store, models.PersonOwner, "Jane Doe", "")
	OpenTenure(t, store, models.TenureOwnership, flat.ID, first.ID, Date(2024, 1, 1))

	err := store.Repos().Ownerships.Create(context.Background(),
		models.NewTenure(models.TenureOwnership, flat.ID, second.ID, Date(2024, 2, 1)))
	assert.ErrorIs(t, err, models.ErrActiveIntervalConflict)

	// a tenancy is a different partition
	lessee := CreatePerson(t, store, models.PersonLessee, "Karim", "")
	OpenTenure(t, store, models.TenureTenancy, flat.ID, lessee.ID, Date(2024, 2, 1))
	assert.Equal(t, 1, ActiveTenureCounts(t, store, models.TenureOwnership)[flat.ID])
	assert.Equal(t, 1, ActiveTenureCounts(t, store, models.TenureTenancy)[flat.ID])
}

func TestMemStore_InTxRollsBackOnError(t *testing.T) {
	store := NewMemStore()
	flat := CreateFlat(t, store, "B", 2)

	boom := errors.New("boom")
	err := store.InTx(context.Background(), func(ctx context.Context, repos *repositories.Repositories) error {
		require.NoError(t, repos.Flats.UpdateStatus(ctx, flat.ID, models.StatusRented))
		require.NoError(t, repos.Owners.Create(ctx, &models.Person{ID: uuid.New(), Name: "Ghost"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repos().Flats.GetByID(context.Background(), flat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVacant, got.Status)

	owners, err := store.Repos().Owners.FindByName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, owners)
	assert.Equal(t, 1, store.TxCount())
}

func TestMemStore_FailOnIsOneShot(t *testing.T) {
	store := NewMemStore()
	flat := CreateFlat(t, store, "C", 3)
	boom := errors.New("boom")
	store.FailOn("flats.UpdateStatus", boom)

	ctx := context.Background()
	assert.ErrorIs(t, store.Repos().Flats.UpdateStatus(ctx, flat.ID, models.StatusOwnerOccupied), boom)
	assert.NoError(t, store.Repos().Flats.UpdateStatus(ctx, flat.ID, models.StatusOwnerOccupied))
}

func TestMemStore_FindByNameIsCaseInsensitiveInCreationOrder(t *testing.T) {
	store := NewMemStore()
	first := CreatePerson(t, store, models.PersonOwner, "John Doe", "01711123456")
	CreatePerson(t, store, models.PersonOwner, "JOHN DOE", "01811000000")
	CreatePerson(t, store, models.PersonOwner, "John", "")

	found, err := store.Repos().Owners.FindByName(context.Background(), "john doe")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
}

func TestSeedBuilding(t *testing.T) {
	store := NewMemStore()
	flats := SeedBuilding(t, store)
	assert.Len(t, flats, 112)

	_, err := store.Repos().Flats.GetByKey(context.Background(), "H", 14)
	assert.NoError(t, err)
}
