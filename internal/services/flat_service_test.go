package services

import (
	"context"
	"testing"
	"time"

	"bms/internal/models"
	"bms/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatService_CreateIsAlwaysVacant(t *testing.T) {
	store := testhelpers.NewMemStore()
	listener := &countingListener{}
	svc := NewFlatService(store, listener)

	flat := &models.Flat{Unit: " e ", Floor: 10, Status: models.StatusRented}
	require.NoError(t, svc.Create(context.Background(), flat))

	assert.Equal(t, "E", flat.Unit)
	assert.Equal(t, models.StatusVacant, flat.Status)
	assert.Equal(t, 1, listener.calls)

	err := svc.Create(context.Background(), &models.Flat{Unit: "E", Floor: 10})
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestFlatService_SeedBuildingFillsGaps(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	listener := &countingListener{}
	svc := NewFlatService(store, listener)
	testhelpers.CreateFlat(t, store, "A", 1)

	created, err := svc.SeedBuilding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 111, created)
	assert.Len(t, testhelpers.FlatStatuses(t, store), 112)
	assert.Equal(t, 1, listener.calls)

	created, err = svc.SeedBuilding(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, listener.calls)
}

func TestFlatService_Validation(t *testing.T) {
	svc := NewFlatService(testhelpers.NewMemStore(), nil)
	var verr *models.ValidationError

	assert.ErrorAs(t, svc.Create(context.Background(), &models.Flat{Unit: "I", Floor: 1}), &verr)
	assert.ErrorAs(t, svc.Create(context.Background(), &models.Flat{Unit: "A", Floor: 15}), &verr)
	assert.ErrorAs(t, svc.SetStatus(context.Background(), uuid.New(), "sold"), &verr)
}

func TestFlatService_UpdateKeepsStatus(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := NewFlatService(store, nil)
	flat := testhelpers.CreateFlat(t, store, "A", 1)
	require.NoError(t, svc.SetStatus(ctx, flat.ID, models.StatusOwnerOccupied))

	update := &models.Flat{ID: flat.ID, Unit: "A", Floor: 1, Remarks: " corner ", Status: models.StatusVacant}
	require.NoError(t, svc.Update(ctx, update))

	got, err := svc.GetByID(ctx, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, "corner", got.Remarks)
	assert.Equal(t, models.StatusOwnerOccupied, got.Status)
}

func TestFlatService_OccupancyReportsDrift(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := NewFlatService(store, nil)
	flat := testhelpers.CreateFlat(t, store, "C", 2)
	owner := testhelpers.CreatePerson(t, store, models.PersonOwner, "Owner", "")
	lessee := testhelpers.CreatePerson(t, store, models.PersonLessee, "Lessee", "")
	testhelpers.OpenTenure(t, store, models.TenureOwnership, flat.ID, owner.ID, time.Now())
	testhelpers.OpenTenure(t, store, models.TenureTenancy, flat.ID, lessee.ID, time.Now())

	occ, err := svc.Occupancy(ctx, flat.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusVacant, occ.Flat.Status)
	assert.Equal(t, models.StatusRented, occ.DerivedStatus)
	assert.Equal(t, "Owner", occ.CurrentOwner.Name)
	assert.Equal(t, "Lessee", occ.CurrentLessee.Name)
	assert.Len(t, occ.Ownerships, 1)
	assert.Nil(t, occ.ParkingSpot)
	assert.Equal(t, "-", occ.OccupantLabel())

	require.NoError(t, svc.SetStatus(ctx, flat.ID, models.StatusRented))
	occ, err = svc.Occupancy(ctx, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lessee: Lessee", occ.OccupantLabel())
}

func TestFlatService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := NewFlatService(store, nil)
	flat := testhelpers.CreateFlat(t, store, "D", 3)
	owner := testhelpers.CreatePerson(t, store, models.PersonOwner, "Owner", "")
	testhelpers.OpenTenure(t, store, models.TenureOwnership, flat.ID, owner.ID, time.Now())

	require.NoError(t, svc.Delete(ctx, flat.ID))

	_, err := svc.GetByID(ctx, flat.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, testhelpers.ActiveTenureCounts(t, store, models.TenureOwnership))
	assert.ErrorIs(t, svc.Delete(ctx, flat.ID), models.ErrNotFound)
}
