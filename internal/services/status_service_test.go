package services

import (
	"context"
	"testing"
	"time"

	"bms/internal/models"
	"bms/testhelpers"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatusPriority(t *testing.T) {
	assert.Equal(t, models.StatusVacant, models.DeriveStatus(false, false))
	assert.Equal(t, models.StatusOwnerOccupied, models.DeriveStatus(true, false))
	assert.Equal(t, models.StatusRented, models.DeriveStatus(false, true))
	assert.Equal(t, models.StatusRented, models.DeriveStatus(true, true))
}

func TestSyncAll_RepairsDriftAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	flats := testhelpers.SeedBuilding(t, store)
	day := testhelpers.Date(2026, time.January, 1)

	owner := testhelpers.CreatePerson(t, store, models.PersonOwner, "Owner", "")
	lessee := testhelpers.CreatePerson(t, store, models.PersonLessee, "Lessee", "")
	owned := flats[models.FlatKey{Unit: "A", Floor: 1}]
	both := flats[models.FlatKey{Unit: "B", Floor: 2}]
	drifted := flats[models.FlatKey{Unit: "C", Floor: 3}]

	testhelpers.OpenTenure(t, store, models.TenureOwnership, owned.ID, owner.ID, day)
	testhelpers.OpenTenure(t, store, models.TenureOwnership, both.ID, owner.ID, day)
	testhelpers.OpenTenure(t, store, models.TenureTenancy, both.ID, lessee.ID, day)
	require.NoError(t, store.Repos().Flats.UpdateStatus(ctx, drifted.ID, models.StatusRented))

	listener := &countingListener{}
	logger, hook := test.NewNullLogger()
	svc := NewStatusService(store, listener, logger)

	changed, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)
	assert.Equal(t, 1, listener.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 3, hook.LastEntry().Data["changed"])

	statuses := testhelpers.FlatStatuses(t, store)
	assert.Equal(t, models.StatusOwnerOccupied, statuses[owned.Key()])
	assert.Equal(t, models.StatusRented, statuses[both.Key()])
	assert.Equal(t, models.StatusVacant, statuses[drifted.Key()])

	changed, err = svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Equal(t, 1, listener.calls)
	assert.Equal(t, statuses, testhelpers.FlatStatuses(t, store))
}

func TestSyncAll_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	a := testhelpers.CreateFlat(t, store, "A", 1)
	b := testhelpers.CreateFlat(t, store, "B", 1)
	require.NoError(t, store.Repos().Flats.UpdateStatus(ctx, a.ID, models.StatusRented))
	require.NoError(t, store.Repos().Flats.UpdateStatus(ctx, b.ID, models.StatusRented))

	logger, _ := test.NewNullLogger()
	svc := NewStatusService(store, nil, logger)

	store.FailOn("flats.UpdateStatus", models.ErrNotFound)
	_, err := svc.SyncAll(ctx)
	require.ErrorIs(t, err, models.ErrNotFound)

	statuses := testhelpers.FlatStatuses(t, store)
	assert.Equal(t, models.StatusRented, statuses[a.Key()])
	assert.Equal(t, models.StatusRented, statuses[b.Key()])
}

func TestRefresh_UsesCallerTransaction(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	flat := testhelpers.CreateFlat(t, store, "H", 14)
	lessee := testhelpers.CreatePerson(t, store, models.PersonLessee, "Lessee", "")
	testhelpers.OpenTenure(t, store, models.TenureTenancy, flat.ID, lessee.ID, time.Now())

	logger, _ := test.NewNullLogger()
	svc := NewStatusService(store, nil, logger)

	status, err := svc.Refresh(ctx, store.Repos(), flat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRented, status)
	assert.Equal(t, models.StatusRented, testhelpers.FlatStatuses(t, store)[flat.Key()])
}
