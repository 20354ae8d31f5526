package services

import (
	"context"
	"testing"

	"bms/internal/models"
	"bms/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderService(t *testing.T) {
	ctx := context.Background()
	svc := NewProviderService(testhelpers.NewMemStore())
	var verr *models.ValidationError

	assert.ErrorAs(t, svc.CreateCategory(ctx, &models.ServiceCategory{Name: " "}), &verr)

	plumber := &models.ServiceCategory{Name: " Plumber ", IsActive: true}
	require.NoError(t, svc.CreateCategory(ctx, plumber))
	assert.Equal(t, "Plumber", plumber.Name)
	assert.ErrorIs(t, svc.CreateCategory(ctx, &models.ServiceCategory{Name: "Plumber"}), models.ErrDuplicate)

	assert.ErrorAs(t, svc.Create(ctx, &models.ServiceProvider{FullName: "Rahim"}), &verr)
	assert.ErrorAs(t, svc.Create(ctx, &models.ServiceProvider{FullName: "Rahim", CategoryID: uuid.New()}), &verr)
	years := -1
	assert.ErrorAs(t, svc.Create(ctx, &models.ServiceProvider{FullName: "Rahim", CategoryID: plumber.ID, ExperienceYears: &years}), &verr)

	years = 4
	p := &models.ServiceProvider{FullName: "Rahim Uddin", CategoryID: plumber.ID, Phone: "0171", ExperienceYears: &years, IsActive: true}
	require.NoError(t, svc.Create(ctx, p))

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", got.FullName)

	list, err := svc.List(ctx, models.ProviderFilter{Query: "rahim", CategoryID: &plumber.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
