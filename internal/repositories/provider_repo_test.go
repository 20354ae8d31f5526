package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"bms/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestServiceCategoryRepo_ListActiveOnly(t *testing.T) {
	mock := newProviderMock(t)
	repo := NewServiceCategoryRepository(mock)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM service_categories WHERE is_active ORDER BY name`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_active", "created_at"}).
			AddRow(id, "Electrician", true, time.Now()))

	categories, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Electrician", categories[0].Name)
}

func TestServiceCategoryRepo_CreateDuplicateName(t *testing.T) {
	mock := newProviderMock(t)
	repo := NewServiceCategoryRepository(mock)

	c := &models.ServiceCategory{ID: uuid.New(), Name: "Plumber", IsActive: true}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO service_categories`)).
		WithArgs(c.ID, c.Name, c.IsActive).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "service_categories_name_key"})

	err := repo.Create(context.Background(), c)
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestServiceProviderRepo_ListBuildsFilter(t *testing.T) {
	mock := newProviderMock(t)
	repo := NewServiceProviderRepository(mock)

	categoryID := uuid.New()
	active := true
	years := 6
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (p.full_name ILIKE $1 OR p.phone ILIKE $1 OR p.email ILIKE $1 OR c.name ILIKE $1) AND p.category_id = $2 AND p.is_active = $3 ORDER BY p.full_name LIMIT $4 OFFSET $5`)).
		WithArgs("%karim%", categoryID, true, 20, 40).
		WillReturnRows(pgxmock.NewRows([]string{"id", "category_id", "name", "full_name", "phone", "email", "address",
			"nid_number", "experience_years", "notes", "is_active", "created_at"}).
			AddRow(uuid.New(), categoryID, "Electrician", "Karim Mia", "017", "", "", "", &years, "", true, time.Now()))

	providers, err := repo.List(context.Background(), models.ProviderFilter{
		Query:      " karim ",
		CategoryID: &categoryID,
		Active:     &active,
		Limit:      20,
		Offset:     40,
	})
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "Electrician", providers[0].CategoryName)
	require.NotNil(t, providers[0].ExperienceYears)
	assert.Equal(t, 6, *providers[0].ExperienceYears)
}

func TestServiceProviderRepo_DeleteMissing(t *testing.T) {
	mock := newProviderMock(t)
	repo := NewServiceProviderRepository(mock)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM service_providers WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), models.ErrNotFound)
}
