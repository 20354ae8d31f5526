package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"
	"bms/pkg/database/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for integration tests
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and migrates it. The test is
// skipped when the variable is unset or in short mode.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	runner, err := migrations.NewRunner(pool)
	if err != nil {
		t.Fatalf("Failed to prepare migrations: %v", err)
	}
	if err := runner.Up(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	runner.Close()

	if _, err := pool.Exec(ctx, `TRUNCATE parking_assignments, vehicles, parking_spots, tenancies, ownerships,
		lessees, owners, flats, service_providers, service_categories`); err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedBuilding creates every flat of the building, all vacant, and returns
// them keyed by position.
func SeedBuilding(t *testing.T, store repositories.Store) map[models.FlatKey]*models.Flat {
	t.Helper()

	flats := make(map[models.FlatKey]*models.Flat)
	ctx := context.Background()
	for floor := models.MinFloor; floor <= models.MaxFloor; floor++ {
		for _, unit := range models.Units {
			flat := &models.Flat{ID: uuid.New(), Unit: string(unit), Floor: floor, Status: models.StatusVacant}
			if err := store.Repos().Flats.Create(ctx, flat); err != nil {
				t.Fatalf("Failed to create flat %s: %v", flat.Code(), err)
			}
			flats[flat.Key()] = flat
		}
	}
	return flats
}

func CreateFlat(t *testing.T, store repositories.Store, unit string, floor int) *models.Flat {
	t.Helper()

	flat := &models.Flat{ID: uuid.New(), Unit: unit, Floor: floor, Status: models.StatusVacant}
	if err := store.Repos().Flats.Create(context.Background(), flat); err != nil {
		t.Fatalf("Failed to create flat: %v", err)
	}
	return flat
}

func CreatePerson(t *testing.T, store repositories.Store, kind models.PersonKind, name, phone string) *models.Person {
	t.Helper()

	person := &models.Person{ID: uuid.New(), Kind: kind, Name: name, Phone: phone}
	repo := store.Repos().Owners
	if kind == models.PersonLessee {
		repo = store.Repos().Lessees
	}
	if err := repo.Create(context.Background(), person); err != nil {
		t.Fatalf("Failed to create %s: %v", kind, err)
	}
	return person
}

// OpenTenure inserts an active ownership or tenancy without touching the
// flat's stored status, the way a direct data edit would.
func OpenTenure(t *testing.T, store repositories.Store, kind models.TenureKind, flatID, partyID uuid.UUID, start time.Time) *models.Tenure {
	t.Helper()

	tenure := models.NewTenure(kind, flatID, partyID, start)
	repo := store.Repos().Ownerships
	if kind == models.TenureTenancy {
		repo = store.Repos().Tenancies
	}
	if err := repo.Create(context.Background(), tenure); err != nil {
		t.Fatalf("Failed to open %s: %v", kind, err)
	}
	return tenure
}

// FlatStatuses reads back the stored status of every flat.
func FlatStatuses(t *testing.T, store repositories.Store) map[models.FlatKey]models.FlatStatus {
	t.Helper()

	flats, err := store.Repos().Flats.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to list flats: %v", err)
	}
	out := make(map[models.FlatKey]models.FlatStatus, len(flats))
	for _, f := range flats {
		out[f.Key()] = f.Status
	}
	return out
}

// ActiveTenureCounts counts open intervals per flat for one kind.
func ActiveTenureCounts(t *testing.T, store repositories.Store, kind models.TenureKind) map[uuid.UUID]int {
	t.Helper()

	repo := store.Repos().Ownerships
	if kind == models.TenureTenancy {
		repo = store.Repos().Tenancies
	}
	active, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("Failed to list active %s: %v", kind, err)
	}
	counts := make(map[uuid.UUID]int)
	for _, a := range active {
		counts[a.FlatID]++
	}
	return counts
}
