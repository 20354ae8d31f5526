package repositories

import (
	"context"
	"errors"
	"fmt"

	"bms/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB is a DBTX that can open transactions.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Partial unique indexes guarding "at most one open interval" per resource.
var activeIntervalIndexes = map[string]bool{
	"one_active_ownership_per_flat":     true,
	"one_active_tenancy_per_flat":       true,
	"one_active_assignment_per_spot":    true,
	"one_active_assignment_per_vehicle": true,
}

// mapWriteError translates constraint violations into domain errors.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if activeIntervalIndexes[pgErr.ConstraintName] {
			return fmt.Errorf("%w (%s)", models.ErrActiveIntervalConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w (%s)", models.ErrDuplicate, pgErr.ConstraintName)
	}
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w (%s)", models.ErrInUse, pgErr.ConstraintName)
	}
	return err
}

// mapReadError turns pgx.ErrNoRows into models.ErrNotFound.
func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

// expectOne reports ErrNotFound when a write touched no rows.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Repositories bundles every repository bound to one DBTX, either the pool
// or a single transaction.
type Repositories struct {
	Flats      FlatRepository
	Owners     PersonRepository
	Lessees    PersonRepository
	Ownerships TenureRepository
	Tenancies  TenureRepository
	Spots      ParkingSpotRepository
	Vehicles   VehicleRepository
	Parking    ParkingAssignmentRepository
	Categories ServiceCategoryRepository
	Providers  ServiceProviderRepository
}

func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Flats:      NewFlatRepository(db),
		Owners:     NewOwnerRepository(db),
		Lessees:    NewLesseeRepository(db),
		Ownerships: NewOwnershipRepository(db),
		Tenancies:  NewTenancyRepository(db),
		Spots:      NewParkingSpotRepository(db),
		Vehicles:   NewVehicleRepository(db),
		Parking:    NewParkingAssignmentRepository(db),
		Categories: NewServiceCategoryRepository(db),
		Providers:  NewServiceProviderRepository(db),
	}
}

// Store hands out pool-bound repositories and runs units of work in a
// transaction.
type Store interface {
	Repos() *Repositories
	InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type pgStore struct {
	db    DB
	repos *Repositories
}

func NewStore(db DB) Store {
	return &pgStore{db: db, repos: NewRepositories(db)}
}

func (s *pgStore) Repos() *Repositories {
	return s.repos
}

// InTx commits when fn returns nil and rolls back otherwise.
func (s *pgStore) InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}
