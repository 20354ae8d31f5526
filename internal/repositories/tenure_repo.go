package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bms/internal/models"

	"github.com/google/uuid"
)

// TenureRepository stores ownership or tenancy intervals. At most one row
// per flat may be open; the schema enforces it with a partial unique index.
type TenureRepository interface {
	Create(ctx context.Context, tenure *models.Tenure) error
	// FindActiveByFlat returns nil when the flat has no open interval.
	FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*models.Tenure, error)
	ListActive(ctx context.Context) ([]*models.Tenure, error)
	ListByFlat(ctx context.Context, flatID uuid.UUID) ([]*models.Tenure, error)
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]*models.Tenure, error)
	// End closes an open interval; ErrIntervalEnded if it was not open.
	End(ctx context.Context, id uuid.UUID, endDate time.Time) error
}

type tenureRepo struct {
	db    DBTX
	table string
	kind  models.TenureKind
}

func NewOwnershipRepository(db DBTX) TenureRepository {
	return &tenureRepo{db: db, table: "ownerships", kind: models.TenureOwnership}
}

func NewTenancyRepository(db DBTX) TenureRepository {
	return &tenureRepo{db: db, table: "tenancies", kind: models.TenureTenancy}
}

const tenureColumns = `id, flat_id, party_id, start_date, end_date, created_at`

func (r *tenureRepo) scan(row rowScanner) (*models.Tenure, error) {
	t := &models.Tenure{Kind: r.kind}
	if err := row.Scan(&t.ID, &t.FlatID, &t.PartyID, &t.StartDate, &t.EndDate, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenureRepo) Create(ctx context.Context, tenure *models.Tenure) error {
	query := `
		INSERT INTO ` + r.table + ` (id, flat_id, party_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, tenure.ID, tenure.FlatID, tenure.PartyID, tenure.StartDate, tenure.EndDate)
	return mapWriteError(err)
}

// FindActiveByFlat orders by newest start so a stray duplicate left by a
// manual edit still yields one row.
func (r *tenureRepo) FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*models.Tenure, error) {
	query := `
		SELECT ` + tenureColumns + ` FROM ` + r.table + `
		WHERE flat_id = $1 AND end_date IS NULL
		ORDER BY start_date DESC
		LIMIT 1
	`
	t, err := r.scan(r.db.QueryRow(ctx, query, flatID))
	if err != nil {
		if err = mapReadError(err); errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *tenureRepo) ListActive(ctx context.Context) ([]*models.Tenure, error) {
	query := `SELECT ` + tenureColumns + ` FROM ` + r.table + ` WHERE end_date IS NULL ORDER BY flat_id, start_date DESC`
	return r.query(ctx, query)
}

func (r *tenureRepo) ListByFlat(ctx context.Context, flatID uuid.UUID) ([]*models.Tenure, error) {
	query := `SELECT ` + tenureColumns + ` FROM ` + r.table + ` WHERE flat_id = $1 ORDER BY start_date DESC`
	return r.query(ctx, query, flatID)
}

func (r *tenureRepo) ListByParty(ctx context.Context, partyID uuid.UUID) ([]*models.Tenure, error) {
	query := `SELECT ` + tenureColumns + ` FROM ` + r.table + ` WHERE party_id = $1 ORDER BY start_date DESC`
	return r.query(ctx, query, partyID)
}

func (r *tenureRepo) End(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	query := `UPDATE ` + r.table + ` SET end_date = $1 WHERE id = $2 AND end_date IS NULL`
	tag, err := r.db.Exec(ctx, query, models.DateOnly(endDate), id)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.kind, id, models.ErrIntervalEnded)
	}
	return nil
}

func (r *tenureRepo) query(ctx context.Context, query string, args ...interface{}) ([]*models.Tenure, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenures []*models.Tenure
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tenures = append(tenures, t)
	}
	return tenures, rows.Err()
}
