package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bms/internal/models"

	"github.com/google/uuid"
)

type FlatRepository interface {
	Create(ctx context.Context, flat *models.Flat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Flat, error)
	GetByKey(ctx context.Context, unit string, floor int) (*models.Flat, error)
	Update(ctx context.Context, flat *models.Flat) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.FlatStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.FlatFilter) ([]*models.Flat, error)
	ListAll(ctx context.Context) ([]*models.Flat, error)
	CountByStatus(ctx context.Context) (map[models.FlatStatus]int, error)
}

type flatRepo struct {
	db DBTX
}

func NewFlatRepository(db DBTX) FlatRepository {
	return &flatRepo{db: db}
}

const flatColumns = `id, unit, floor, remarks, status, created_at, updated_at`

func scanFlat(row rowScanner) (*models.Flat, error) {
	flat := &models.Flat{}
	if err := row.Scan(&flat.ID, &flat.Unit, &flat.Floor, &flat.Remarks, &flat.Status, &flat.CreatedAt, &flat.UpdatedAt); err != nil {
		return nil, err
	}
	return flat, nil
}

func (r *flatRepo) Create(ctx context.Context, flat *models.Flat) error {
	query := `
		INSERT INTO flats (id, unit, floor, remarks, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, flat.ID, flat.Unit, flat.Floor, flat.Remarks, flat.Status)
	return mapWriteError(err)
}

func (r *flatRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Flat, error) {
	query := `SELECT ` + flatColumns + ` FROM flats WHERE id = $1`
	flat, err := scanFlat(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return flat, nil
}

func (r *flatRepo) GetByKey(ctx context.Context, unit string, floor int) (*models.Flat, error) {
	query := `SELECT ` + flatColumns + ` FROM flats WHERE unit = $1 AND floor = $2`
	flat, err := scanFlat(r.db.QueryRow(ctx, query, unit, floor))
	if err != nil {
		return nil, mapReadError(err)
	}
	return flat, nil
}

func (r *flatRepo) Update(ctx context.Context, flat *models.Flat) error {
	query := `
		UPDATE flats
		SET unit = $1, floor = $2, remarks = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`
	return expectOne(r.db.Exec(ctx, query, flat.Unit, flat.Floor, flat.Remarks, flat.Status, flat.ID))
}

func (r *flatRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FlatStatus) error {
	query := `UPDATE flats SET status = $1, updated_at = NOW() WHERE id = $2`
	return expectOne(r.db.Exec(ctx, query, status, id))
}

func (r *flatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM flats WHERE id = $1`, id))
}

// List applies the list-page filters. A numeric query filters by floor,
// anything else matches the unit letter or a remarks substring.
func (r *flatRepo) List(ctx context.Context, filter models.FlatFilter) ([]*models.Flat, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			conds = append(conds, "floor = "+arg(n))
		} else {
			conds = append(conds, fmt.Sprintf("(UPPER(unit) = UPPER(%s) OR remarks ILIKE %s)", arg(q), arg("%"+q+"%")))
		}
	}
	if filter.Status.Valid() {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Floor > 0 {
		conds = append(conds, "floor = "+arg(filter.Floor))
	}

	query := `SELECT ` + flatColumns + ` FROM flats`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY floor, unit"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)
	}

	return r.query(ctx, query, args...)
}

func (r *flatRepo) ListAll(ctx context.Context) ([]*models.Flat, error) {
	return r.query(ctx, `SELECT `+flatColumns+` FROM flats ORDER BY floor, unit`)
}

func (r *flatRepo) query(ctx context.Context, query string, args ...interface{}) ([]*models.Flat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flats []*models.Flat
	for rows.Next() {
		flat, err := scanFlat(rows)
		if err != nil {
			return nil, err
		}
		flats = append(flats, flat)
	}
	return flats, rows.Err()
}

func (r *flatRepo) CountByStatus(ctx context.Context) (map[models.FlatStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM flats GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.FlatStatus]int)
	for rows.Next() {
		var (
			status models.FlatStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
