package repositories

import (
	"context"

	"bms/internal/models"

	"github.com/google/uuid"
)

// PersonRepository stores owners or lessees; the two share one shape.
type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	Update(ctx context.Context, person *models.Person) error
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query string, limit, offset int) ([]*models.Person, error)
	// FindByName matches the name case-insensitively and exactly, oldest first.
	FindByName(ctx context.Context, name string) ([]*models.Person, error)
	// Search matches name or phone substrings for type-ahead lookups.
	Search(ctx context.Context, query string, limit int) ([]*models.Person, error)
}

type personRepo struct {
	db    DBTX
	table string
	kind  models.PersonKind
}

func NewOwnerRepository(db DBTX) PersonRepository {
	return &personRepo{db: db, table: "owners", kind: models.PersonOwner}
}

func NewLesseeRepository(db DBTX) PersonRepository {
	return &personRepo{db: db, table: "lessees", kind: models.PersonLessee}
}

const personColumns = `id, name, phone, email, address, nid_number, created_at, updated_at`

func (r *personRepo) scan(row rowScanner) (*models.Person, error) {
	p := &models.Person{Kind: r.kind}
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.NIDNumber, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *personRepo) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO ` + r.table + ` (id, name, phone, email, address, nid_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, person.ID, person.Name, person.Phone, person.Email, person.Address, person.NIDNumber)
	return mapWriteError(err)
}

func (r *personRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM ` + r.table + ` WHERE id = $1`
	p, err := r.scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return p, nil
}

func (r *personRepo) Update(ctx context.Context, person *models.Person) error {
	query := `
		UPDATE ` + r.table + `
		SET name = $1, phone = $2, email = $3, address = $4, nid_number = $5, updated_at = NOW()
		WHERE id = $6
	`
	return expectOne(r.db.Exec(ctx, query, person.Name, person.Phone, person.Email, person.Address, person.NIDNumber, person.ID))
}

func (r *personRepo) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	query := `UPDATE ` + r.table + ` SET phone = $1, updated_at = NOW() WHERE id = $2`
	return expectOne(r.db.Exec(ctx, query, phone, id))
}

func (r *personRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id))
}

func (r *personRepo) List(ctx context.Context, query string, limit, offset int) ([]*models.Person, error) {
	if query == "" {
		sql := `SELECT ` + personColumns + ` FROM ` + r.table + ` ORDER BY name LIMIT $1 OFFSET $2`
		return r.query(ctx, sql, limit, offset)
	}
	sql := `
		SELECT ` + personColumns + ` FROM ` + r.table + `
		WHERE name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	return r.query(ctx, sql, "%"+query+"%", limit, offset)
}

func (r *personRepo) FindByName(ctx context.Context, name string) ([]*models.Person, error) {
	sql := `SELECT ` + personColumns + ` FROM ` + r.table + ` WHERE LOWER(name) = LOWER($1) ORDER BY created_at, id`
	return r.query(ctx, sql, name)
}

func (r *personRepo) Search(ctx context.Context, query string, limit int) ([]*models.Person, error) {
	sql := `
		SELECT ` + personColumns + ` FROM ` + r.table + `
		WHERE name ILIKE $1 OR phone ILIKE $1
		ORDER BY name
		LIMIT $2
	`
	return r.query(ctx, sql, "%"+query+"%", limit)
}

func (r *personRepo) query(ctx context.Context, sql string, args ...interface{}) ([]*models.Person, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []*models.Person
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}
