package repositories

import (
	"context"
	"strconv"
	"strings"

	"bms/internal/models"

	"github.com/google/uuid"
)

type ServiceCategoryRepository interface {
	Create(ctx context.Context, category *models.ServiceCategory) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error)
	Update(ctx context.Context, category *models.ServiceCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error)
}

type serviceCategoryRepo struct {
	db DBTX
}

func NewServiceCategoryRepository(db DBTX) ServiceCategoryRepository {
	return &serviceCategoryRepo{db: db}
}

func (r *serviceCategoryRepo) Create(ctx context.Context, category *models.ServiceCategory) error {
	query := `INSERT INTO service_categories (id, name, is_active, created_at) VALUES ($1, $2, $3, NOW())`
	_, err := r.db.Exec(ctx, query, category.ID, category.Name, category.IsActive)
	return mapWriteError(err)
}

func (r *serviceCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	c := &models.ServiceCategory{}
	err := r.db.QueryRow(ctx, `SELECT id, name, is_active, created_at FROM service_categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, mapReadError(err)
	}
	return c, nil
}

func (r *serviceCategoryRepo) Update(ctx context.Context, category *models.ServiceCategory) error {
	query := `UPDATE service_categories SET name = $1, is_active = $2 WHERE id = $3`
	return expectOne(r.db.Exec(ctx, query, category.Name, category.IsActive, category.ID))
}

// Delete fails with a foreign key error while providers still reference the
// category.
func (r *serviceCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM service_categories WHERE id = $1`, id))
}

func (r *serviceCategoryRepo) List(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error) {
	query := `SELECT id, name, is_active, created_at FROM service_categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.ServiceCategory
	for rows.Next() {
		c := &models.ServiceCategory{}
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type ServiceProviderRepository interface {
	Create(ctx context.Context, provider *models.ServiceProvider) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error)
	Update(ctx context.Context, provider *models.ServiceProvider) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.ProviderFilter) ([]*models.ServiceProvider, error)
}

type serviceProviderRepo struct {
	db DBTX
}

func NewServiceProviderRepository(db DBTX) ServiceProviderRepository {
	return &serviceProviderRepo{db: db}
}

const providerSelect = `
	SELECT p.id, p.category_id, c.name, p.full_name, p.phone, p.email, p.address, p.nid_number,
		p.experience_years, p.notes, p.is_active, p.created_at
	FROM service_providers p
	JOIN service_categories c ON c.id = p.category_id`

func scanProvider(row rowScanner) (*models.ServiceProvider, error) {
	p := &models.ServiceProvider{}
	if err := row.Scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.FullName, &p.Phone, &p.Email, &p.Address,
		&p.NIDNumber, &p.ExperienceYears, &p.Notes, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *serviceProviderRepo) Create(ctx context.Context, provider *models.ServiceProvider) error {
	query := `
		INSERT INTO service_providers (id, category_id, full_name, phone, email, address, nid_number,
			experience_years, notes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`
	_, err := r.db.Exec(ctx, query, provider.ID, provider.CategoryID, provider.FullName, provider.Phone, provider.Email,
		provider.Address, provider.NIDNumber, provider.ExperienceYears, provider.Notes, provider.IsActive)
	return mapWriteError(err)
}

func (r *serviceProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	p, err := scanProvider(r.db.QueryRow(ctx, providerSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return p, nil
}

func (r *serviceProviderRepo) Update(ctx context.Context, provider *models.ServiceProvider) error {
	query := `
		UPDATE service_providers
		SET category_id = $1, full_name = $2, phone = $3, email = $4, address = $5, nid_number = $6,
			experience_years = $7, notes = $8, is_active = $9
		WHERE id = $10
	`
	return expectOne(r.db.Exec(ctx, query, provider.CategoryID, provider.FullName, provider.Phone, provider.Email,
		provider.Address, provider.NIDNumber, provider.ExperienceYears, provider.Notes, provider.IsActive, provider.ID))
}

func (r *serviceProviderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM service_providers WHERE id = $1`, id))
}

// List matches the query against name, phone, email or category name.
func (r *serviceProviderRepo) List(ctx context.Context, filter models.ProviderFilter) ([]*models.ServiceProvider, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, "(p.full_name ILIKE "+p+" OR p.phone ILIKE "+p+" OR p.email ILIKE "+p+" OR c.name ILIKE "+p+")")
	}
	if filter.CategoryID != nil {
		conds = append(conds, "p.category_id = "+arg(*filter.CategoryID))
	}
	if filter.Active != nil {
		conds = append(conds, "p.is_active = "+arg(*filter.Active))
	}

	query := providerSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.full_name"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*models.ServiceProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
