package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bms/internal/models"

	"github.com/google/uuid"
)

type ParkingSpotRepository interface {
	Create(ctx context.Context, spot *models.ParkingSpot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpot, error)
	// FindByFlat returns nil when the flat has no dedicated spot.
	FindByFlat(ctx context.Context, flatID uuid.UUID) (*models.ParkingSpot, error)
	CodeExists(ctx context.Context, code string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, spot *models.ParkingSpot) error
	List(ctx context.Context, limit, offset int) ([]*models.ParkingSpot, error)
}

type parkingSpotRepo struct {
	db DBTX
}

func NewParkingSpotRepository(db DBTX) ParkingSpotRepository {
	return &parkingSpotRepo{db: db}
}

const spotColumns = `id, code, level, is_reserved, notes, flat_id, created_at, updated_at`

func scanSpot(row rowScanner) (*models.ParkingSpot, error) {
	s := &models.ParkingSpot{}
	if err := row.Scan(&s.ID, &s.Code, &s.Level, &s.IsReserved, &s.Notes, &s.FlatID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *parkingSpotRepo) Create(ctx context.Context, spot *models.ParkingSpot) error {
	query := `
		INSERT INTO parking_spots (id, code, level, is_reserved, notes, flat_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, spot.ID, spot.Code, spot.Level, spot.IsReserved, spot.Notes, spot.FlatID)
	return mapWriteError(err)
}

func (r *parkingSpotRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpot, error) {
	s, err := scanSpot(r.db.QueryRow(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE id = $1`, id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return s, nil
}

func (r *parkingSpotRepo) FindByFlat(ctx context.Context, flatID uuid.UUID) (*models.ParkingSpot, error) {
	s, err := scanSpot(r.db.QueryRow(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE flat_id = $1`, flatID))
	if err != nil {
		if err = mapReadError(err); errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *parkingSpotRepo) CodeExists(ctx context.Context, code string, exclude uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM parking_spots WHERE code = $1 AND id <> $2)`
	err := r.db.QueryRow(ctx, query, code, exclude).Scan(&exists)
	return exists, err
}

func (r *parkingSpotRepo) Update(ctx context.Context, spot *models.ParkingSpot) error {
	query := `
		UPDATE parking_spots
		SET code = $1, level = $2, is_reserved = $3, notes = $4, flat_id = $5, updated_at = NOW()
		WHERE id = $6
	`
	return expectOne(r.db.Exec(ctx, query, spot.Code, spot.Level, spot.IsReserved, spot.Notes, spot.FlatID, spot.ID))
}

// List returns spots by code; a non-positive limit returns all of them.
func (r *parkingSpotRepo) List(ctx context.Context, limit, offset int) ([]*models.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots ORDER BY code`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []*models.ParkingSpot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

// VehicleFilter narrows the vehicle list page.
type VehicleFilter struct {
	Query     string
	OwnerType models.VehicleOwnerType
	Limit     int
	Offset    int
}

type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter VehicleFilter) ([]*models.Vehicle, error)
}

type vehicleRepo struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) VehicleRepository {
	return &vehicleRepo{db: db}
}

const vehicleColumns = `v.id, v.plate_no, v.vehicle_type, v.make, v.model, v.color, v.tag_no, v.owner_type,
	v.owner_id, v.lessee_id, v.external_name, v.external_phone, v.external_company,
	v.flat_id, v.is_active, v.notes, v.created_at`

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	var extName, extPhone, extCompany *string
	if err := row.Scan(&v.ID, &v.PlateNo, &v.VehicleType, &v.Make, &v.Model, &v.Color, &v.TagNo, &v.OwnerType,
		&v.OwnerID, &v.LesseeID, &extName, &extPhone, &extCompany,
		&v.FlatID, &v.IsActive, &v.Notes, &v.CreatedAt); err != nil {
		return nil, err
	}
	if extName != nil {
		v.ExternalOwner = &models.ExternalOwner{Name: *extName}
		if extPhone != nil {
			v.ExternalOwner.Phone = *extPhone
		}
		if extCompany != nil {
			v.ExternalOwner.Company = *extCompany
		}
	}
	return v, nil
}

func externalColumns(v *models.Vehicle) (name, phone, company *string) {
	if v.ExternalOwner == nil {
		return nil, nil, nil
	}
	return &v.ExternalOwner.Name, &v.ExternalOwner.Phone, &v.ExternalOwner.Company
}

func (r *vehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate_no, vehicle_type, make, model, color, tag_no, owner_type,
			owner_id, lessee_id, external_name, external_phone, external_company,
			flat_id, is_active, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
	`
	name, phone, company := externalColumns(v)
	_, err := r.db.Exec(ctx, query, v.ID, v.PlateNo, v.VehicleType, v.Make, v.Model, v.Color, v.TagNo, v.OwnerType,
		v.OwnerID, v.LesseeID, name, phone, company, v.FlatID, v.IsActive, v.Notes)
	return mapWriteError(err)
}

func (r *vehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles v WHERE v.id = $1`, id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return v, nil
}

func (r *vehicleRepo) Update(ctx context.Context, v *models.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate_no = $1, vehicle_type = $2, make = $3, model = $4, color = $5, tag_no = $6, owner_type = $7,
			owner_id = $8, lessee_id = $9, external_name = $10, external_phone = $11, external_company = $12,
			flat_id = $13, is_active = $14, notes = $15
		WHERE id = $16
	`
	name, phone, company := externalColumns(v)
	return expectOne(r.db.Exec(ctx, query, v.PlateNo, v.VehicleType, v.Make, v.Model, v.Color, v.TagNo, v.OwnerType,
		v.OwnerID, v.LesseeID, name, phone, company, v.FlatID, v.IsActive, v.Notes, v.ID))
}

func (r *vehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id))
}

// List searches plate numbers and the names of linked owners, lessees and
// external owners.
func (r *vehicleRepo) List(ctx context.Context, filter VehicleFilter) ([]*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles v
		LEFT JOIN owners o ON o.id = v.owner_id
		LEFT JOIN lessees l ON l.id = v.lessee_id
		WHERE ($1 = '' OR v.plate_no ILIKE '%' || $1 || '%' OR o.name ILIKE '%' || $1 || '%'
			OR l.name ILIKE '%' || $1 || '%' OR v.external_name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR v.owner_type = $2)
		ORDER BY v.plate_no
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, filter.Query, string(filter.OwnerType), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

type ParkingAssignmentRepository interface {
	Create(ctx context.Context, a *models.ParkingAssignment) error
	// FindActiveBySpot and FindActiveByVehicle return nil when nothing is open.
	FindActiveBySpot(ctx context.Context, spotID uuid.UUID) (*models.ParkingAssignment, error)
	FindActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.ParkingAssignment, error)
	ListBySpot(ctx context.Context, spotID uuid.UUID) ([]*models.ParkingAssignment, error)
	End(ctx context.Context, id uuid.UUID, endDate time.Time) error
}

type parkingAssignmentRepo struct {
	db DBTX
}

func NewParkingAssignmentRepository(db DBTX) ParkingAssignmentRepository {
	return &parkingAssignmentRepo{db: db}
}

const assignmentColumns = `id, spot_id, vehicle_id, plate_no, driver_name, remarks, start_date, end_date, created_at`

func scanAssignment(row rowScanner) (*models.ParkingAssignment, error) {
	a := &models.ParkingAssignment{}
	if err := row.Scan(&a.ID, &a.SpotID, &a.VehicleID, &a.PlateNo, &a.DriverName, &a.Remarks, &a.StartDate, &a.EndDate, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *parkingAssignmentRepo) Create(ctx context.Context, a *models.ParkingAssignment) error {
	query := `
		INSERT INTO parking_assignments (id, spot_id, vehicle_id, plate_no, driver_name, remarks, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.SpotID, a.VehicleID, a.PlateNo, a.DriverName, a.Remarks, a.StartDate, a.EndDate)
	return mapWriteError(err)
}

func (r *parkingAssignmentRepo) findActive(ctx context.Context, column string, id uuid.UUID) (*models.ParkingAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + ` FROM parking_assignments
		WHERE ` + column + ` = $1 AND end_date IS NULL
		ORDER BY start_date DESC
		LIMIT 1
	`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err = mapReadError(err); errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *parkingAssignmentRepo) FindActiveBySpot(ctx context.Context, spotID uuid.UUID) (*models.ParkingAssignment, error) {
	return r.findActive(ctx, "spot_id", spotID)
}

func (r *parkingAssignmentRepo) FindActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.ParkingAssignment, error) {
	return r.findActive(ctx, "vehicle_id", vehicleID)
}

func (r *parkingAssignmentRepo) ListBySpot(ctx context.Context, spotID uuid.UUID) ([]*models.ParkingAssignment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assignmentColumns+` FROM parking_assignments WHERE spot_id = $1 ORDER BY start_date DESC`, spotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.ParkingAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *parkingAssignmentRepo) End(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE parking_assignments SET end_date = $1 WHERE id = $2 AND end_date IS NULL`, models.DateOnly(endDate), id)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("parking assignment %s: %w", id, models.ErrIntervalEnded)
	}
	return nil
}
