package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"bms/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ParkingRepoTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	spots       ParkingSpotRepository
	vehicles    VehicleRepository
	assignments ParkingAssignmentRepository
	context     context.Context
}

func (suite *ParkingRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.spots = NewParkingSpotRepository(mock)
	suite.vehicles = NewVehicleRepository(mock)
	suite.assignments = NewParkingAssignmentRepository(mock)
	suite.context = context.Background()
}

func (suite *ParkingRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestParkingRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ParkingRepoTestSuite))
}

func (suite *ParkingRepoTestSuite) TestFindByFlat_NoSpot() {
	flatID := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_spots WHERE flat_id = $1`)).
		WithArgs(flatID).
		WillReturnError(pgx.ErrNoRows)

	spot, err := suite.spots.FindByFlat(suite.context, flatID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), spot)
}

func (suite *ParkingRepoTestSuite) TestCodeExists() {
	exclude := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM parking_spots WHERE code = $1 AND id <> $2)`)).
		WithArgs("E-10", exclude).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := suite.spots.CodeExists(suite.context, "E-10", exclude)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}

func (suite *ParkingRepoTestSuite) TestCreateVehicle_ExternalOwnerColumns() {
	vehicle := &models.Vehicle{
		ID:            uuid.New(),
		PlateNo:       "DHAKA-GA-1234",
		VehicleType:   models.VehicleCar,
		OwnerType:     models.VehicleOwnedByUberDriver,
		ExternalOwner: &models.ExternalOwner{Name: "Rahim", Phone: "01711", Company: ""},
		IsActive:      true,
	}
	name, phone, company := "Rahim", "01711", ""

	suite.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO vehicles`)).
		WithArgs(vehicle.ID, vehicle.PlateNo, vehicle.VehicleType, "", "", "", "", vehicle.OwnerType,
			vehicle.OwnerID, vehicle.LesseeID, &name, &phone, &company, vehicle.FlatID, true, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.vehicles.Create(suite.context, vehicle)
	assert.NoError(suite.T(), err)
}

func (suite *ParkingRepoTestSuite) TestCreateAssignment_SpotTaken() {
	vehicleID := uuid.New()
	a := &models.ParkingAssignment{
		ID:        uuid.New(),
		SpotID:    uuid.New(),
		VehicleID: &vehicleID,
		Interval:  models.Interval{StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	suite.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO parking_assignments`)).
		WithArgs(a.ID, a.SpotID, a.VehicleID, "", "", "", a.StartDate, a.EndDate).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "one_active_assignment_per_spot"})

	err := suite.assignments.Create(suite.context, a)
	assert.ErrorIs(suite.T(), err, models.ErrActiveIntervalConflict)
}

func (suite *ParkingRepoTestSuite) TestEndAssignment_Success() {
	id := uuid.New()
	end := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	suite.mock.ExpectExec(regexp.QuoteMeta(`UPDATE parking_assignments SET end_date = $1 WHERE id = $2 AND end_date IS NULL`)).
		WithArgs(end, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.assignments.End(suite.context, id, end))
}
