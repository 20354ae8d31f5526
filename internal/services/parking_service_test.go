package services

import (
	"context"
	"testing"
	"time"

	"bms/internal/models"
	"bms/testhelpers"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type ParkingServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *testhelpers.MemStore
	service ParkingService
	day     time.Time
}

func (suite *ParkingServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = testhelpers.NewMemStore()
	logger, _ := test.NewNullLogger()
	suite.service = NewParkingService(suite.store, logger)
	suite.day = testhelpers.Date(2026, time.April, 1)
}

func (suite *ParkingServiceTestSuite) spot(code string) *models.ParkingSpot {
	spot := &models.ParkingSpot{Code: code}
	suite.Require().NoError(suite.service.CreateSpot(suite.ctx, spot))
	return spot
}

func (suite *ParkingServiceTestSuite) vehicle(plate string) *models.Vehicle {
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner "+plate, "")
	v := &models.Vehicle{PlateNo: plate, OwnerType: models.VehicleOwnedByOwner, OwnerID: &owner.ID, IsActive: true}
	suite.Require().NoError(suite.service.CreateVehicle(suite.ctx, v))
	return v
}

func (suite *ParkingServiceTestSuite) TestCreateSpotDefaultsCodeFromFlat() {
	flat := testhelpers.CreateFlat(suite.T(), suite.store, "E", 10)
	spot := &models.ParkingSpot{FlatID: &flat.ID}

	suite.Require().NoError(suite.service.CreateSpot(suite.ctx, spot))

	suite.Equal("E-10", spot.Code)
	suite.Equal(1, spot.Level)
}

func (suite *ParkingServiceTestSuite) TestCreateSpotRequiresCode() {
	var verr *models.ValidationError
	suite.ErrorAs(suite.service.CreateSpot(suite.ctx, &models.ParkingSpot{}), &verr)
	suite.ErrorAs(suite.service.CreateSpot(suite.ctx, &models.ParkingSpot{Code: "VERY-LONG-CODE"}), &verr)
}

func (suite *ParkingServiceTestSuite) TestCreateVehicleNormalizesPlate() {
	v := suite.vehicle(" dhaka metro ga 12 ")

	suite.Equal("DHAKAMETROGA12", v.PlateNo)
	suite.Equal(models.VehicleCar, v.VehicleType)
}

func (suite *ParkingServiceTestSuite) TestCreateVehicleRejectsMismatchedOwner() {
	lessee := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonLessee, "Lessee", "")
	v := &models.Vehicle{PlateNo: "X1", OwnerType: models.VehicleOwnedByOwner, LesseeID: &lessee.ID}

	var verr *models.ValidationError
	suite.ErrorAs(suite.service.CreateVehicle(suite.ctx, v), &verr)
}

func (suite *ParkingServiceTestSuite) TestAssignEndsPreviousSpotAssignment() {
	spot := suite.spot("P1")

	first, err := suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "aa 11", StartDate: suite.day})
	suite.Require().NoError(err)
	suite.Equal("AA11", first.PlateNo)

	_, err = suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "BB22", StartDate: suite.day.AddDate(0, 0, 3)})
	suite.Require().NoError(err)

	history, err := suite.service.SpotHistory(suite.ctx, spot.ID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.True(history[0].IsActive())
	suite.Equal("BB22", history[0].PlateNo)
	suite.Require().NotNil(history[1].EndDate)
	suite.Equal(suite.day.AddDate(0, 0, 3), *history[1].EndDate)
}

func (suite *ParkingServiceTestSuite) TestAssignMovesVehicleBetweenSpots() {
	a, b := suite.spot("P1"), suite.spot("P2")
	v := suite.vehicle("CAR1")

	_, err := suite.service.Assign(suite.ctx, a.ID, AssignSpotRequest{VehicleID: &v.ID, StartDate: suite.day})
	suite.Require().NoError(err)
	moved, err := suite.service.Assign(suite.ctx, b.ID, AssignSpotRequest{VehicleID: &v.ID, StartDate: suite.day.AddDate(0, 1, 0)})
	suite.Require().NoError(err)
	suite.Equal("CAR1", moved.PlateNo)

	active, err := suite.store.Repos().Parking.FindActiveBySpot(suite.ctx, a.ID)
	suite.Require().NoError(err)
	suite.Nil(active)
	active, err = suite.store.Repos().Parking.FindActiveByVehicle(suite.ctx, v.ID)
	suite.Require().NoError(err)
	suite.Equal(b.ID, active.SpotID)
}

func (suite *ParkingServiceTestSuite) TestAssignRequiresVehicleOrPlate() {
	spot := suite.spot("P1")

	_, err := suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "   ", StartDate: suite.day})

	var verr *models.ValidationError
	suite.ErrorAs(err, &verr)
}

func (suite *ParkingServiceTestSuite) TestAssignConcurrentWriterConflict() {
	spot := suite.spot("P1")
	suite.store.FailOn("parking_assignments.Create", models.ErrActiveIntervalConflict)

	_, err := suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "AA11", StartDate: suite.day})

	suite.ErrorIs(err, models.ErrActiveIntervalConflict)
}

func (suite *ParkingServiceTestSuite) TestRelease() {
	spot := suite.spot("P1")
	_, err := suite.service.Release(suite.ctx, spot.ID, suite.day)
	suite.ErrorIs(err, models.ErrNotFound)

	_, err = suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "AA11", StartDate: suite.day})
	suite.Require().NoError(err)

	released, err := suite.service.Release(suite.ctx, spot.ID, suite.day.AddDate(0, 0, 1))
	suite.Require().NoError(err)
	suite.False(released.IsActive())

	_, err = suite.service.Release(suite.ctx, spot.ID, suite.day.AddDate(0, 0, 2))
	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *ParkingServiceTestSuite) TestSpotHistoryUnknownSpot() {
	_, err := suite.service.SpotHistory(suite.ctx, uuid.New())
	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *ParkingServiceTestSuite) TestSeedSpotsSuffixesTakenCodes() {
	testhelpers.SeedBuilding(suite.T(), suite.store)
	suite.spot("A-01")

	created, err := suite.service.SeedSpots(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(112, created)

	spots, err := suite.service.ListSpots(suite.ctx, 0, 0)
	suite.Require().NoError(err)
	suite.Len(spots, 113)
	codes := map[string]bool{}
	for _, sp := range spots {
		codes[sp.Code] = true
	}
	suite.True(codes["A-01-2"])

	again, err := suite.service.SeedSpots(suite.ctx)
	suite.Require().NoError(err)
	suite.Zero(again)
}

func (suite *ParkingServiceTestSuite) TestAutoAssignDryRunMatchesApply() {
	flats := testhelpers.SeedBuilding(suite.T(), suite.store)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner", "")
	lessee := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonLessee, "Lessee", "")

	owned := flats[models.FlatKey{Unit: "A", Floor: 1}]
	rented := flats[models.FlatKey{Unit: "B", Floor: 1}]
	testhelpers.OpenTenure(suite.T(), suite.store, models.TenureOwnership, owned.ID, owner.ID, suite.day)
	testhelpers.OpenTenure(suite.T(), suite.store, models.TenureOwnership, rented.ID, owner.ID, suite.day)
	testhelpers.OpenTenure(suite.T(), suite.store, models.TenureTenancy, rented.ID, lessee.ID, suite.day.AddDate(0, 2, 0))

	// B-01 already has a spot with an outdated assignment.
	spot := &models.ParkingSpot{FlatID: &rented.ID}
	suite.Require().NoError(suite.service.CreateSpot(suite.ctx, spot))
	_, err := suite.service.Assign(suite.ctx, spot.ID, AssignSpotRequest{PlateNo: "OLD1", StartDate: suite.day})
	suite.Require().NoError(err)
	txBefore := suite.store.TxCount()

	preview, err := suite.service.AutoAssign(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Equal(txBefore, suite.store.TxCount())
	suite.Equal(AutoAssignResult{DryRun: true, Processed: 112, SpotsCreated: 1, Ended: 1, Created: 2}, *preview)

	applied, err := suite.service.AutoAssign(suite.ctx, false)
	suite.Require().NoError(err)
	preview.DryRun = false
	suite.Equal(*preview, *applied)

	current, err := suite.store.Repos().Parking.FindActiveBySpot(suite.ctx, spot.ID)
	suite.Require().NoError(err)
	suite.Equal("Lessee", current.DriverName)
	suite.Equal("Auto-assign", current.Remarks)
	suite.Equal(suite.day.AddDate(0, 2, 0), current.StartDate)

	ownedSpot, err := suite.store.Repos().Spots.FindByFlat(suite.ctx, owned.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(ownedSpot)
	suite.Equal("A-01", ownedSpot.Code)

	again, err := suite.service.AutoAssign(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Zero(again.Changes())
	suite.Zero(again.SpotsCreated)
}

func TestParkingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ParkingServiceTestSuite))
}
