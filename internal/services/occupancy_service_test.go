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

type countingListener struct {
	calls int
}

func (l *countingListener) StatusChanged(context.Context) {
	l.calls++
}

type OccupancyServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *testhelpers.MemStore
	flats     map[models.FlatKey]*models.Flat
	listener  *countingListener
	status    StatusService
	occupancy OccupancyService
	day       time.Time
}

func (suite *OccupancyServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = testhelpers.NewMemStore()
	suite.flats = testhelpers.SeedBuilding(suite.T(), suite.store)
	suite.listener = &countingListener{}
	logger, _ := test.NewNullLogger()
	suite.status = NewStatusService(suite.store, suite.listener, logger)
	suite.occupancy = NewOccupancyService(suite.store, suite.status, suite.listener, logger)
	suite.day = testhelpers.Date(2026, time.February, 1)
}

func (suite *OccupancyServiceTestSuite) flat(unit string, floor int) *models.Flat {
	return suite.flats[models.FlatKey{Unit: unit, Floor: floor}]
}

func (suite *OccupancyServiceTestSuite) statusOf(f *models.Flat) models.FlatStatus {
	got, err := suite.store.Repos().Flats.GetByID(suite.ctx, f.ID)
	suite.Require().NoError(err)
	return got.Status
}

func (suite *OccupancyServiceTestSuite) TestAssignOwnerMakesFlatOwnerOccupied() {
	flat := suite.flat("A", 1)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "John Doe", "")

	tenure, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day)

	suite.Require().NoError(err)
	suite.Equal(owner.ID, tenure.PartyID)
	suite.True(tenure.IsActive())
	suite.Equal(models.StatusOwnerOccupied, suite.statusOf(flat))
	suite.Equal(1, suite.listener.calls)
}

func (suite *OccupancyServiceTestSuite) TestAssignOwnerClosesPreviousOwnership() {
	flat := suite.flat("B", 3)
	first := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "First", "")
	second := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Second", "")

	old, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, first.ID, suite.day)
	suite.Require().NoError(err)
	_, err = suite.occupancy.AssignOwner(suite.ctx, flat.ID, second.ID, suite.day.AddDate(0, 1, 0))
	suite.Require().NoError(err)

	history, err := suite.store.Repos().Ownerships.ListByFlat(suite.ctx, flat.ID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.Equal(second.ID, history[0].PartyID)
	suite.True(history[0].IsActive())
	suite.Equal(old.ID, history[1].ID)
	suite.Require().NotNil(history[1].EndDate)
	suite.Equal(suite.day.AddDate(0, 1, 0), *history[1].EndDate)
	suite.Equal(1, testhelpers.ActiveTenureCounts(suite.T(), suite.store, models.TenureOwnership)[flat.ID])
}

func (suite *OccupancyServiceTestSuite) TestAssignSameOwnerIsNoop() {
	flat := suite.flat("C", 4)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner", "")

	first, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day)
	suite.Require().NoError(err)
	again, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day.AddDate(0, 0, 5))
	suite.Require().NoError(err)

	suite.Equal(first.ID, again.ID)
	history, _ := suite.store.Repos().Ownerships.ListByFlat(suite.ctx, flat.ID)
	suite.Len(history, 1)
}

func (suite *OccupancyServiceTestSuite) TestTenancyWinsOverOwnership() {
	flat := suite.flat("D", 7)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner", "")
	lessee := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonLessee, "Lessee", "")

	_, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day)
	suite.Require().NoError(err)
	_, err = suite.occupancy.AssignLessee(suite.ctx, flat.ID, lessee.ID, suite.day)
	suite.Require().NoError(err)
	suite.Equal(models.StatusRented, suite.statusOf(flat))

	_, err = suite.occupancy.EndTenancy(suite.ctx, flat.ID, suite.day.AddDate(0, 6, 0))
	suite.Require().NoError(err)
	suite.Equal(models.StatusOwnerOccupied, suite.statusOf(flat))

	_, err = suite.occupancy.EndOwnership(suite.ctx, flat.ID, suite.day.AddDate(1, 0, 0))
	suite.Require().NoError(err)
	suite.Equal(models.StatusVacant, suite.statusOf(flat))
	suite.Equal(4, suite.listener.calls)
}

func (suite *OccupancyServiceTestSuite) TestEndWithoutActiveInterval() {
	_, err := suite.occupancy.EndTenancy(suite.ctx, suite.flat("A", 2).ID, suite.day)

	suite.ErrorIs(err, models.ErrNotFound)
	suite.Equal(0, suite.listener.calls)
}

func (suite *OccupancyServiceTestSuite) TestEndBeforeStartIsRejected() {
	flat := suite.flat("E", 10)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner", "")
	_, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day)
	suite.Require().NoError(err)

	_, err = suite.occupancy.EndOwnership(suite.ctx, flat.ID, suite.day.AddDate(0, 0, -1))

	suite.ErrorIs(err, models.ErrInvalidInterval)
	suite.Equal(models.StatusOwnerOccupied, suite.statusOf(flat))
}

func (suite *OccupancyServiceTestSuite) TestAssignUnknownParty() {
	_, err := suite.occupancy.AssignLessee(suite.ctx, suite.flat("A", 1).ID, uuid.New(), suite.day)

	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *OccupancyServiceTestSuite) TestFailedStatusWriteRollsBack() {
	flat := suite.flat("F", 9)
	owner := testhelpers.CreatePerson(suite.T(), suite.store, models.PersonOwner, "Owner", "")
	suite.store.FailOn("flats.UpdateStatus", models.ErrNotFound)

	_, err := suite.occupancy.AssignOwner(suite.ctx, flat.ID, owner.ID, suite.day)

	suite.Error(err)
	suite.Zero(testhelpers.ActiveTenureCounts(suite.T(), suite.store, models.TenureOwnership)[flat.ID])
	suite.Equal(models.StatusVacant, suite.statusOf(flat))
}

func TestOccupancyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OccupancyServiceTestSuite))
}
