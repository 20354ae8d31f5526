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
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PersonRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	owners  PersonRepository
	lessees PersonRepository
	context context.Context
}

func (suite *PersonRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.owners = NewOwnerRepository(mock)
	suite.lessees = NewLesseeRepository(mock)
	suite.context = context.Background()
}

func (suite *PersonRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestPersonRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PersonRepoTestSuite))
}

func personRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "phone", "email", "address", "nid_number", "created_at", "updated_at"})
}

func (suite *PersonRepoTestSuite) TestCreate_UsesKindTable() {
	p := &models.Person{ID: uuid.New(), Name: "Nadia Islam", Phone: "01822000000"}

	suite.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lessees (id, name, phone, email, address, nid_number, created_at, updated_at)`)).
		WithArgs(p.ID, p.Name, p.Phone, p.Email, p.Address, p.NIDNumber).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.lessees.Create(suite.context, p))
}

func (suite *PersonRepoTestSuite) TestGetByID_SetsKind() {
	id := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`SELECT .+ FROM owners WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(personRows().AddRow(id, "Ashikur Rahman", "017", "", "", "", now, now))

	p, err := suite.owners.GetByID(suite.context, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PersonOwner, p.Kind)
	assert.Equal(suite.T(), "Ashikur Rahman", p.Name)
}

func (suite *PersonRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM owners WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.owners.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *PersonRepoTestSuite) TestUpdatePhone_NoRows() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`UPDATE owners SET phone = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("01711000000", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.owners.UpdatePhone(suite.context, id, "01711000000")
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *PersonRepoTestSuite) TestDelete_StillReferenced() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM owners WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "ownerships_owner_id_fkey"})

	err := suite.owners.Delete(suite.context, id)
	assert.ErrorIs(suite.T(), err, models.ErrInUse)
}

func (suite *PersonRepoTestSuite) TestFindByName_CaseInsensitiveOldestFirst() {
	now := time.Now()
	first, second := uuid.New(), uuid.New()

	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(name) = LOWER($1) ORDER BY created_at, id`)).
		WithArgs("john doe").
		WillReturnRows(personRows().
			AddRow(first, "John Doe", "017", "", "", "", now.Add(-time.Hour), now).
			AddRow(second, "JOHN DOE", "018", "", "", "", now, now))

	people, err := suite.owners.FindByName(suite.context, "john doe")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), people, 2)
	assert.Equal(suite.T(), first, people[0].ID)
}

func (suite *PersonRepoTestSuite) TestList_FilterWrapsQuery() {
	suite.mock.ExpectQuery(`WHERE name ILIKE \$1 OR phone ILIKE \$1 OR email ILIKE \$1`).
		WithArgs("%jon%", 50, 0).
		WillReturnRows(personRows())

	people, err := suite.owners.List(suite.context, "jon", 50, 0)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), people)
}
