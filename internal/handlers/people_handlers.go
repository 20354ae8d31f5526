package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"bms/internal/common"
	"bms/internal/models"
	"bms/internal/services"

	"github.com/labstack/echo/v4"
)

const defaultSearchLimit = 10

// PeopleHandlers serves either owners or lessees, depending on the service.
type PeopleHandlers struct {
	people services.PeopleService
}

func NewPeopleHandlers(people services.PeopleService) *PeopleHandlers {
	return &PeopleHandlers{people: people}
}

// PersonRequest is the create and update payload
type PersonRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"max=40"`
	Email     string `json:"email" validate:"omitempty,email"`
	Address   string `json:"address" validate:"max=500"`
	NIDNumber string `json:"nid_number" validate:"max=50"`
}

func (r *PersonRequest) apply(p *models.Person) {
	p.Name = strings.TrimSpace(r.Name)
	p.Phone = strings.TrimSpace(r.Phone)
	p.Email = strings.TrimSpace(r.Email)
	p.Address = r.Address
	p.NIDNumber = r.NIDNumber
}

func (h *PeopleHandlers) resource() string {
	return string(h.people.Kind())
}

func (h *PeopleHandlers) plural() string {
	return h.resource() + "s"
}

func (h *PeopleHandlers) List(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	people, err := h.people.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("q")), limit, offset)
	if err != nil {
		return common.SendError(c, h.plural(), err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		h.plural(): people,
		"limit":    limit,
		"offset":   offset,
	})
}

// Search ranks matches for type-ahead pickers.
func (h *PeopleHandlers) Search(c echo.Context) error {
	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			return common.SendValidationError(c, "limit", "must be between 1 and 100")
		}
		limit = n
	}

	people, err := h.people.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return common.SendError(c, h.plural(), err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": people,
	})
}

func (h *PeopleHandlers) Create(c echo.Context) error {
	var req PersonRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	person := &models.Person{Kind: h.people.Kind()}
	req.apply(person)
	if err := h.people.Create(c.Request().Context(), person); err != nil {
		return common.SendError(c, h.resource(), err)
	}
	return c.JSON(http.StatusCreated, person)
}

func (h *PeopleHandlers) Get(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	person, err := h.people.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.resource(), err)
	}
	return c.JSON(http.StatusOK, person)
}

func (h *PeopleHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req PersonRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	person, err := h.people.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, h.resource(), err)
	}
	req.apply(person)
	if err := h.people.Update(ctx, person); err != nil {
		return common.SendError(c, h.resource(), err)
	}
	return c.JSON(http.StatusOK, person)
}

func (h *PeopleHandlers) Delete(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.people.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, h.resource(), err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Tenures lists the person's ownerships or tenancies, newest first.
func (h *PeopleHandlers) Tenures(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	tenures, err := h.people.Tenures(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, h.resource(), err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenures": tenures,
	})
}
