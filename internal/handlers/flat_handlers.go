package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bms/internal/common"
	"bms/internal/models"
	"bms/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FlatHandlers handles flat CRUD, direct status edits and occupancy changes
type FlatHandlers struct {
	flats     services.FlatService
	occupancy services.OccupancyService
	export    services.ExportService
	loc       *time.Location
}

func NewFlatHandlers(flats services.FlatService, occupancy services.OccupancyService, export services.ExportService, loc *time.Location) *FlatHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &FlatHandlers{flats: flats, occupancy: occupancy, export: export, loc: loc}
}

// FlatRequest is the create and update payload
type FlatRequest struct {
	Unit    string `json:"unit" validate:"required,len=1"`
	Floor   int    `json:"floor" validate:"required,min=1,max=14"`
	Remarks string `json:"remarks" validate:"max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=vacant owner rented"`
}

// AssignRequest opens an ownership or tenancy. StartDate defaults to today.
type AssignRequest struct {
	PersonID  string `json:"person_id" validate:"required,uuid"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// EndRequest closes the active ownership or tenancy. EndDate defaults to today.
type EndRequest struct {
	EndDate string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type FlatOccupancyResponse struct {
	*models.FlatOccupancy
	Occupant string `json:"occupant"`
}

func (h *FlatHandlers) ListFlats(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filter := models.FlatFilter{
		Query:  strings.TrimSpace(c.QueryParam("q")),
		Limit:  limit,
		Offset: offset,
	}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = models.FlatStatus(status)
		if !filter.Status.Valid() {
			return common.SendValidationError(c, "status", "must be one of: vacant owner rented")
		}
	}
	if floor := c.QueryParam("floor"); floor != "" {
		filter.Floor, err = strconv.Atoi(floor)
		if err != nil {
			return common.SendValidationError(c, "floor", "must be a number")
		}
	}

	flats, err := h.flats.List(c.Request().Context(), filter)
	if err != nil {
		return common.SendError(c, "flats", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"flats":  flats,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateFlat creates a vacant flat
func (h *FlatHandlers) CreateFlat(c echo.Context) error {
	var req FlatRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	flat := &models.Flat{
		Unit:    strings.ToUpper(req.Unit),
		Floor:   req.Floor,
		Remarks: req.Remarks,
	}
	if err := h.flats.Create(c.Request().Context(), flat); err != nil {
		return common.SendError(c, "flat", err)
	}

	return c.JSON(http.StatusCreated, flat)
}

func (h *FlatHandlers) GetFlat(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	flat, err := h.flats.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, "flat", err)
	}
	return c.JSON(http.StatusOK, flat)
}

// UpdateFlat changes position and remarks. The status is left untouched.
func (h *FlatHandlers) UpdateFlat(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req FlatRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	flat, err := h.flats.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, "flat", err)
	}
	flat.Unit = strings.ToUpper(req.Unit)
	flat.Floor = req.Floor
	flat.Remarks = req.Remarks

	if err := h.flats.Update(ctx, flat); err != nil {
		return common.SendError(c, "flat", err)
	}
	return c.JSON(http.StatusOK, flat)
}

func (h *FlatHandlers) DeleteFlat(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.flats.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, "flat", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateStatus writes the status directly. The next sync repairs any drift.
func (h *FlatHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateStatusRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.flats.SetStatus(ctx, id, models.FlatStatus(req.Status)); err != nil {
		return common.SendError(c, "flat", err)
	}

	flat, err := h.flats.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, "flat", err)
	}
	return c.JSON(http.StatusOK, flat)
}

func (h *FlatHandlers) GetOccupancy(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	occ, err := h.flats.Occupancy(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, "flat", err)
	}
	return c.JSON(http.StatusOK, FlatOccupancyResponse{FlatOccupancy: occ, Occupant: occ.OccupantLabel()})
}

func (h *FlatHandlers) AssignOwner(c echo.Context) error {
	return h.assign(c, models.TenureOwnership)
}

func (h *FlatHandlers) AssignLessee(c echo.Context) error {
	return h.assign(c, models.TenureTenancy)
}

func (h *FlatHandlers) EndOwner(c echo.Context) error {
	return h.end(c, models.TenureOwnership)
}

func (h *FlatHandlers) EndLessee(c echo.Context) error {
	return h.end(c, models.TenureTenancy)
}

func (h *FlatHandlers) assign(c echo.Context, kind models.TenureKind) error {
	ctx := c.Request().Context()

	flatID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req AssignRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	personID := uuid.MustParse(req.PersonID)
	start, err := common.ParseDate(req.StartDate, "start_date", common.TodayIn(h.loc))
	if err != nil {
		return common.SendValidationError(c, "start_date", err.Error())
	}

	var tenure *models.Tenure
	if kind == models.TenureOwnership {
		tenure, err = h.occupancy.AssignOwner(ctx, flatID, personID, start)
	} else {
		tenure, err = h.occupancy.AssignLessee(ctx, flatID, personID, start)
	}
	if err != nil {
		return common.SendError(c, string(kind), err)
	}
	return c.JSON(http.StatusOK, tenure)
}

func (h *FlatHandlers) end(c echo.Context, kind models.TenureKind) error {
	ctx := c.Request().Context()

	flatID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req EndRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	end, err := common.ParseDate(req.EndDate, "end_date", common.TodayIn(h.loc))
	if err != nil {
		return common.SendValidationError(c, "end_date", err.Error())
	}

	var tenure *models.Tenure
	if kind == models.TenureOwnership {
		tenure, err = h.occupancy.EndOwnership(ctx, flatID, end)
	} else {
		tenure, err = h.occupancy.EndTenancy(ctx, flatID, end)
	}
	if err != nil {
		return common.SendError(c, "active "+string(kind), err)
	}
	return c.JSON(http.StatusOK, tenure)
}

// SeedFlats creates every missing flat of the building as vacant.
func (h *FlatHandlers) SeedFlats(c echo.Context) error {
	created, err := h.flats.SeedBuilding(c.Request().Context())
	if err != nil {
		return common.SendError(c, "flats", err)
	}
	return c.JSON(http.StatusOK, map[string]int{"created": created})
}

// ExportRoster streams the roster workbook. The file is built in memory so
// a failure still yields a JSON error.
func (h *FlatHandlers) ExportRoster(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.export.WriteRoster(c.Request().Context(), &buf); err != nil {
		return common.SendError(c, "roster", err)
	}

	filename := "flats-" + common.TodayIn(h.loc).Format(common.DateLayout) + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
