package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bms/internal/common"
	"bms/internal/models"
	"bms/internal/repositories"
	"bms/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ParkingHandlers handles spots, vehicles and spot assignments
type ParkingHandlers struct {
	parking services.ParkingService
	loc     *time.Location
}

func NewParkingHandlers(parking services.ParkingService, loc *time.Location) *ParkingHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &ParkingHandlers{parking: parking, loc: loc}
}

// SpotRequest is the spot create and update payload. Code defaults to the
// linked flat's code.
type SpotRequest struct {
	Code       string  `json:"code" validate:"max=10"`
	Level      int     `json:"level" validate:"min=0,max=10"`
	IsReserved bool    `json:"is_reserved"`
	Notes      string  `json:"notes" validate:"max=500"`
	FlatID     *string `json:"flat_id" validate:"omitempty,uuid"`
}

func (r *SpotRequest) apply(spot *models.ParkingSpot) {
	spot.Code = r.Code
	spot.Level = r.Level
	spot.IsReserved = r.IsReserved
	spot.Notes = r.Notes
	spot.FlatID = optionalUUID(r.FlatID)
}

type AssignSpotBody struct {
	VehicleID  *string `json:"vehicle_id" validate:"omitempty,uuid"`
	PlateNo    string  `json:"plate_no" validate:"max=20"`
	DriverName string  `json:"driver_name" validate:"max=120"`
	Remarks    string  `json:"remarks" validate:"max=500"`
	StartDate  string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// VehicleRequest is the vehicle create and update payload
type VehicleRequest struct {
	PlateNo       string                `json:"plate_no" validate:"required,max=20"`
	VehicleType   string                `json:"vehicle_type" validate:"omitempty,oneof=CAR BIKE MICROBUS TRUCK OTHER"`
	Make          string                `json:"make" validate:"max=60"`
	Model         string                `json:"model" validate:"max=60"`
	Color         string                `json:"color" validate:"max=30"`
	TagNo         string                `json:"tag_no" validate:"max=30"`
	OwnerType     string                `json:"owner_type" validate:"required,oneof=OWNER LESSEE UBER_DRIVER RENTAL_COMPANY"`
	OwnerID       *string               `json:"owner_id" validate:"omitempty,uuid"`
	LesseeID      *string               `json:"lessee_id" validate:"omitempty,uuid"`
	ExternalOwner *models.ExternalOwner `json:"external_owner"`
	FlatID        *string               `json:"flat_id" validate:"omitempty,uuid"`
	IsActive      *bool                 `json:"is_active"`
	Notes         string                `json:"notes" validate:"max=500"`
}

func (r *VehicleRequest) apply(v *models.Vehicle) {
	v.PlateNo = r.PlateNo
	v.VehicleType = models.VehicleType(r.VehicleType)
	v.Make = r.Make
	v.Model = r.Model
	v.Color = r.Color
	v.TagNo = r.TagNo
	v.OwnerType = models.VehicleOwnerType(r.OwnerType)
	v.OwnerID = optionalUUID(r.OwnerID)
	v.LesseeID = optionalUUID(r.LesseeID)
	v.ExternalOwner = r.ExternalOwner
	v.FlatID = optionalUUID(r.FlatID)
	if r.IsActive != nil {
		v.IsActive = *r.IsActive
	}
	v.Notes = r.Notes
}

// optionalUUID parses an already validated optional id.
func optionalUUID(s *string) *uuid.UUID {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	id := uuid.MustParse(strings.TrimSpace(*s))
	return &id
}

func (h *ParkingHandlers) ListSpots(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	spots, err := h.parking.ListSpots(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, "parking spots", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"spots":  spots,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *ParkingHandlers) CreateSpot(c echo.Context) error {
	var req SpotRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	spot := &models.ParkingSpot{}
	req.apply(spot)
	if err := h.parking.CreateSpot(c.Request().Context(), spot); err != nil {
		return common.SendError(c, "parking spot", err)
	}
	return c.JSON(http.StatusCreated, spot)
}

// GetSpot returns the spot with its assignment history, newest first.
func (h *ParkingHandlers) GetSpot(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	spot, err := h.parking.GetSpot(ctx, id)
	if err != nil {
		return common.SendError(c, "parking spot", err)
	}
	history, err := h.parking.SpotHistory(ctx, id)
	if err != nil {
		return common.SendError(c, "parking spot", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"spot":    spot,
		"history": history,
	})
}

func (h *ParkingHandlers) UpdateSpot(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req SpotRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	spot, err := h.parking.GetSpot(ctx, id)
	if err != nil {
		return common.SendError(c, "parking spot", err)
	}
	req.apply(spot)
	if err := h.parking.UpdateSpot(ctx, spot); err != nil {
		return common.SendError(c, "parking spot", err)
	}
	return c.JSON(http.StatusOK, spot)
}

// AssignSpot ends whatever the spot and the vehicle currently hold and opens
// a new assignment.
func (h *ParkingHandlers) AssignSpot(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req AssignSpotBody
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}
	start, err := common.ParseDate(req.StartDate, "start_date", common.TodayIn(h.loc))
	if err != nil {
		return common.SendValidationError(c, "start_date", err.Error())
	}

	assignment, err := h.parking.Assign(c.Request().Context(), id, services.AssignSpotRequest{
		VehicleID:  optionalUUID(req.VehicleID),
		PlateNo:    req.PlateNo,
		DriverName: req.DriverName,
		Remarks:    req.Remarks,
		StartDate:  start,
	})
	if err != nil {
		return common.SendError(c, "parking spot", err)
	}
	return c.JSON(http.StatusOK, assignment)
}

func (h *ParkingHandlers) ReleaseSpot(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
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

	assignment, err := h.parking.Release(c.Request().Context(), id, end)
	if err != nil {
		return common.SendError(c, "parking assignment", err)
	}
	return c.JSON(http.StatusOK, assignment)
}

// SeedSpots creates one dedicated spot for every flat without one.
func (h *ParkingHandlers) SeedSpots(c echo.Context) error {
	created, err := h.parking.SeedSpots(c.Request().Context())
	if err != nil {
		return common.SendError(c, "parking spots", err)
	}
	return c.JSON(http.StatusOK, map[string]int{"created": created})
}

func (h *ParkingHandlers) AutoAssign(c echo.Context) error {
	dryRun := false
	if raw := c.QueryParam("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return common.SendValidationError(c, "dry_run", "must be true or false")
		}
		dryRun = v
	}

	result, err := h.parking.AutoAssign(c.Request().Context(), dryRun)
	if err != nil {
		return common.SendError(c, "parking assignments", err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ParkingHandlers) ListVehicles(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filter := repositories.VehicleFilter{
		Query:     strings.TrimSpace(c.QueryParam("q")),
		OwnerType: models.VehicleOwnerType(strings.ToUpper(c.QueryParam("owner_type"))),
		Limit:     limit,
		Offset:    offset,
	}
	vehicles, err := h.parking.ListVehicles(c.Request().Context(), filter)
	if err != nil {
		return common.SendError(c, "vehicles", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *ParkingHandlers) CreateVehicle(c echo.Context) error {
	var req VehicleRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	vehicle := &models.Vehicle{IsActive: true}
	req.apply(vehicle)
	if err := h.parking.CreateVehicle(c.Request().Context(), vehicle); err != nil {
		return common.SendError(c, "vehicle", err)
	}
	return c.JSON(http.StatusCreated, vehicle)
}

func (h *ParkingHandlers) GetVehicle(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	vehicle, err := h.parking.GetVehicle(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, "vehicle", err)
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (h *ParkingHandlers) UpdateVehicle(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req VehicleRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	vehicle, err := h.parking.GetVehicle(ctx, id)
	if err != nil {
		return common.SendError(c, "vehicle", err)
	}
	req.apply(vehicle)
	if err := h.parking.UpdateVehicle(ctx, vehicle); err != nil {
		return common.SendError(c, "vehicle", err)
	}
	return c.JSON(http.StatusOK, vehicle)
}
