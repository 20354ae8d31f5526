package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bms/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const DateLayout = "2006-01-02"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

func SendConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, CreateErrorResponse("CONFLICT", message, nil))
}

// SendError maps domain errors onto the error envelope. Unknown errors are
// logged and reported without detail.
func SendError(c echo.Context, resource string, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return SendValidationError(c, verr.Field, verr.Message)
	case errors.Is(err, models.ErrNotFound):
		return SendNotFoundError(c, resource)
	case errors.Is(err, models.ErrActiveIntervalConflict),
		errors.Is(err, models.ErrDuplicate),
		errors.Is(err, models.ErrInUse),
		errors.Is(err, models.ErrImportConflict):
		return SendConflictError(c, err.Error())
	case errors.Is(err, models.ErrIntervalEnded), errors.Is(err, models.ErrInvalidInterval):
		return SendClientError(c, err.Error())
	}
	Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return SendServerError(c, "operation could not be completed")
}

// ValidateUUID parses a path or query id.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// ParseDate parses YYYY-MM-DD. An empty string yields fallback.
func ParseDate(dateStr, fieldName string, fallback time.Time) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return models.DateOnly(fallback), nil
	}
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in YYYY-MM-DD format", fieldName)
	}
	return date, nil
}

// TodayIn returns the current calendar date in loc.
func TodayIn(loc *time.Location) time.Time {
	return models.DateOnly(time.Now().In(loc))
}

// ValidatePaginationParams clamps limit to 1..1000 with a default of 50.
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}

// Pagination reads limit and offset query params.
func Pagination(c echo.Context) (int, int, error) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return ValidatePaginationParams(limit, offset)
}
