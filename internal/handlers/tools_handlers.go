package handlers

import (
	"net/http"
	"time"

	"bms/internal/common"
	"bms/internal/importer"
	"bms/internal/services"

	"github.com/labstack/echo/v4"
)

// ToolsHandlers exposes the bulk owner import and the status sync
type ToolsHandlers struct {
	importer importer.Service
	status   services.StatusService
}

func NewToolsHandlers(imp importer.Service, status services.StatusService) *ToolsHandlers {
	return &ToolsHandlers{importer: imp, status: status}
}

// BulkOwnersRequest carries pasted "flat, owner, phone" lines. DryRun
// defaults to true so a bare submit only previews.
type BulkOwnersRequest struct {
	Data          string `json:"data" validate:"required"`
	StartDate     string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	VacateMissing bool   `json:"vacate_missing"`
	DryRun        *bool  `json:"dry_run"`
	OnConflict    string `json:"on_conflict" validate:"omitempty,oneof=last_wins skip_row abort"`
}

func (h *ToolsHandlers) BulkOwners(c echo.Context) error {
	var req BulkOwnersRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	run := importer.Request{
		Data:          req.Data,
		VacateMissing: req.VacateMissing,
		DryRun:        true,
		OnConflict:    req.OnConflict,
	}
	if req.DryRun != nil {
		run.DryRun = *req.DryRun
	}
	if req.StartDate != "" {
		start, err := time.Parse(common.DateLayout, req.StartDate)
		if err != nil {
			return common.SendValidationError(c, "start_date", "must be in YYYY-MM-DD format")
		}
		run.StartDate = &start
	}

	result, err := h.importer.Run(c.Request().Context(), run)
	if err != nil {
		return common.SendError(c, "import", err)
	}
	return c.JSON(http.StatusOK, result)
}

// SyncStatus recomputes every flat's status from its active assignments.
func (h *ToolsHandlers) SyncStatus(c echo.Context) error {
	changed, err := h.status.SyncAll(c.Request().Context())
	if err != nil {
		return common.SendError(c, "flats", err)
	}
	return c.JSON(http.StatusOK, map[string]int{"changed": changed})
}
