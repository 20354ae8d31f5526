package handlers

import (
	"net/http"

	"bms/internal/common"
	"bms/internal/services"

	"github.com/labstack/echo/v4"
)

type DashboardHandlers struct {
	dashboard services.DashboardService
}

func NewDashboardHandlers(dashboard services.DashboardService) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard}
}

// GetDashboard returns the status counts and the floor by unit grid.
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	dashboard, err := h.dashboard.Get(c.Request().Context())
	if err != nil {
		return common.SendError(c, "dashboard", err)
	}
	return c.JSON(http.StatusOK, dashboard)
}
