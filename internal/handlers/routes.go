package handlers

import (
	"bms/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler set. Jobs may be nil when the
// scheduler is disabled.
type Handlers struct {
	Health    *HealthHandlers
	Dashboard *DashboardHandlers
	Flats     *FlatHandlers
	Owners    *PeopleHandlers
	Lessees   *PeopleHandlers
	Parking   *ParkingHandlers
	Providers *ProviderHandlers
	Tools     *ToolsHandlers
	Jobs      *JobHandlers
}

// RegisterRoutes mounts the health checks at the root and the API under
// the version group.
func RegisterRoutes(e *echo.Echo, versions *middleware.VersionMiddleware, audit *middleware.AuditMiddleware, h *Handlers) {
	e.GET("/health", h.Health.HealthCheck)
	e.GET("/health/detailed", h.Health.DetailedHealthCheck)

	v1 := versions.VersionRoute(e, "v1")
	if audit != nil {
		v1.Use(audit.AuditMutations())
	}

	v1.GET("/dashboard", h.Dashboard.GetDashboard)

	flats := v1.Group("/flats")
	flats.GET("", h.Flats.ListFlats)
	flats.POST("", h.Flats.CreateFlat)
	flats.POST("/seed", h.Flats.SeedFlats)
	flats.GET("/export.xlsx", h.Flats.ExportRoster)
	flats.GET("/:id", h.Flats.GetFlat)
	flats.PUT("/:id", h.Flats.UpdateFlat)
	flats.DELETE("/:id", h.Flats.DeleteFlat)
	flats.PATCH("/:id/status", h.Flats.UpdateStatus)
	flats.GET("/:id/occupancy", h.Flats.GetOccupancy)
	flats.POST("/:id/assign-owner", h.Flats.AssignOwner)
	flats.POST("/:id/end-owner", h.Flats.EndOwner)
	flats.POST("/:id/assign-lessee", h.Flats.AssignLessee)
	flats.POST("/:id/end-lessee", h.Flats.EndLessee)

	registerPeople(v1.Group("/owners"), h.Owners)
	registerPeople(v1.Group("/lessees"), h.Lessees)

	parking := v1.Group("/parking")
	parking.GET("/spots", h.Parking.ListSpots)
	parking.POST("/spots", h.Parking.CreateSpot)
	parking.POST("/spots/seed", h.Parking.SeedSpots)
	parking.GET("/spots/:id", h.Parking.GetSpot)
	parking.PUT("/spots/:id", h.Parking.UpdateSpot)
	parking.POST("/spots/:id/assign", h.Parking.AssignSpot)
	parking.POST("/spots/:id/release", h.Parking.ReleaseSpot)
	parking.POST("/auto-assign", h.Parking.AutoAssign)
	parking.GET("/vehicles", h.Parking.ListVehicles)
	parking.POST("/vehicles", h.Parking.CreateVehicle)
	parking.GET("/vehicles/:id", h.Parking.GetVehicle)
	parking.PUT("/vehicles/:id", h.Parking.UpdateVehicle)

	v1.GET("/providers", h.Providers.ListProviders)
	v1.POST("/providers", h.Providers.CreateProvider)
	v1.GET("/providers/:id", h.Providers.GetProvider)
	v1.PUT("/providers/:id", h.Providers.UpdateProvider)
	v1.DELETE("/providers/:id", h.Providers.DeleteProvider)
	v1.GET("/provider-categories", h.Providers.ListCategories)
	v1.POST("/provider-categories", h.Providers.CreateCategory)

	v1.POST("/tools/bulk-owners", h.Tools.BulkOwners)
	v1.POST("/tools/sync-status", h.Tools.SyncStatus)

	if h.Jobs != nil {
		v1.GET("/jobs", h.Jobs.ListJobs)
		v1.POST("/jobs/:name/run", h.Jobs.RunJob)
	}
}

func registerPeople(g *echo.Group, h *PeopleHandlers) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/tenures", h.Tenures)
}
