package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"bms/internal/common"
	"bms/internal/models"
	"bms/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProviderHandlers handles the service provider directory
type ProviderHandlers struct {
	providers services.ProviderService
}

func NewProviderHandlers(providers services.ProviderService) *ProviderHandlers {
	return &ProviderHandlers{providers: providers}
}

type CategoryRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active"`
}

// ProviderRequest is the provider create and update payload
type ProviderRequest struct {
	CategoryID      string `json:"category_id" validate:"required,uuid"`
	FullName        string `json:"full_name" validate:"required,max=150"`
	Phone           string `json:"phone" validate:"max=40"`
	Email           string `json:"email" validate:"omitempty,email"`
	Address         string `json:"address" validate:"max=500"`
	NIDNumber       string `json:"nid_number" validate:"max=50"`
	ExperienceYears *int   `json:"experience_years" validate:"omitempty,min=0,max=80"`
	Notes           string `json:"notes" validate:"max=1000"`
	IsActive        *bool  `json:"is_active"`
}

func (r *ProviderRequest) apply(p *models.ServiceProvider) {
	p.CategoryID = uuid.MustParse(r.CategoryID)
	p.FullName = r.FullName
	p.Phone = strings.TrimSpace(r.Phone)
	p.Email = strings.TrimSpace(r.Email)
	p.Address = r.Address
	p.NIDNumber = r.NIDNumber
	p.ExperienceYears = r.ExperienceYears
	p.Notes = r.Notes
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

func (h *ProviderHandlers) ListCategories(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"

	categories, err := h.providers.ListCategories(c.Request().Context(), activeOnly)
	if err != nil {
		return common.SendError(c, "categories", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

func (h *ProviderHandlers) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	category := &models.ServiceCategory{Name: req.Name, IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := h.providers.CreateCategory(c.Request().Context(), category); err != nil {
		return common.SendError(c, "category", err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *ProviderHandlers) ListProviders(c echo.Context) error {
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filter := models.ProviderFilter{
		Query:  strings.TrimSpace(c.QueryParam("q")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := common.ValidateUUID(raw, "category_id")
		if err != nil {
			return common.SendValidationError(c, "category_id", err.Error())
		}
		filter.CategoryID = &id
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return common.SendValidationError(c, "active", "must be true or false")
		}
		filter.Active = &active
	}

	providers, err := h.providers.List(c.Request().Context(), filter)
	if err != nil {
		return common.SendError(c, "providers", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"providers": providers,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *ProviderHandlers) CreateProvider(c echo.Context) error {
	var req ProviderRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	provider := &models.ServiceProvider{IsActive: true}
	req.apply(provider)
	if err := h.providers.Create(c.Request().Context(), provider); err != nil {
		return common.SendError(c, "provider", err)
	}
	return c.JSON(http.StatusCreated, provider)
}

func (h *ProviderHandlers) GetProvider(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	provider, err := h.providers.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, "provider", err)
	}
	return c.JSON(http.StatusOK, provider)
}

func (h *ProviderHandlers) UpdateProvider(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req ProviderRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	provider, err := h.providers.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, "provider", err)
	}
	req.apply(provider)
	if err := h.providers.Update(ctx, provider); err != nil {
		return common.SendError(c, "provider", err)
	}
	return c.JSON(http.StatusOK, provider)
}

func (h *ProviderHandlers) DeleteProvider(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.providers.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, "provider", err)
	}
	return c.NoContent(http.StatusNoContent)
}
