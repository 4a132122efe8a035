package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/utils"
)

// AgencyHandler handles agency CRUD operations
type AgencyHandler struct {
	agencies repositories.AgencyRepositoryInterface
	logger   ectologger.Logger
}

// NewAgencyHandler creates a new agency handler
func NewAgencyHandler(agencies repositories.AgencyRepositoryInterface, logger ectologger.Logger) *AgencyHandler {
	return &AgencyHandler{agencies: agencies, logger: logger}
}

// RegisterRoutes registers agency routes
func (h *AgencyHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/agencies", h.Create)
	g.GET("/agencies", h.List)
	g.GET("/agencies/:agency_id", h.Get)
	g.PUT("/agencies/:agency_id", h.Update)
	g.DELETE("/agencies/:agency_id", h.Delete)
}

// Create creates an agency
func (h *AgencyHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.CreateAgencyRequest](c)
	if err != nil {
		return err
	}

	agency := &models.Agency{Name: req.Name}
	if err := h.agencies.Create(ctx, agency); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, agency)
}

// List lists all agencies
func (h *AgencyHandler) List(c echo.Context) error {
	agencies, err := h.agencies.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agencies)
}

// Get retrieves an agency by id
func (h *AgencyHandler) Get(c echo.Context) error {
	id, err := parseUUIDParam(c, "agency_id")
	if err != nil {
		return err
	}

	agency, err := h.agencies.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agency)
}

// Update updates an agency
func (h *AgencyHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "agency_id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.UpdateAgencyRequest](c)
	if err != nil {
		return err
	}

	agency := &models.Agency{ID: id, Name: req.Name}
	if err := h.agencies.Update(ctx, agency); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agency)
}

// Delete deletes an agency
func (h *AgencyHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "agency_id")
	if err != nil {
		return err
	}

	if err := h.agencies.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
