package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/utils"
)

// DealershipHandler handles dealership CRUD operations
type DealershipHandler struct {
	dealerships repositories.DealershipRepositoryInterface
	logger      ectologger.Logger
}

// NewDealershipHandler creates a new dealership handler
func NewDealershipHandler(dealerships repositories.DealershipRepositoryInterface, logger ectologger.Logger) *DealershipHandler {
	return &DealershipHandler{dealerships: dealerships, logger: logger}
}

// RegisterRoutes registers dealership routes
func (h *DealershipHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/dealerships", h.Create)
	g.GET("/agencies/:agency_id/dealerships", h.ListByAgency)
	g.GET("/dealerships/:dealership_id", h.Get)
	g.PUT("/dealerships/:dealership_id", h.Update)
	g.DELETE("/dealerships/:dealership_id", h.Delete)
}

// Create creates a dealership
func (h *DealershipHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.CreateDealershipRequest](c)
	if err != nil {
		return err
	}

	dealership := &models.Dealership{
		Name:     req.Name,
		AgencyID: req.AgencyID,
		Website:  req.Website,
	}
	if err := h.dealerships.Create(ctx, dealership); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dealership)
}

// ListByAgency lists an agency's dealerships
func (h *DealershipHandler) ListByAgency(c echo.Context) error {
	agencyID, err := parseUUIDParam(c, "agency_id")
	if err != nil {
		return err
	}

	dealerships, err := h.dealerships.ListByAgency(c.Request().Context(), agencyID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dealerships)
}

// Get retrieves a dealership by id
func (h *DealershipHandler) Get(c echo.Context) error {
	id, err := parseUUIDParam(c, "dealership_id")
	if err != nil {
		return err
	}

	dealership, err := h.dealerships.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dealership)
}

// Update updates a dealership
func (h *DealershipHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "dealership_id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.UpdateDealershipRequest](c)
	if err != nil {
		return err
	}

	dealership := &models.Dealership{ID: id, Name: req.Name, Website: req.Website}
	if err := h.dealerships.Update(ctx, dealership); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dealership)
}

// Delete deletes a dealership
func (h *DealershipHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "dealership_id")
	if err != nil {
		return err
	}

	if err := h.dealerships.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
