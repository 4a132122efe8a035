package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/utils"
)

// UserHandler handles user CRUD operations
type UserHandler struct {
	users  repositories.UserRepositoryInterface
	logger ectologger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users repositories.UserRepositoryInterface, logger ectologger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/users", h.Create)
	g.GET("/agencies/:agency_id/users", h.ListByAgency)
	g.GET("/users/:user_id", h.Get)
	g.PUT("/users/:user_id", h.Update)
	g.DELETE("/users/:user_id", h.Delete)
}

// Create creates a user
func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.CreateUserRequest](c)
	if err != nil {
		return err
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		Role:         req.Role,
		AgencyID:     req.AgencyID,
		DealershipID: req.DealershipID,
	}
	if err := h.users.Create(ctx, user); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// ListByAgency lists an agency's users
func (h *UserHandler) ListByAgency(c echo.Context) error {
	agencyID, err := parseUUIDParam(c, "agency_id")
	if err != nil {
		return err
	}

	users, err := h.users.ListByAgency(c.Request().Context(), agencyID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, users)
}

// Get retrieves a user by id
func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseUUIDParam(c, "user_id")
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Update updates a user
func (h *UserHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "user_id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.UpdateUserRequest](c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user.Name = req.Name
	user.Role = req.Role
	user.DealershipID = req.DealershipID
	if err := h.users.Update(ctx, user); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Delete deletes a user
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "user_id")
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
