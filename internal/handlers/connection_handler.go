package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/dealersight/dealersight/pkg/database"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/secrets"
	"github.com/dealersight/dealersight/pkg/utils"
)

// ConnectionHandler handles provider connection management. Tokens are
// encrypted before they reach the repository and never returned to callers.
type ConnectionHandler struct {
	connections repositories.ConnectionRepositoryInterface
	codec       *secrets.Codec
	logger      ectologger.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections repositories.ConnectionRepositoryInterface, codec *secrets.Codec, logger ectologger.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		codec:       codec,
		logger:      logger,
	}
}

// RegisterRoutes registers connection routes
func (h *ConnectionHandler) RegisterRoutes(g *echo.Group) {
	g.PUT("/connections", h.Upsert)
	g.GET("/users/:user_id/connections", h.ListForUser)
	g.DELETE("/connections/:connection_id", h.Delete)
}

// Upsert creates or replaces a provider connection
func (h *ConnectionHandler) Upsert(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.UpsertConnectionRequest](c)
	if err != nil {
		return err
	}

	accessToken, err := h.codec.Encrypt(req.AccessToken)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("failed to encrypt access token")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store connection")
	}

	refreshToken := ""
	if req.RefreshToken != "" {
		refreshToken, err = h.codec.Encrypt(req.RefreshToken)
		if err != nil {
			h.logger.WithContext(ctx).WithError(err).Error("failed to encrypt refresh token")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store connection")
		}
	}

	connection := &models.Connection{
		UserID:       req.UserID,
		DealershipID: req.DealershipID,
		Provider:     req.Provider,
		ExternalID:   req.ExternalID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    req.ExpiresAt,
	}
	if req.Metadata != nil {
		connection.Metadata = database.JSONB[models.ConnectionMetadata]{Data: *req.Metadata}
	}

	if err := h.connections.Upsert(ctx, connection); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, connection)
}

// ListForUser lists a user's connections
func (h *ConnectionHandler) ListForUser(c echo.Context) error {
	userID, err := parseUUIDParam(c, "user_id")
	if err != nil {
		return err
	}

	connections, err := h.connections.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, connections)
}

// Delete deletes a connection
func (h *ConnectionHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "connection_id")
	if err != nil {
		return err
	}

	if err := h.connections.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
