package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dealersight/dealersight/pkg/analytics"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/resolver"
	"github.com/dealersight/dealersight/pkg/utils"
)

// AnalyticsHandler serves the merged dashboard payload and cache operations
type AnalyticsHandler struct {
	coordinator *analytics.Coordinator
	resolver    *resolver.Resolver
	logger      ectologger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(coordinator *analytics.Coordinator, connectionResolver *resolver.Resolver, logger ectologger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		coordinator: coordinator,
		resolver:    connectionResolver,
		logger:      logger,
	}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/analytics/dashboard", h.GetDashboard)
	g.GET("/analytics/connections", h.GetConnections)
	g.POST("/analytics/cache/invalidate", h.InvalidateCache)
	g.POST("/analytics/cache/prewarm", h.PrewarmCache)
}

type dashboardRequest struct {
	DealershipID uuid.UUID `query:"dealership_id" validate:"required"`
	DateRange    string    `query:"date_range" validate:"required,oneof=7days 30days 90days"`
	ForceRefresh bool      `query:"force_refresh"`
}

// GetDashboard returns the merged GA4 and Search Console payload for a
// dealership. Provider failures are reported inside the payload; the route
// only fails for bad input, unknown entities, or denied access.
func (h *AnalyticsHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[dashboardRequest](c)
	if err != nil {
		return err
	}

	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	if err := h.requireAccess(c, userID, req.DealershipID); err != nil {
		return err
	}

	result, err := h.coordinator.Fetch(ctx, analytics.FetchOptions{
		UserID:       userID,
		DealershipID: req.DealershipID,
		DateRange:    req.DateRange,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

type connectionsRequest struct {
	DealershipID uuid.UUID `query:"dealership_id" validate:"required"`
}

// GetConnections reports which providers are connected for a dealership and
// which resolution tier each connection came from.
func (h *AnalyticsHandler) GetConnections(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[connectionsRequest](c)
	if err != nil {
		return err
	}

	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	if err := h.requireAccess(c, userID, req.DealershipID); err != nil {
		return err
	}

	connections, err := h.resolver.ResolveDealershipConnections(ctx, userID, req.DealershipID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ConnectionStatus{
		DealershipID: req.DealershipID,
		GA4: models.ProviderStatus{
			Connected:  connections.GA4.HasConnection,
			ExternalID: connections.GA4.ExternalID,
			Source:     connections.GA4.Source,
		},
		SearchConsole: models.ProviderStatus{
			Connected:  connections.SearchConsole.HasConnection,
			ExternalID: connections.SearchConsole.ExternalID,
			Source:     connections.SearchConsole.Source,
		},
	})
}

// InvalidateCache drops the cached payloads for a user and dealership. Called
// when the active dealership context switches.
func (h *AnalyticsHandler) InvalidateCache(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.InvalidateCacheRequest](c)
	if err != nil {
		return err
	}

	callerID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	if err := h.requireAccess(c, callerID, req.DealershipID); err != nil {
		return err
	}

	h.coordinator.InvalidateDealershipCache(ctx, req.UserID, req.DealershipID)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "cache invalidated",
	})
}

// PrewarmCache refreshes every supported date range ahead of navigation.
func (h *AnalyticsHandler) PrewarmCache(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.PrewarmCacheRequest](c)
	if err != nil {
		return err
	}

	callerID, err := requestUserID(ctx)
	if err != nil {
		return err
	}

	if err := h.requireAccess(c, callerID, req.DealershipID); err != nil {
		return err
	}

	h.coordinator.PrewarmCache(ctx, req.UserID, req.DealershipID)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "cache prewarmed",
	})
}

// requireAccess gates every analytics route on dealership access. Resolution
// never re-checks tenant ownership on its own.
func (h *AnalyticsHandler) requireAccess(c echo.Context, userID, dealershipID uuid.UUID) error {
	ok, err := h.resolver.ValidateDealershipAccess(c.Request().Context(), userID, dealershipID)
	if err != nil {
		return err
	}
	if !ok {
		return httperror.NewHTTPError(http.StatusForbidden, "user does not have access to this dealership")
	}
	return nil
}
