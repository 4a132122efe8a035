package middleware

import (
	appctx "github.com/dealersight/dealersight/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderAgencyID is the header key for the agency (tenant) ID
	HeaderAgencyID = "X-Agency-ID"
	// HeaderUserID is the header key for the user ID
	HeaderUserID = "X-User-ID"
	// HeaderDealershipID is the header key for the active dealership context
	HeaderDealershipID = "X-Dealership-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = appctx.SetRequestID(ctx, requestID)
			ctx = appctx.SetMethod(ctx, req.Method)
			ctx = appctx.SetRoute(ctx, req.URL.Path)
			ctx = appctx.SetRemoteIP(ctx, c.RealIP())
			ctx = appctx.SetAgencyID(ctx, req.Header.Get(HeaderAgencyID))
			ctx = appctx.SetUserID(ctx, req.Header.Get(HeaderUserID))
			ctx = appctx.SetDealershipID(ctx, req.Header.Get(HeaderDealershipID))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
