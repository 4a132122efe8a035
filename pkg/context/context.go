package context

import "context"

type ContextKey string

var (
	RequestIDKey    = ContextKey("X-Request-Id")
	MethodKey       = ContextKey("X-Method")
	RouteKey        = ContextKey("X-Route")
	RemoteIPKey     = ContextKey("X-Remote-Ip")
	AgencyIDKey     = ContextKey("X-Agency-Id")
	UserIDKey       = ContextKey("X-User-Id")
	DealershipIDKey = ContextKey("X-Dealership-Id")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	value, ok := ctx.Value(MethodKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	value, ok := ctx.Value(RouteKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	value, ok := ctx.Value(RemoteIPKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetAgencyID stores the authenticated user's agency (the tenant) on the context.
func SetAgencyID(ctx context.Context, agencyID string) context.Context {
	return context.WithValue(ctx, AgencyIDKey, agencyID)
}

func GetAgencyID(ctx context.Context) string {
	value, ok := ctx.Value(AgencyIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	value, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetDealershipID stores the active dealership context selected by the caller.
func SetDealershipID(ctx context.Context, dealershipID string) context.Context {
	return context.WithValue(ctx, DealershipIDKey, dealershipID)
}

func GetDealershipID(ctx context.Context) string {
	value, ok := ctx.Value(DealershipIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
