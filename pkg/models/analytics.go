package models

import (
	"time"

	"github.com/google/uuid"
)

// DateRange labels supported by the dashboard and the cache prewarmer.
const (
	DateRange7Days  = "7days"
	DateRange30Days = "30days"
	DateRange90Days = "90days"
)

// DateRangeLabels lists every supported date range label in prewarm order.
var DateRangeLabels = []string{DateRange7Days, DateRange30Days, DateRange90Days}

// GA4Data holds traffic metrics returned by the GA4 Data API.
type GA4Data struct {
	PropertyID     string  `json:"property_id"`
	Sessions       int64   `json:"sessions"`
	TotalUsers     int64   `json:"total_users"`
	NewUsers       int64   `json:"new_users"`
	PageViews      int64   `json:"page_views"`
	BounceRate     float64 `json:"bounce_rate"`
	EngagementRate float64 `json:"engagement_rate"`
}

// SearchConsoleData holds search performance metrics returned by the Search
// Console API.
type SearchConsoleData struct {
	SiteURL     string  `json:"site_url"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// FetchErrors carries per-provider failure messages on a merged result.
type FetchErrors struct {
	GA4           *string `json:"ga4,omitempty"`
	SearchConsole *string `json:"search_console,omitempty"`
}

// ResultMetadata describes where each slice of a merged result came from.
type ResultMetadata struct {
	DataSources map[string]string `json:"data_sources"`
	FetchedAt   time.Time         `json:"fetched_at"`
	DateRange   string            `json:"date_range"`
}

// CoordinatedResult is the merged dashboard payload. It is always returned,
// even when both providers fail; absent data is nil with the failure recorded
// under Errors.
type CoordinatedResult struct {
	GA4Data                    *GA4Data           `json:"ga4_data,omitempty"`
	SearchConsoleData          *SearchConsoleData `json:"search_console_data,omitempty"`
	Errors                     FetchErrors        `json:"errors"`
	Metadata                   ResultMetadata     `json:"metadata"`
	FromCache                  bool               `json:"from_cache"`
	HasGA4Connection           bool               `json:"has_ga4_connection"`
	HasSearchConsoleConnection bool               `json:"has_search_console_connection"`
}

// ConnectionStatus reports per-provider connection state for a dealership.
type ConnectionStatus struct {
	DealershipID  uuid.UUID      `json:"dealership_id"`
	GA4           ProviderStatus `json:"ga4"`
	SearchConsole ProviderStatus `json:"search_console"`
}

// ProviderStatus describes the resolved connection for a single provider.
type ProviderStatus struct {
	Connected  bool             `json:"connected"`
	ExternalID string           `json:"external_id,omitempty"`
	Source     ConnectionSource `json:"source"`
}

// InvalidateCacheRequest is the request body for cache invalidation.
type InvalidateCacheRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	DealershipID uuid.UUID `json:"dealership_id" validate:"required"`
}

// PrewarmCacheRequest is the request body for cache prewarming.
type PrewarmCacheRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	DealershipID uuid.UUID `json:"dealership_id" validate:"required"`
}
