// Package analytics merges GA4 and Search Console data behind a cache.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/events"
	"github.com/dealersight/dealersight/pkg/metrics"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/resolver"
	"github.com/dealersight/dealersight/pkg/tracing"
)

// ConnectionResolver resolves the effective provider connections.
type ConnectionResolver interface {
	ResolveDealershipConnections(ctx context.Context, userID, dealershipID uuid.UUID) (*resolver.Connections, error)
}

// GA4Fetcher fetches traffic metrics for a resolved GA4 property.
type GA4Fetcher interface {
	FetchReport(ctx context.Context, accessToken, propertyID string, start, end time.Time) (*models.GA4Data, error)
}

// SearchConsoleFetcher fetches search performance for a resolved site.
type SearchConsoleFetcher interface {
	FetchPerformance(ctx context.Context, accessToken, siteURL string, start, end time.Time) (*models.SearchConsoleData, error)
}

// FetchOptions identify one coordinated fetch.
type FetchOptions struct {
	UserID       uuid.UUID
	DealershipID uuid.UUID
	DateRange    string
	ForceRefresh bool
}

// Coordinator produces merged analytics payloads with cache-aside reads.
type Coordinator struct {
	resolver      ConnectionResolver
	ga4           GA4Fetcher
	searchConsole SearchConsoleFetcher
	cache         Cache
	producer      *events.Producer
	logger        ectologger.Logger
	now           func() time.Time
}

// NewCoordinator creates a coordinator
func NewCoordinator(
	connectionResolver ConnectionResolver,
	ga4 GA4Fetcher,
	searchConsole SearchConsoleFetcher,
	cache Cache,
	producer *events.Producer,
	logger ectologger.Logger,
) *Coordinator {
	return &Coordinator{
		resolver:      connectionResolver,
		ga4:           ga4,
		searchConsole: searchConsole,
		cache:         cache,
		producer:      producer,
		logger:        logger,
		now:           time.Now,
	}
}

// Fetch returns the merged analytics payload for a user, dealership, and date
// range. Provider failures are recorded on the result instead of failing the
// call; only an unknown dealership or user returns an error.
func (c *Coordinator) Fetch(ctx context.Context, opts FetchOptions) (*models.CoordinatedResult, error) {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.Fetch")
	defer span.End()

	started := c.now()
	key := cacheKey(opts.UserID, opts.DateRange, opts.DealershipID)

	if !opts.ForceRefresh {
		if cached, ok := c.readCache(ctx, key); ok {
			cached.FromCache = true
			metrics.RecordFetch("cache_hit", c.now().Sub(started).Seconds())
			return cached, nil
		}
	}

	start, end, err := dateRangeBounds(opts.DateRange, c.now())
	if err != nil {
		return nil, err
	}

	connections, err := c.resolver.ResolveDealershipConnections(ctx, opts.UserID, opts.DealershipID)
	if err != nil {
		return nil, err
	}

	result := c.fetchBoth(ctx, connections, start, end)
	result.Metadata = models.ResultMetadata{
		DataSources: map[string]string{
			"ga4":            string(connections.GA4.Source),
			"search_console": string(connections.SearchConsole.Source),
		},
		FetchedAt: c.now().UTC(),
		DateRange: opts.DateRange,
	}
	result.FromCache = false

	if result.GA4Data != nil || result.SearchConsoleData != nil {
		c.writeCache(ctx, key, result)
	}

	metrics.RecordFetch(fetchOutcome(result), c.now().Sub(started).Seconds())

	dealershipID := opts.DealershipID
	c.producer.Publish(ctx, &events.AnalyticsEvent{
		EventType:    events.EventFetchCompleted,
		UserID:       opts.UserID,
		DealershipID: &dealershipID,
		DateRange:    opts.DateRange,
	})

	return result, nil
}

// fetchBoth issues the two provider fetches concurrently. The fetches are
// independent; one failing never aborts the other.
func (c *Coordinator) fetchBoth(ctx context.Context, connections *resolver.Connections, start, end time.Time) *models.CoordinatedResult {
	result := &models.CoordinatedResult{
		HasGA4Connection:           connections.GA4.HasConnection,
		HasSearchConsoleConnection: connections.SearchConsole.HasConnection,
	}

	var wg sync.WaitGroup

	if connections.GA4.HasConnection {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.ga4.FetchReport(ctx, connections.GA4.AccessToken, connections.GA4.ExternalID, start, end)
			if err != nil {
				c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"property_id": connections.GA4.ExternalID,
				}).Warn("GA4 fetch failed")
				msg := err.Error()
				result.Errors.GA4 = &msg
				return
			}
			result.GA4Data = data
		}()
	}

	if connections.SearchConsole.HasConnection {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.searchConsole.FetchPerformance(ctx, connections.SearchConsole.AccessToken, connections.SearchConsole.ExternalID, start, end)
			if err != nil {
				c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"site_url": connections.SearchConsole.ExternalID,
				}).Warn("Search Console fetch failed")
				msg := err.Error()
				result.Errors.SearchConsole = &msg
				return
			}
			result.SearchConsoleData = data
		}()
	}

	wg.Wait()
	return result
}

// InvalidateDealershipCache removes cached payloads for every supported date
// range for a user and dealership. Used when the active dealership context
// switches so the next read cannot be stale.
func (c *Coordinator) InvalidateDealershipCache(ctx context.Context, userID, dealershipID uuid.UUID) {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.InvalidateDealershipCache")
	defer span.End()

	keys := make([]string, 0, len(models.DateRangeLabels))
	for _, label := range models.DateRangeLabels {
		keys = append(keys, cacheKey(userID, label, dealershipID))
	}

	if err := c.cache.Del(ctx, keys...); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id":       userID,
			"dealership_id": dealershipID,
		}).Warn("failed to invalidate analytics cache")
		metrics.RecordCacheOperation("delete", "error")
	} else {
		metrics.RecordCacheOperation("delete", "ok")
	}

	c.producer.Publish(ctx, &events.AnalyticsEvent{
		EventType:    events.EventCacheInvalidated,
		UserID:       userID,
		DealershipID: &dealershipID,
	})
}

// PrewarmCache eagerly refreshes every supported date range for a user and
// dealership, paying fetch latency before the user navigates.
func (c *Coordinator) PrewarmCache(ctx context.Context, userID, dealershipID uuid.UUID) {
	ctx, span := tracing.StartSpan(ctx, "Coordinator.PrewarmCache")
	defer span.End()

	for _, label := range models.DateRangeLabels {
		_, err := c.Fetch(ctx, FetchOptions{
			UserID:       userID,
			DealershipID: dealershipID,
			DateRange:    label,
			ForceRefresh: true,
		})
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"user_id":       userID,
				"dealership_id": dealershipID,
				"date_range":    label,
			}).Warn("prewarm fetch failed")
		}
	}

	c.producer.Publish(ctx, &events.AnalyticsEvent{
		EventType:    events.EventCachePrewarmed,
		UserID:       userID,
		DealershipID: &dealershipID,
	})
}

// readCache attempts a cache read. Any cache failure is treated as a miss;
// the cache is an optimization, never a correctness dependency.
func (c *Coordinator) readCache(ctx context.Context, key string) (*models.CoordinatedResult, bool) {
	value, err := c.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.RecordCacheOperation("get", "miss")
		} else {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"cache_key": key,
			}).Warn("analytics cache read failed, treating as miss")
			metrics.RecordCacheOperation("get", "error")
		}
		return nil, false
	}

	var result models.CoordinatedResult
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"cache_key": key,
		}).Warn("failed to decode cached analytics payload, treating as miss")
		metrics.RecordCacheOperation("get", "error")
		return nil, false
	}

	metrics.RecordCacheOperation("get", "hit")
	return &result, true
}

// writeCache stores a merged result. Write failures are logged and swallowed.
func (c *Coordinator) writeCache(ctx context.Context, key string, result *models.CoordinatedResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to encode analytics payload for cache")
		metrics.RecordCacheOperation("set", "error")
		return
	}

	if err := c.cache.Set(ctx, key, string(payload), CacheTTL); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"cache_key": key,
		}).Warn("analytics cache write failed")
		metrics.RecordCacheOperation("set", "error")
		return
	}

	metrics.RecordCacheOperation("set", "ok")
}

func fetchOutcome(result *models.CoordinatedResult) string {
	hasData := result.GA4Data != nil || result.SearchConsoleData != nil
	hasError := result.Errors.GA4 != nil || result.Errors.SearchConsole != nil

	switch {
	case hasData && !hasError:
		return "success"
	case hasData && hasError:
		return "partial"
	default:
		return "empty"
	}
}
