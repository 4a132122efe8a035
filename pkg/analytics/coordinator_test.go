package analytics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/resolver"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeResolver struct {
	connections *resolver.Connections
	err         error
}

func (f *fakeResolver) ResolveDealershipConnections(ctx context.Context, userID, dealershipID uuid.UUID) (*resolver.Connections, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.connections, nil
}

type fakeGA4 struct {
	calls atomic.Int32
	data  *models.GA4Data
	err   error
}

func (f *fakeGA4) FetchReport(ctx context.Context, accessToken, propertyID string, start, end time.Time) (*models.GA4Data, error) {
	f.calls.Add(1)
	return f.data, f.err
}

type fakeSearchConsole struct {
	calls atomic.Int32
	data  *models.SearchConsoleData
	err   error
}

func (f *fakeSearchConsole) FetchPerformance(ctx context.Context, accessToken, siteURL string, start, end time.Time) (*models.SearchConsoleData, error) {
	f.calls.Add(1)
	return f.data, f.err
}

type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	setErr  error
	getHits int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	value, ok := c.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	c.getHits++
	return value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func bothConnections() *resolver.Connections {
	ga4ID := uuid.New()
	scID := uuid.New()
	return &resolver.Connections{
		GA4: models.ResolvedConnection{
			HasConnection: true,
			ExternalID:    "323480238",
			ConnectionID:  &ga4ID,
			AccessToken:   "ga4-token",
			Source:        models.SourceDealership,
		},
		SearchConsole: models.ResolvedConnection{
			HasConnection: true,
			ExternalID:    "https://www.awardedautogroup.com/",
			ConnectionID:  &scID,
			AccessToken:   "sc-token",
			Source:        models.SourceMapping,
		},
	}
}

type testCoordinator struct {
	coordinator   *Coordinator
	ga4           *fakeGA4
	searchConsole *fakeSearchConsole
	cache         *memoryCache
}

func newTestCoordinator(t *testing.T, connections *resolver.Connections) *testCoordinator {
	t.Helper()

	ga4 := &fakeGA4{data: &models.GA4Data{PropertyID: "323480238", Sessions: 1200}}
	searchConsole := &fakeSearchConsole{data: &models.SearchConsoleData{
		SiteURL: "https://www.awardedautogroup.com/",
		Clicks:  340,
	}}
	cache := newMemoryCache()

	coordinator := NewCoordinator(
		&fakeResolver{connections: connections},
		ga4,
		searchConsole,
		cache,
		nil,
		getTestLogger(),
	)

	return &testCoordinator{
		coordinator:   coordinator,
		ga4:           ga4,
		searchConsole: searchConsole,
		cache:         cache,
	}
}

func defaultOptions() FetchOptions {
	return FetchOptions{
		UserID:       uuid.New(),
		DealershipID: uuid.New(),
		DateRange:    models.DateRange30Days,
	}
}

func TestFetchMergesBothProviders(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())

	result, err := tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.True(t, result.HasGA4Connection)
	assert.True(t, result.HasSearchConsoleConnection)
	require.NotNil(t, result.GA4Data)
	assert.EqualValues(t, 1200, result.GA4Data.Sessions)
	require.NotNil(t, result.SearchConsoleData)
	assert.EqualValues(t, 340, result.SearchConsoleData.Clicks)
	assert.Nil(t, result.Errors.GA4)
	assert.Nil(t, result.Errors.SearchConsole)
	assert.Equal(t, "dealership", result.Metadata.DataSources["ga4"])
	assert.Equal(t, "mapping", result.Metadata.DataSources["search_console"])
	assert.Equal(t, models.DateRange30Days, result.Metadata.DateRange)
}

func TestFetchCacheIdempotence(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	opts := defaultOptions()

	first, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	assert.EqualValues(t, 1, tc.ga4.calls.Load())
	assert.EqualValues(t, 1, tc.searchConsole.calls.Load())
	assert.Equal(t, first.GA4Data.Sessions, second.GA4Data.Sessions)
}

func TestFetchForceRefreshBypassesReadButWrites(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	opts := defaultOptions()

	_, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)

	opts.ForceRefresh = true
	refreshed, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, refreshed.FromCache)
	assert.EqualValues(t, 2, tc.ga4.calls.Load())

	opts.ForceRefresh = false
	cached, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.EqualValues(t, 2, tc.ga4.calls.Load())
}

func TestFetchOneProviderFails(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	tc.ga4.err = fmt.Errorf("token expired")
	tc.ga4.data = nil

	result, err := tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.Nil(t, result.GA4Data)
	require.NotNil(t, result.Errors.GA4)
	assert.Contains(t, *result.Errors.GA4, "token expired")
	assert.Nil(t, result.Errors.SearchConsole)
	require.NotNil(t, result.SearchConsoleData)
}

func TestFetchBothProvidersFail(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	tc.ga4.err = fmt.Errorf("quota exceeded")
	tc.ga4.data = nil
	tc.searchConsole.err = fmt.Errorf("network unreachable")
	tc.searchConsole.data = nil

	result, err := tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.Nil(t, result.GA4Data)
	assert.Nil(t, result.SearchConsoleData)
	require.NotNil(t, result.Errors.GA4)
	require.NotNil(t, result.Errors.SearchConsole)
	assert.True(t, result.HasGA4Connection)
	assert.True(t, result.HasSearchConsoleConnection)

	// Nothing was cached, so a retry fetches again.
	_, err = tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)
	assert.EqualValues(t, 2, tc.ga4.calls.Load())
}

func TestFetchNoConnections(t *testing.T) {
	tc := newTestCoordinator(t, &resolver.Connections{
		GA4:           models.NoConnection(),
		SearchConsole: models.NoConnection(),
	})

	result, err := tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.False(t, result.HasGA4Connection)
	assert.False(t, result.HasSearchConsoleConnection)
	assert.Nil(t, result.GA4Data)
	assert.Nil(t, result.SearchConsoleData)
	assert.EqualValues(t, 0, tc.ga4.calls.Load())
	assert.EqualValues(t, 0, tc.searchConsole.calls.Load())
}

func TestFetchUnknownDealership(t *testing.T) {
	coordinator := NewCoordinator(
		&fakeResolver{err: repositories.NotFound("dealership does not exist")},
		&fakeGA4{},
		&fakeSearchConsole{},
		newMemoryCache(),
		nil,
		getTestLogger(),
	)

	_, err := coordinator.Fetch(context.Background(), defaultOptions())
	assert.Error(t, err)
}

func TestFetchUnsupportedDateRange(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())

	opts := defaultOptions()
	opts.DateRange = "365days"
	_, err := tc.coordinator.Fetch(context.Background(), opts)
	assert.Error(t, err)
}

func TestFetchCacheFailureTreatedAsMiss(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	tc.cache.getErr = fmt.Errorf("connection refused")
	tc.cache.setErr = fmt.Errorf("connection refused")

	result, err := tc.coordinator.Fetch(context.Background(), defaultOptions())
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	require.NotNil(t, result.GA4Data)
}

func TestInvalidateDealershipCache(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	opts := defaultOptions()

	_, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)

	tc.coordinator.InvalidateDealershipCache(context.Background(), opts.UserID, opts.DealershipID)

	result, err := tc.coordinator.Fetch(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.EqualValues(t, 2, tc.ga4.calls.Load())
}

func TestPrewarmCache(t *testing.T) {
	tc := newTestCoordinator(t, bothConnections())
	userID := uuid.New()
	dealershipID := uuid.New()

	tc.coordinator.PrewarmCache(context.Background(), userID, dealershipID)

	assert.EqualValues(t, len(models.DateRangeLabels), tc.ga4.calls.Load())

	for _, label := range models.DateRangeLabels {
		result, err := tc.coordinator.Fetch(context.Background(), FetchOptions{
			UserID:       userID,
			DealershipID: dealershipID,
			DateRange:    label,
		})
		require.NoError(t, err)
		assert.True(t, result.FromCache, "expected %s to be prewarmed", label)
	}
}

func TestDateRangeBounds(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	start, end, err := dateRangeBounds(models.DateRange7Days, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)

	_, _, err = dateRangeBounds("14days", now)
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	userID := uuid.MustParse("0b4f9d2e-6a1c-4f3b-9e8d-2c7a5b1f4e6a")
	dealershipID := uuid.MustParse("7c2e8a54-1d9f-4b6e-a3c1-8f5d2e9b7a40")

	key := cacheKey(userID, models.DateRange7Days, dealershipID)
	assert.Equal(t, "analytics:0b4f9d2e-6a1c-4f3b-9e8d-2c7a5b1f4e6a:7days:7c2e8a54-1d9f-4b6e-a3c1-8f5d2e9b7a40", key)
}
