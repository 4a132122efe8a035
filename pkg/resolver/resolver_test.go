package resolver_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"

	"github.com/dealersight/dealersight/pkg/mapping"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/resolver"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeDealershipRepo struct {
	dealerships map[uuid.UUID]*models.Dealership
}

func (f *fakeDealershipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	if d, ok := f.dealerships[id]; ok {
		return d, nil
	}
	return nil, repositories.NotFound("dealership %s does not exist", id)
}

func (f *fakeDealershipRepo) Create(ctx context.Context, dealership *models.Dealership) error {
	return nil
}

func (f *fakeDealershipRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Dealership, error) {
	return nil, nil
}

func (f *fakeDealershipRepo) Update(ctx context.Context, dealership *models.Dealership) error {
	return nil
}

func (f *fakeDealershipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.NotFound("user %s does not exist", id)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repositories.NotFound("user '%s' does not exist", email)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (f *fakeUserRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }

type connKey struct {
	provider models.Provider
	id       uuid.UUID
}

type fakeConnectionRepo struct {
	byDealership  map[connKey]*models.Connection
	byAgencyAdmin map[connKey]*models.Connection
	byUser        map[connKey]*models.Connection
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{
		byDealership:  map[connKey]*models.Connection{},
		byAgencyAdmin: map[connKey]*models.Connection{},
		byUser:        map[connKey]*models.Connection{},
	}
}

func (f *fakeConnectionRepo) LatestForDealership(ctx context.Context, provider models.Provider, dealershipID uuid.UUID) (*models.Connection, error) {
	if c, ok := f.byDealership[connKey{provider, dealershipID}]; ok {
		return c, nil
	}
	return nil, repositories.NotFound("no %s connection for dealership %s", provider, dealershipID)
}

func (f *fakeConnectionRepo) LatestForAgencyAdmin(ctx context.Context, provider models.Provider, agencyID uuid.UUID) (*models.Connection, error) {
	if c, ok := f.byAgencyAdmin[connKey{provider, agencyID}]; ok {
		return c, nil
	}
	return nil, repositories.NotFound("no %s connection for agency %s admins", provider, agencyID)
}

func (f *fakeConnectionRepo) LatestForUser(ctx context.Context, provider models.Provider, userID uuid.UUID) (*models.Connection, error) {
	if c, ok := f.byUser[connKey{provider, userID}]; ok {
		return c, nil
	}
	return nil, repositories.NotFound("no %s connection for user %s", provider, userID)
}

func (f *fakeConnectionRepo) Upsert(ctx context.Context, connection *models.Connection) error {
	return nil
}

func (f *fakeConnectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	return nil, repositories.NotFound("connection %s does not exist", id)
}

func (f *fakeConnectionRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

// fakeDecrypter strips an "enc:" prefix and fails on anything else.
type fakeDecrypter struct{}

func (fakeDecrypter) Decrypt(ciphertext string) (string, error) {
	if plaintext, ok := strings.CutPrefix(ciphertext, "enc:"); ok {
		return plaintext, nil
	}
	return "", fmt.Errorf("cannot decrypt %q", ciphertext)
}

type fixture struct {
	resolver    *resolver.Resolver
	connections *fakeConnectionRepo
	agencyID    uuid.UUID
	dealership  *models.Dealership
	user        *models.User
}

func newFixture(t *testing.T, table *mapping.Table) *fixture {
	t.Helper()

	agencyID := uuid.New()
	dealershipID := uuid.New()
	userID := uuid.New()

	dealership := &models.Dealership{
		ID:       dealershipID,
		Name:     "Awarded Auto Group",
		AgencyID: agencyID,
	}
	user := &models.User{
		ID:       userID,
		Email:    "seo@agency.test",
		Role:     models.RoleUser,
		AgencyID: &agencyID,
	}

	connections := newFakeConnectionRepo()

	if table == nil {
		table = mapping.NewTable(nil)
	}

	r := resolver.New(
		&fakeDealershipRepo{dealerships: map[uuid.UUID]*models.Dealership{dealershipID: dealership}},
		&fakeUserRepo{users: map[uuid.UUID]*models.User{userID: user}},
		connections,
		table,
		fakeDecrypter{},
		getTestLogger(),
	)

	return &fixture{
		resolver:    r,
		connections: connections,
		agencyID:    agencyID,
		dealership:  dealership,
		user:        user,
	}
}

func TestResolveUnknownDealership(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, uuid.New())
	assert.Error(t, err)
}

func TestResolveUnknownUser(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.resolver.ResolveDealershipConnections(context.Background(), uuid.New(), f.dealership.ID)
	assert.Error(t, err)
}

func TestResolveNoConnectionsAnywhere(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, f.dealership.ID)
	require.NoError(t, err)

	assert.False(t, result.GA4.HasConnection)
	assert.Equal(t, models.SourceNone, result.GA4.Source)
	assert.False(t, result.SearchConsole.HasConnection)
	assert.Equal(t, models.SourceNone, result.SearchConsole.Source)
}

func TestResolveDealershipScopedConnection(t *testing.T) {
	f := newFixture(t, nil)

	connID := uuid.New()
	dealershipID := f.dealership.ID
	f.connections.byDealership[connKey{models.ProviderGA4, dealershipID}] = &models.Connection{
		ID:           connID,
		UserID:       f.user.ID,
		DealershipID: &dealershipID,
		Provider:     models.ProviderGA4,
		ExternalID:   "415092867",
		AccessToken:  "enc:ga4-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.True(t, result.GA4.HasConnection)
	assert.Equal(t, "415092867", result.GA4.ExternalID)
	assert.Equal(t, models.SourceDealership, result.GA4.Source)
	assert.Equal(t, "ga4-token", result.GA4.AccessToken)
	require.NotNil(t, result.GA4.ConnectionID)
	assert.Equal(t, connID, *result.GA4.ConnectionID)
}

func TestResolveSearchConsoleMappingOverridesStoredURL(t *testing.T) {
	f := newFixture(t, nil)

	dealershipID := f.dealership.ID
	table := mapping.NewTable(map[string]mapping.Entry{
		dealershipID.String(): {SearchConsoleURL: "https://www.correct-site.com/"},
	})
	f = fixtureWithTable(t, f, table)

	f.connections.byDealership[connKey{models.ProviderSearchConsole, dealershipID}] = &models.Connection{
		ID:           uuid.New(),
		UserID:       f.user.ID,
		DealershipID: &dealershipID,
		Provider:     models.ProviderSearchConsole,
		ExternalID:   "https://www.stale-site.com/",
		AccessToken:  "enc:sc-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.True(t, result.SearchConsole.HasConnection)
	assert.Equal(t, "https://www.correct-site.com/", result.SearchConsole.ExternalID)
	assert.Equal(t, models.SourceDealership, result.SearchConsole.Source)
}

// fixtureWithTable rebuilds the fixture's resolver around a different mapping
// table while keeping the same entities and stored connections.
func fixtureWithTable(t *testing.T, f *fixture, table *mapping.Table) *fixture {
	t.Helper()

	f.resolver = resolver.New(
		&fakeDealershipRepo{dealerships: map[uuid.UUID]*models.Dealership{f.dealership.ID: f.dealership}},
		&fakeUserRepo{users: map[uuid.UUID]*models.User{f.user.ID: f.user}},
		f.connections,
		table,
		fakeDecrypter{},
		getTestLogger(),
	)
	return f
}

func TestResolveMappingWithAgencyAdminConnection(t *testing.T) {
	f := newFixture(t, nil)

	dealershipID := f.dealership.ID
	table := mapping.NewTable(map[string]mapping.Entry{
		dealershipID.String(): {GA4PropertyID: "323480238"},
	})
	f = fixtureWithTable(t, f, table)

	f.connections.byAgencyAdmin[connKey{models.ProviderGA4, f.agencyID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Provider:    models.ProviderGA4,
		ExternalID:  "999999999",
		AccessToken: "enc:admin-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.True(t, result.GA4.HasConnection)
	assert.Equal(t, "323480238", result.GA4.ExternalID)
	assert.Equal(t, models.SourceMapping, result.GA4.Source)
	assert.Equal(t, "admin-token", result.GA4.AccessToken)
}

func TestResolveAgencyConnectionIgnoredWithoutMapping(t *testing.T) {
	// Without a mapping entry an agency-level connection must never stand in
	// for the dealership.
	f := newFixture(t, nil)

	f.connections.byAgencyAdmin[connKey{models.ProviderGA4, f.agencyID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Provider:    models.ProviderGA4,
		ExternalID:  "999999999",
		AccessToken: "enc:admin-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, f.dealership.ID)
	require.NoError(t, err)

	assert.False(t, result.GA4.HasConnection)
	assert.Equal(t, models.SourceNone, result.GA4.Source)
}

func TestResolveUserFallback(t *testing.T) {
	f := newFixture(t, nil)

	f.connections.byUser[connKey{models.ProviderGA4, f.user.ID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      f.user.ID,
		Provider:    models.ProviderGA4,
		ExternalID:  "277130951",
		AccessToken: "enc:user-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, f.dealership.ID)
	require.NoError(t, err)

	assert.True(t, result.GA4.HasConnection)
	assert.Equal(t, "277130951", result.GA4.ExternalID)
	assert.Equal(t, models.SourceUser, result.GA4.Source)
}

func TestResolvePartialRecordTreatedAsAbsent(t *testing.T) {
	f := newFixture(t, nil)

	dealershipID := f.dealership.ID
	// Missing external id, so the dealership tier must be skipped.
	f.connections.byDealership[connKey{models.ProviderGA4, dealershipID}] = &models.Connection{
		ID:           uuid.New(),
		UserID:       f.user.ID,
		DealershipID: &dealershipID,
		Provider:     models.ProviderGA4,
		AccessToken:  "enc:partial-token",
	}
	f.connections.byUser[connKey{models.ProviderGA4, f.user.ID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      f.user.ID,
		Provider:    models.ProviderGA4,
		ExternalID:  "277130951",
		AccessToken: "enc:user-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.Equal(t, models.SourceUser, result.GA4.Source)
	assert.Equal(t, "277130951", result.GA4.ExternalID)
}

func TestResolveUndecryptableRecordSkipped(t *testing.T) {
	f := newFixture(t, nil)

	dealershipID := f.dealership.ID
	f.connections.byDealership[connKey{models.ProviderGA4, dealershipID}] = &models.Connection{
		ID:           uuid.New(),
		UserID:       f.user.ID,
		DealershipID: &dealershipID,
		Provider:     models.ProviderGA4,
		ExternalID:   "415092867",
		AccessToken:  "garbage-ciphertext",
	}
	f.connections.byUser[connKey{models.ProviderGA4, f.user.ID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      f.user.ID,
		Provider:    models.ProviderGA4,
		ExternalID:  "277130951",
		AccessToken: "enc:user-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.Equal(t, models.SourceUser, result.GA4.Source)
}

func TestResolveDealershipTierWins(t *testing.T) {
	f := newFixture(t, nil)

	dealershipID := f.dealership.ID
	table := mapping.NewTable(map[string]mapping.Entry{
		dealershipID.String(): {GA4PropertyID: "323480238"},
	})
	f = fixtureWithTable(t, f, table)

	f.connections.byDealership[connKey{models.ProviderGA4, dealershipID}] = &models.Connection{
		ID:           uuid.New(),
		UserID:       f.user.ID,
		DealershipID: &dealershipID,
		Provider:     models.ProviderGA4,
		ExternalID:   "415092867",
		AccessToken:  "enc:dealership-token",
	}
	f.connections.byAgencyAdmin[connKey{models.ProviderGA4, f.agencyID}] = &models.Connection{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Provider:    models.ProviderGA4,
		ExternalID:  "999999999",
		AccessToken: "enc:admin-token",
	}

	result, err := f.resolver.ResolveDealershipConnections(context.Background(), f.user.ID, dealershipID)
	require.NoError(t, err)

	assert.Equal(t, models.SourceDealership, result.GA4.Source)
	assert.Equal(t, "415092867", result.GA4.ExternalID)
}

func TestValidateDealershipAccess(t *testing.T) {
	agencyID := uuid.New()
	otherAgencyID := uuid.New()
	dealershipID := uuid.New()
	otherDealershipID := uuid.New()

	dealership := &models.Dealership{ID: dealershipID, Name: "Lakeside Chevrolet", AgencyID: agencyID}

	superAdmin := &models.User{ID: uuid.New(), Role: models.RoleSuperAdmin}
	assigned := &models.User{ID: uuid.New(), Role: models.RoleUser, AgencyID: &otherAgencyID, DealershipID: &dealershipID}
	agencyMember := &models.User{ID: uuid.New(), Role: models.RoleUser, AgencyID: &agencyID}
	outsider := &models.User{ID: uuid.New(), Role: models.RoleUser, AgencyID: &otherAgencyID, DealershipID: &otherDealershipID}

	users := map[uuid.UUID]*models.User{
		superAdmin.ID:   superAdmin,
		assigned.ID:     assigned,
		agencyMember.ID: agencyMember,
		outsider.ID:     outsider,
	}

	r := resolver.New(
		&fakeDealershipRepo{dealerships: map[uuid.UUID]*models.Dealership{dealershipID: dealership}},
		&fakeUserRepo{users: users},
		newFakeConnectionRepo(),
		mapping.NewTable(nil),
		fakeDecrypter{},
		getTestLogger(),
	)

	ctx := context.Background()

	t.Run("super admin always passes", func(t *testing.T) {
		ok, err := r.ValidateDealershipAccess(ctx, superAdmin.ID, dealershipID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("directly assigned user passes", func(t *testing.T) {
		ok, err := r.ValidateDealershipAccess(ctx, assigned.ID, dealershipID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("agency member passes", func(t *testing.T) {
		ok, err := r.ValidateDealershipAccess(ctx, agencyMember.ID, dealershipID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outsider denied", func(t *testing.T) {
		ok, err := r.ValidateDealershipAccess(ctx, outsider.ID, dealershipID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown user errors", func(t *testing.T) {
		_, err := r.ValidateDealershipAccess(ctx, uuid.New(), dealershipID)
		assert.Error(t, err)
	})

	t.Run("unknown dealership errors", func(t *testing.T) {
		_, err := r.ValidateDealershipAccess(ctx, agencyMember.ID, uuid.New())
		assert.Error(t, err)
	})
}
