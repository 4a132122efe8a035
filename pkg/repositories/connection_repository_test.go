package repositories_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealersight/dealersight/pkg/database"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "dealersight"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// assertNotFound asserts that err is an HTTP 404 error
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err), "expected 404, got: %d", httperror.GetStatusCode(err))
}

type testEntities struct {
	agency     *models.Agency
	dealership *models.Dealership
	admin      *models.User
	member     *models.User
}

func seedEntities(t *testing.T, ctx context.Context, db database.DB) *testEntities {
	t.Helper()
	logger := getTestLogger()

	agencies := repositories.NewAgencyRepository(db, logger)
	dealerships := repositories.NewDealershipRepository(db, logger)
	users := repositories.NewUserRepository(db, logger)

	agency := &models.Agency{Name: "Test Agency " + uuid.NewString()}
	require.NoError(t, agencies.Create(ctx, agency))
	t.Cleanup(func() { _ = agencies.Delete(context.Background(), agency.ID) })

	dealership := &models.Dealership{Name: "Test Dealership", AgencyID: agency.ID}
	require.NoError(t, dealerships.Create(ctx, dealership))

	admin := &models.User{
		Email:    uuid.NewString() + "@test.local",
		Name:     "Admin",
		Role:     models.RoleAdmin,
		AgencyID: &agency.ID,
	}
	require.NoError(t, users.Create(ctx, admin))

	member := &models.User{
		Email:    uuid.NewString() + "@test.local",
		Name:     "Member",
		Role:     models.RoleUser,
		AgencyID: &agency.ID,
	}
	require.NoError(t, users.Create(ctx, member))

	return &testEntities{agency: agency, dealership: dealership, admin: admin, member: member}
}

func TestConnectionRepository_UpsertReplacesScope(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	entities := seedEntities(t, ctx, db)

	repo := repositories.NewConnectionRepository(db, getTestLogger())

	first := &models.Connection{
		UserID:       entities.member.ID,
		DealershipID: &entities.dealership.ID,
		Provider:     models.ProviderGA4,
		ExternalID:   "111111111",
		AccessToken:  "ciphertext-a",
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.Connection{
		UserID:       entities.member.ID,
		DealershipID: &entities.dealership.ID,
		Provider:     models.ProviderGA4,
		ExternalID:   "222222222",
		AccessToken:  "ciphertext-b",
	}
	require.NoError(t, repo.Upsert(ctx, second))

	// The second upsert must have replaced the first row, not added one.
	assert.Equal(t, first.ID, second.ID)

	latest, err := repo.LatestForDealership(ctx, models.ProviderGA4, entities.dealership.ID)
	require.NoError(t, err)
	assert.Equal(t, "222222222", latest.ExternalID)
	assert.Equal(t, "ciphertext-b", latest.AccessToken)
}

func TestConnectionRepository_LatestForAgencyAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	entities := seedEntities(t, ctx, db)

	repo := repositories.NewConnectionRepository(db, getTestLogger())

	// An agency-level connection owned by a non-admin must not qualify.
	memberConn := &models.Connection{
		UserID:      entities.member.ID,
		Provider:    models.ProviderGA4,
		ExternalID:  "333333333",
		AccessToken: "ciphertext-member",
	}
	require.NoError(t, repo.Upsert(ctx, memberConn))

	_, err := repo.LatestForAgencyAdmin(ctx, models.ProviderGA4, entities.agency.ID)
	assertNotFound(t, err)

	adminConn := &models.Connection{
		UserID:      entities.admin.ID,
		Provider:    models.ProviderGA4,
		ExternalID:  "444444444",
		AccessToken: "ciphertext-admin",
	}
	require.NoError(t, repo.Upsert(ctx, adminConn))

	latest, err := repo.LatestForAgencyAdmin(ctx, models.ProviderGA4, entities.agency.ID)
	require.NoError(t, err)
	assert.Equal(t, "444444444", latest.ExternalID)
	assert.Nil(t, latest.DealershipID)
}

func TestConnectionRepository_LatestForUser(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	entities := seedEntities(t, ctx, db)

	repo := repositories.NewConnectionRepository(db, getTestLogger())

	_, err := repo.LatestForUser(ctx, models.ProviderSearchConsole, entities.member.ID)
	assertNotFound(t, err)

	conn := &models.Connection{
		UserID:      entities.member.ID,
		Provider:    models.ProviderSearchConsole,
		ExternalID:  "https://www.test-site.local/",
		AccessToken: "ciphertext",
	}
	require.NoError(t, repo.Upsert(ctx, conn))

	latest, err := repo.LatestForUser(ctx, models.ProviderSearchConsole, entities.member.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, latest.ID)
}
