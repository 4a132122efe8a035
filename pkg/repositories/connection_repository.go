package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/dealersight/dealersight/pkg/database"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/tracing"
)

const connectionsTable = "connections"

var connectionStruct = database.NewStruct(new(models.Connection))

// ConnectionRepository handles database operations for provider connections
type ConnectionRepository struct {
	*Repository
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db database.DB, logger ectologger.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		Repository: NewRepository(db, logger),
	}
}

// Upsert creates a connection or replaces the tokens and external id of an
// existing one with the same user, provider, and dealership scope.
func (r *ConnectionRepository) Upsert(ctx context.Context, connection *models.Connection) error {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.Upsert")
	defer span.End()

	if connection.ID == uuid.Nil {
		connection.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(connectionsTable).
		Cols("id", "user_id", "dealership_id", "provider", "external_id", "access_token",
			"refresh_token", "expires_at", "metadata", "created_at", "updated_at").
		Values(connection.ID, connection.UserID, connection.DealershipID, connection.Provider,
			connection.ExternalID, connection.AccessToken, connection.RefreshToken,
			connection.ExpiresAt, connection.Metadata,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("user_id", "provider", "dealership_id")
	ub.Set(
		ub.Assign("external_id", database.Excluded("external_id")),
		ub.Assign("access_token", database.Excluded("access_token")),
		ub.Assign("refresh_token", database.Excluded("refresh_token")),
		ub.Assign("expires_at", database.Excluded("expires_at")),
		ub.Assign("metadata", database.Excluded("metadata")),
		ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
	)
	ib.Returning("id", "created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).
		Scan(&connection.ID, &connection.CreatedAt, &connection.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id":  connection.UserID,
			"provider": connection.Provider,
		}).Error("failed to upsert connection")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert connection")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"connection_id": connection.ID,
		"provider":      connection.Provider,
	}).Debugf("Upserted %s", connectionsTable)
	return nil
}

// GetByID retrieves a connection by ID
func (r *ConnectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.GetByID")
	defer span.End()

	sb := connectionStruct.SelectFrom(connectionsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var connection models.Connection
	err := r.DB().GetContext(ctx, &connection, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "connection %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"connection_id": id,
		}).Error("failed to get connection by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get connection by ID")
	}

	return &connection, nil
}

// ListForUser retrieves all connections owned by a user
func (r *ConnectionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.ListForUser")
	defer span.End()

	sb := connectionStruct.SelectFrom(connectionsTable)
	sb.Where(sb.Equal("user_id", userID))
	sb.OrderBy("updated_at").Desc()

	query, args := sb.Build()
	var connections []models.Connection
	err := r.DB().SelectContext(ctx, &connections, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to list connections")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list connections")
	}

	return connections, nil
}

// LatestForDealership retrieves the most recent connection scoped directly to
// a dealership for a provider.
func (r *ConnectionRepository) LatestForDealership(ctx context.Context, provider models.Provider, dealershipID uuid.UUID) (*models.Connection, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.LatestForDealership")
	defer span.End()

	sb := connectionStruct.SelectFrom(connectionsTable)
	sb.Where(sb.Equal("provider", provider), sb.Equal("dealership_id", dealershipID))
	sb.OrderBy("updated_at").Desc().Limit(1)

	query, args := sb.Build()
	var connection models.Connection
	err := r.DB().GetContext(ctx, &connection, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no %s connection for dealership %s", provider, dealershipID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider":      provider,
			"dealership_id": dealershipID,
		}).Error("failed to get dealership connection")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dealership connection")
	}

	return &connection, nil
}

// LatestForAgencyAdmin retrieves the most recent agency level connection
// owned by an admin of the given agency for a provider. Agency level means
// the connection has no dealership scope.
func (r *ConnectionRepository) LatestForAgencyAdmin(ctx context.Context, provider models.Provider, agencyID uuid.UUID) (*models.Connection, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.LatestForAgencyAdmin")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("c.*").
		From(connectionsTable + " c").
		Join(usersTable+" u", "c.user_id = u.id").
		Where(
			sb.Equal("u.agency_id", agencyID),
			sb.In("u.role", models.RoleAdmin, models.RoleSuperAdmin),
			sb.Equal("c.provider", provider),
			sb.IsNull("c.dealership_id"),
		).
		OrderBy("c.updated_at").Desc().Limit(1)

	query, args := sb.Build()
	var connection models.Connection
	err := r.DB().GetContext(ctx, &connection, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no %s connection for agency %s admins", provider, agencyID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider":  provider,
			"agency_id": agencyID,
		}).Error("failed to get agency admin connection")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get agency admin connection")
	}

	return &connection, nil
}

// LatestForUser retrieves the most recent connection owned by a user for a
// provider, regardless of dealership scope.
func (r *ConnectionRepository) LatestForUser(ctx context.Context, provider models.Provider, userID uuid.UUID) (*models.Connection, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.LatestForUser")
	defer span.End()

	sb := connectionStruct.SelectFrom(connectionsTable)
	sb.Where(sb.Equal("provider", provider), sb.Equal("user_id", userID))
	sb.OrderBy("updated_at").Desc().Limit(1)

	query, args := sb.Build()
	var connection models.Connection
	err := r.DB().GetContext(ctx, &connection, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no %s connection for user %s", provider, userID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider": provider,
			"user_id":  userID,
		}).Error("failed to get user connection")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user connection")
	}

	return &connection, nil
}

// Delete deletes a connection by ID
func (r *ConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(connectionsTable).
		Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"connection_id": id,
		}).Error("failed to delete connection")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete connection")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"connection_id": id,
		}).Error("failed to delete connection")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete connection")
	}
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "connection %s does not exist", id)
	}

	return nil
}
