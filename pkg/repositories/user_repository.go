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

const usersTable = "users"

var userStruct = database.NewStruct(new(models.User))

// UserRepository handles database operations for users
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DB, logger ectologger.Logger) *UserRepository {
	return &UserRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.Create")
	defer span.End()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(usersTable).
		Cols("id", "email", "name", "role", "agency_id", "dealership_id", "created_at", "updated_at").
		Values(user.ID, user.Email, user.Name, user.Role, user.AgencyID, user.DealershipID,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": user.ID,
		}).Error("failed to create user")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": user.ID,
	}).Debugf("Created %s", usersTable)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByID")
	defer span.End()

	sb := userStruct.SelectFrom(usersTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var user models.User
	err := r.DB().GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": id,
		}).Error("failed to get user by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user by ID")
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByEmail")
	defer span.End()

	sb := userStruct.SelectFrom(usersTable)
	sb.Where(sb.Equal("email", email))

	query, args := sb.Build()
	var user models.User
	err := r.DB().GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "user '%s' does not exist", email)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_email": email,
		}).Error("failed to get user by email")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user by email")
	}

	return &user, nil
}

// ListByAgency retrieves all users for an agency
func (r *UserRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.ListByAgency")
	defer span.End()

	sb := userStruct.SelectFrom(usersTable)
	sb.Where(sb.Equal("agency_id", agencyID))
	sb.OrderBy("email")

	query, args := sb.Build()
	var users []models.User
	err := r.DB().SelectContext(ctx, &users, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": agencyID,
		}).Error("failed to list users")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	return users, nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(usersTable).
		Set(
			ub.Assign("name", user.Name),
			ub.Assign("role", user.Role),
			ub.Assign("dealership_id", user.DealershipID),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("id", user.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "user %s does not exist", user.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": user.ID,
		}).Error("failed to update user")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}

	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(usersTable).
		Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": id,
		}).Error("failed to delete user")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": id,
		}).Error("failed to delete user")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "user %s does not exist", id)
	}

	return nil
}
