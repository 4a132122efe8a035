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

const agenciesTable = "agencies"

var agencyStruct = database.NewStruct(new(models.Agency))

// AgencyRepository handles database operations for agencies
type AgencyRepository struct {
	*Repository
}

// NewAgencyRepository creates a new agency repository
func NewAgencyRepository(db database.DB, logger ectologger.Logger) *AgencyRepository {
	return &AgencyRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new agency
func (r *AgencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	ctx, span := tracing.StartSpan(ctx, "AgencyRepository.Create")
	defer span.End()

	if agency.ID == uuid.Nil {
		agency.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(agenciesTable).
		Cols("id", "name", "created_at", "updated_at").
		Values(agency.ID, agency.Name, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&agency.CreatedAt, &agency.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": agency.ID,
		}).Error("failed to create agency")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create agency")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"agency_id": agency.ID,
	}).Debugf("Created %s", agenciesTable)
	return nil
}

// GetByID retrieves an agency by ID
func (r *AgencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	ctx, span := tracing.StartSpan(ctx, "AgencyRepository.GetByID")
	defer span.End()

	sb := agencyStruct.SelectFrom(agenciesTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var agency models.Agency
	err := r.DB().GetContext(ctx, &agency, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "agency %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": id,
		}).Error("failed to get agency by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get agency by ID")
	}

	return &agency, nil
}

// List retrieves all agencies
func (r *AgencyRepository) List(ctx context.Context) ([]models.Agency, error) {
	ctx, span := tracing.StartSpan(ctx, "AgencyRepository.List")
	defer span.End()

	sb := agencyStruct.SelectFrom(agenciesTable)
	sb.OrderBy("name")

	query, args := sb.Build()
	var agencies []models.Agency
	err := r.DB().SelectContext(ctx, &agencies, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list agencies")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list agencies")
	}

	return agencies, nil
}

// Update updates an existing agency
func (r *AgencyRepository) Update(ctx context.Context, agency *models.Agency) error {
	ctx, span := tracing.StartSpan(ctx, "AgencyRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(agenciesTable).
		Set(
			ub.Assign("name", agency.Name),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("id", agency.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&agency.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "agency %s does not exist", agency.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": agency.ID,
		}).Error("failed to update agency")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update agency")
	}

	return nil
}

// Delete deletes an agency by ID
func (r *AgencyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "AgencyRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(agenciesTable).
		Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": id,
		}).Error("failed to delete agency")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete agency")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": id,
		}).Error("failed to delete agency")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete agency")
	}
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "agency %s does not exist", id)
	}

	return nil
}
