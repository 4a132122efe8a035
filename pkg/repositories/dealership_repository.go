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

const dealershipsTable = "dealerships"

var dealershipStruct = database.NewStruct(new(models.Dealership))

// DealershipRepository handles database operations for dealerships
type DealershipRepository struct {
	*Repository
}

// NewDealershipRepository creates a new dealership repository
func NewDealershipRepository(db database.DB, logger ectologger.Logger) *DealershipRepository {
	return &DealershipRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new dealership
func (r *DealershipRepository) Create(ctx context.Context, dealership *models.Dealership) error {
	ctx, span := tracing.StartSpan(ctx, "DealershipRepository.Create")
	defer span.End()

	if dealership.ID == uuid.Nil {
		dealership.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(dealershipsTable).
		Cols("id", "name", "agency_id", "website", "created_at", "updated_at").
		Values(dealership.ID, dealership.Name, dealership.AgencyID, dealership.Website,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&dealership.CreatedAt, &dealership.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"dealership_id": dealership.ID,
		}).Error("failed to create dealership")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dealership")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"dealership_id": dealership.ID,
	}).Debugf("Created %s", dealershipsTable)
	return nil
}

// GetByID retrieves a dealership by ID
func (r *DealershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	ctx, span := tracing.StartSpan(ctx, "DealershipRepository.GetByID")
	defer span.End()

	sb := dealershipStruct.SelectFrom(dealershipsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var dealership models.Dealership
	err := r.DB().GetContext(ctx, &dealership, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "dealership %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"dealership_id": id,
		}).Error("failed to get dealership by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dealership by ID")
	}

	return &dealership, nil
}

// ListByAgency retrieves all dealerships for an agency
func (r *DealershipRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Dealership, error) {
	ctx, span := tracing.StartSpan(ctx, "DealershipRepository.ListByAgency")
	defer span.End()

	sb := dealershipStruct.SelectFrom(dealershipsTable)
	sb.Where(sb.Equal("agency_id", agencyID))
	sb.OrderBy("name")

	query, args := sb.Build()
	var dealerships []models.Dealership
	err := r.DB().SelectContext(ctx, &dealerships, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"agency_id": agencyID,
		}).Error("failed to list dealerships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dealerships")
	}

	return dealerships, nil
}

// Update updates an existing dealership
func (r *DealershipRepository) Update(ctx context.Context, dealership *models.Dealership) error {
	ctx, span := tracing.StartSpan(ctx, "DealershipRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(dealershipsTable).
		Set(
			ub.Assign("name", dealership.Name),
			ub.Assign("website", dealership.Website),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("id", dealership.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&dealership.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "dealership %s does not exist", dealership.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"dealership_id": dealership.ID,
		}).Error("failed to update dealership")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dealership")
	}

	return nil
}

// Delete deletes a dealership by ID
func (r *DealershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "DealershipRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(dealershipsTable).
		Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"dealership_id": id,
		}).Error("failed to delete dealership")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dealership")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"dealership_id": id,
		}).Error("failed to delete dealership")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dealership")
	}
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "dealership %s does not exist", id)
	}

	return nil
}
