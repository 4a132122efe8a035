package resolver

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/tracing"
)

// ValidateDealershipAccess reports whether a user may view a dealership's
// analytics. Resolution itself never re-checks tenant ownership, so callers
// must gate on this before trusting a resolution result.
func (r *Resolver) ValidateDealershipAccess(ctx context.Context, userID, dealershipID uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ValidateDealershipAccess")
	defer span.End()

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if user.Role == models.RoleSuperAdmin {
		return true, nil
	}

	dealership, err := r.dealerships.GetByID(ctx, dealershipID)
	if err != nil {
		return false, err
	}

	if user.DealershipID != nil && *user.DealershipID == dealership.ID {
		return true, nil
	}

	if user.AgencyID != nil && *user.AgencyID == dealership.AgencyID {
		return true, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":       userID,
		"dealership_id": dealershipID,
	}).Warn("user denied access to dealership")
	return false, nil
}
