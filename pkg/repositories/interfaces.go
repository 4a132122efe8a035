package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/models"
)

// AgencyRepositoryInterface defines the contract for agency data access
type AgencyRepositoryInterface interface {
	Create(ctx context.Context, agency *models.Agency) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	List(ctx context.Context) ([]models.Agency, error)
	Update(ctx context.Context, agency *models.Agency) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DealershipRepositoryInterface defines the contract for dealership data access
type DealershipRepositoryInterface interface {
	Create(ctx context.Context, dealership *models.Dealership) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Dealership, error)
	Update(ctx context.Context, dealership *models.Dealership) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepositoryInterface defines the contract for user data access
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConnectionRepositoryInterface defines the contract for connection data access
type ConnectionRepositoryInterface interface {
	Upsert(ctx context.Context, connection *models.Connection) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
	LatestForDealership(ctx context.Context, provider models.Provider, dealershipID uuid.UUID) (*models.Connection, error)
	LatestForAgencyAdmin(ctx context.Context, provider models.Provider, agencyID uuid.UUID) (*models.Connection, error)
	LatestForUser(ctx context.Context, provider models.Provider, userID uuid.UUID) (*models.Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
