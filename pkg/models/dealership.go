package models

import (
	"time"

	"github.com/google/uuid"
)

// Dealership represents a dealership managed by an agency.
type Dealership struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	AgencyID  uuid.UUID `json:"agency_id" db:"agency_id"`
	Website   string    `json:"website,omitempty" db:"website"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (Dealership) TableName() string {
	return "dealerships"
}

// CreateDealershipRequest is the request body for creating a dealership
type CreateDealershipRequest struct {
	Name     string    `json:"name" validate:"required,min=1,max=255"`
	AgencyID uuid.UUID `json:"agency_id" validate:"required"`
	Website  string    `json:"website,omitempty" validate:"omitempty,url"`
}

// UpdateDealershipRequest is the request body for updating a dealership
type UpdateDealershipRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Website string `json:"website,omitempty" validate:"omitempty,url"`
}
