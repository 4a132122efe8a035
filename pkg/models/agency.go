package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency represents an SEO agency tenant.
type Agency struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (Agency) TableName() string {
	return "agencies"
}

// CreateAgencyRequest is the request body for creating an agency
type CreateAgencyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateAgencyRequest is the request body for updating an agency
type UpdateAgencyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
