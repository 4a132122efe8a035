package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole identifies a user's role within their agency.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleUser       UserRole = "USER"
)

// User represents an agency member or a dealership-scoped user.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	Role         UserRole   `json:"role" db:"role"`
	AgencyID     *uuid.UUID `json:"agency_id,omitempty" db:"agency_id"`
	DealershipID *uuid.UUID `json:"dealership_id,omitempty" db:"dealership_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds an admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// CreateUserRequest is the request body for creating a user
type CreateUserRequest struct {
	Email        string     `json:"email" validate:"required,email"`
	Name         string     `json:"name" validate:"required,min=1,max=255"`
	Role         UserRole   `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN USER"`
	AgencyID     *uuid.UUID `json:"agency_id,omitempty"`
	DealershipID *uuid.UUID `json:"dealership_id,omitempty"`
}

// UpdateUserRequest is the request body for updating a user
type UpdateUserRequest struct {
	Name         string     `json:"name" validate:"required,min=1,max=255"`
	Role         UserRole   `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN USER"`
	DealershipID *uuid.UUID `json:"dealership_id,omitempty"`
}
