package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/database"
)

// Provider identifies an external analytics provider.
type Provider string

const (
	ProviderGA4           Provider = "ga4"
	ProviderSearchConsole Provider = "search_console"
)

// ConnectionSource identifies which resolution tier produced a connection.
type ConnectionSource string

const (
	// SourceDealership means the connection is scoped directly to the dealership.
	SourceDealership ConnectionSource = "dealership"
	// SourceMapping means an agency admin's agency-level connection was paired
	// with an identifier from the curated property mapping.
	SourceMapping ConnectionSource = "mapping"
	// SourceAgency marks the retired direct agency substitution tier. It is
	// kept in the enum so stored provenance from before the tier was removed
	// still round-trips, but the resolver never produces it.
	SourceAgency ConnectionSource = "agency"
	// SourceUser means the requesting user's own connection was used.
	SourceUser ConnectionSource = "user"
	// SourceNone means no tier produced a usable connection.
	SourceNone ConnectionSource = "none"
)

// ConnectionMetadata holds provider specific connection details.
type ConnectionMetadata struct {
	PropertyName string `json:"property_name,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	Scopes       string `json:"scopes,omitempty"`
}

// Connection stores an OAuth-backed link between a user and an analytics
// provider. Dealership scoped connections carry a dealership id; agency level
// connections leave it null.
type Connection struct {
	ID           uuid.UUID                          `json:"id" db:"id"`
	UserID       uuid.UUID                          `json:"user_id" db:"user_id"`
	DealershipID *uuid.UUID                         `json:"dealership_id,omitempty" db:"dealership_id"`
	Provider     Provider                           `json:"provider" db:"provider"`
	ExternalID   string                             `json:"external_id" db:"external_id"`
	AccessToken  string                             `json:"-" db:"access_token"`
	RefreshToken string                             `json:"-" db:"refresh_token"`
	ExpiresAt    *time.Time                         `json:"expires_at,omitempty" db:"expires_at"`
	Metadata     database.JSONB[ConnectionMetadata] `json:"metadata" db:"metadata"`
	CreatedAt    time.Time                          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time                          `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (Connection) TableName() string {
	return "connections"
}

// UpsertConnectionRequest is the request body for creating or replacing a
// provider connection.
type UpsertConnectionRequest struct {
	UserID       uuid.UUID           `json:"user_id" validate:"required"`
	DealershipID *uuid.UUID          `json:"dealership_id,omitempty"`
	Provider     Provider            `json:"provider" validate:"required,oneof=ga4 search_console"`
	ExternalID   string              `json:"external_id" validate:"required"`
	AccessToken  string              `json:"access_token" validate:"required"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	Metadata     *ConnectionMetadata `json:"metadata,omitempty"`
}

// ResolvedConnection is the outcome of resolving the effective connection for
// a provider. HasConnection false with SourceNone means no usable connection
// exists at any tier; this is a normal outcome, not an error.
type ResolvedConnection struct {
	HasConnection bool             `json:"has_connection"`
	ExternalID    string           `json:"external_id,omitempty"`
	ConnectionID  *uuid.UUID       `json:"connection_id,omitempty"`
	AccessToken   string           `json:"-"`
	Source        ConnectionSource `json:"source"`
}

// NoConnection returns the resolution outcome for an absent connection.
func NoConnection() ResolvedConnection {
	return ResolvedConnection{HasConnection: false, Source: SourceNone}
}
