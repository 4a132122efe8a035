// Package resolver decides which stored provider connection should serve a
// dealership's analytics.
package resolver

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/mapping"
	"github.com/dealersight/dealersight/pkg/metrics"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/tracing"
)

// Decrypter turns stored credential material into a usable secret.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Connections is the per-provider resolution outcome for one dealership.
type Connections struct {
	GA4           models.ResolvedConnection `json:"ga4"`
	SearchConsole models.ResolvedConnection `json:"search_console"`
}

// Resolver resolves the effective provider connections for a dealership.
type Resolver struct {
	dealerships repositories.DealershipRepositoryInterface
	users       repositories.UserRepositoryInterface
	connections repositories.ConnectionRepositoryInterface
	table       *mapping.Table
	decrypter   Decrypter
	logger      ectologger.Logger
}

// New creates a resolver
func New(
	dealerships repositories.DealershipRepositoryInterface,
	users repositories.UserRepositoryInterface,
	connections repositories.ConnectionRepositoryInterface,
	table *mapping.Table,
	decrypter Decrypter,
	logger ectologger.Logger,
) *Resolver {
	return &Resolver{
		dealerships: dealerships,
		users:       users,
		connections: connections,
		table:       table,
		decrypter:   decrypter,
		logger:      logger,
	}
}

// ResolveDealershipConnections resolves both provider connections for a
// dealership. An unknown dealership or user is a hard failure; an absent
// connection at every tier is a normal outcome reported on the result.
func (r *Resolver) ResolveDealershipConnections(ctx context.Context, userID, dealershipID uuid.UUID) (*Connections, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ResolveDealershipConnections")
	defer span.End()

	dealership, err := r.dealerships.GetByID(ctx, dealershipID)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ga4, err := r.resolve(ctx, models.ProviderGA4, user, dealership)
	if err != nil {
		return nil, err
	}

	searchConsole, err := r.resolve(ctx, models.ProviderSearchConsole, user, dealership)
	if err != nil {
		return nil, err
	}

	metrics.RecordResolution(string(models.ProviderGA4), string(ga4.Source))
	metrics.RecordResolution(string(models.ProviderSearchConsole), string(searchConsole.Source))

	return &Connections{GA4: ga4, SearchConsole: searchConsole}, nil
}

// resolve walks the fallback tiers for a single provider in strict priority
// order, short-circuiting on the first usable record.
func (r *Resolver) resolve(ctx context.Context, provider models.Provider, user *models.User, dealership *models.Dealership) (models.ResolvedConnection, error) {
	// Tier 1: connection scoped directly to this dealership.
	connection, err := r.connections.LatestForDealership(ctx, provider, dealership.ID)
	if err != nil && !isNotFound(err) {
		return models.NoConnection(), err
	}
	if resolved, ok := r.useRecord(ctx, provider, connection, dealership, models.SourceDealership); ok {
		return resolved, nil
	}

	// Tier 2: curated mapping identifier paired with an agency admin's
	// agency-level connection.
	if mapped := r.mappedIdentifier(provider, dealership.ID); mapped != "" {
		connection, err = r.connections.LatestForAgencyAdmin(ctx, provider, dealership.AgencyID)
		if err != nil && !isNotFound(err) {
			return models.NoConnection(), err
		}
		if connection != nil && connection.AccessToken != "" {
			if resolved, ok := r.withToken(ctx, connection, mapped, models.SourceMapping); ok {
				return resolved, nil
			}
		}
	}

	// Direct agency-wide substitution used to sit here as tier 3. It let one
	// dealership's dashboard render another dealership's numbers whenever an
	// agency connection's stored identifier pointed elsewhere, so it was
	// removed. Do not restore it without validating that the connection's
	// identifier actually belongs to the target dealership.

	// Tier 4: the requesting user's own connection, any scope.
	connection, err = r.connections.LatestForUser(ctx, provider, user.ID)
	if err != nil && !isNotFound(err) {
		return models.NoConnection(), err
	}
	if resolved, ok := r.useRecord(ctx, provider, connection, dealership, models.SourceUser); ok {
		return resolved, nil
	}

	return models.NoConnection(), nil
}

// useRecord validates a stored record and converts it into a resolution
// outcome. A record only counts when it carries both a credential and an
// external identifier; partially populated rows are treated as absent.
func (r *Resolver) useRecord(ctx context.Context, provider models.Provider, connection *models.Connection, dealership *models.Dealership, source models.ConnectionSource) (models.ResolvedConnection, bool) {
	if connection == nil || connection.AccessToken == "" || connection.ExternalID == "" {
		return models.NoConnection(), false
	}

	externalID := connection.ExternalID
	if provider == models.ProviderSearchConsole {
		if mapped := r.table.SearchConsoleURL(dealership.ID.String()); mapped != "" {
			if mapped != externalID {
				r.logger.WithContext(ctx).WithFields(map[string]any{
					"dealership_id": dealership.ID,
					"connection_id": connection.ID,
					"stored_url":    externalID,
					"mapped_url":    mapped,
				}).Warn("stored Search Console URL disagrees with the property mapping, using the mapped URL")
				metrics.MappingOverridesTotal.Inc()
			}
			externalID = mapped
		}
	}

	return r.withToken(ctx, connection, externalID, source)
}

// withToken decrypts the record's credential. A record that cannot be
// decrypted is treated as absent so resolution continues down the tiers.
func (r *Resolver) withToken(ctx context.Context, connection *models.Connection, externalID string, source models.ConnectionSource) (models.ResolvedConnection, bool) {
	token, err := r.decrypter.Decrypt(connection.AccessToken)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"connection_id": connection.ID,
		}).Warn("failed to decrypt connection credential, skipping record")
		return models.NoConnection(), false
	}

	id := connection.ID
	return models.ResolvedConnection{
		HasConnection: true,
		ExternalID:    externalID,
		ConnectionID:  &id,
		AccessToken:   token,
		Source:        source,
	}, true
}

// mappedIdentifier returns the curated identifier for a provider, or empty
// when the dealership has no mapping for it.
func (r *Resolver) mappedIdentifier(provider models.Provider, dealershipID uuid.UUID) string {
	switch provider {
	case models.ProviderGA4:
		return r.table.GA4PropertyID(dealershipID.String())
	case models.ProviderSearchConsole:
		return r.table.SearchConsoleURL(dealershipID.String())
	default:
		return ""
	}
}

func isNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}
