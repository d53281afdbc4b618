package port

import (
	"context"

	"fidelis/internal/domain"
)

// AuthorityResolver looks up canonical invoice data in external registries.
type AuthorityResolver interface {
	// ResolveByKey returns the record for a 44-digit access key.
	ResolveByKey(ctx context.Context, key string) (*domain.AuthorityRecord, error)
	// ResolveByTaxID confirms an issuer against the public business registry.
	ResolveByTaxID(ctx context.Context, taxID string) (*domain.AuthorityRecord, error)
}
