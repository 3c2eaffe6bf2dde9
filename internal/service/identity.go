package service

import (
	"context"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// IdentityProvider resolves the acting identity from a bearer credential.
// The request core never authenticates on its own.
type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (models.Identity, error)
}

// StaticIdentityProvider maps fixed credentials to identities. Tests and
// local tooling use it in place of the JWT provider.
type StaticIdentityProvider map[string]models.Identity

// Resolve implements IdentityProvider.
func (p StaticIdentityProvider) Resolve(_ context.Context, credential string) (models.Identity, error) {
	identity, ok := p[credential]
	if !ok {
		return models.Identity{}, unauthorized("unknown credential")
	}
	return identity, nil
}
