package service

import (
	"context"
	"errors"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
)

// ErrGraphDisabled is returned for deployer queries when the deployment
// graph is not configured.
var ErrGraphDisabled = errors.New("deployment graph is disabled")

// CatalogService answers read-side queries over the discovered token catalog
type CatalogService struct {
	store repository.TokenRepository
	graph repository.GraphRepository
}

// NewCatalogService creates a new catalog service. graph may be nil when
// the deployment graph is disabled.
func NewCatalogService(store repository.TokenRepository, graph repository.GraphRepository) *CatalogService {
	return &CatalogService{
		store: store,
		graph: graph,
	}
}

// GetToken retrieves one token from the KV store by address
func (s *CatalogService) GetToken(ctx context.Context, address string) (*entity.Token, error) {
	return s.store.GetToken(ctx, address)
}

// ListTokens lists stored tokens, up to limit
func (s *CatalogService) ListTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	return s.store.ListTokens(ctx, limit)
}

// GetTokensByDeployer lists tokens attributed to a deployer address
func (s *CatalogService) GetTokensByDeployer(ctx context.Context, deployer string, limit int) ([]*entity.Token, error) {
	if s.graph == nil {
		return nil, ErrGraphDisabled
	}
	return s.graph.GetTokensByDeployer(ctx, deployer, limit)
}

// GetDeployerStats retrieves aggregate discovery stats for a deployer
func (s *CatalogService) GetDeployerStats(ctx context.Context, deployer string) (*entity.DeployerStats, error) {
	if s.graph == nil {
		return nil, ErrGraphDisabled
	}
	return s.graph.GetDeployerStats(ctx, deployer)
}
