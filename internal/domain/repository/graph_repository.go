package repository

import (
	"context"

	"token-discovery-indexer/internal/domain/entity"
)

// GraphRepository defines the interface for the token deployment graph
type GraphRepository interface {
	// RecordDiscovery upserts the token node and its deployer relationship
	RecordDiscovery(ctx context.Context, discovery *entity.TokenDiscovery) error

	// GetTokensByDeployer retrieves tokens deployed or initialized by an address
	GetTokensByDeployer(ctx context.Context, deployer string, limit int) ([]*entity.Token, error)

	// GetDeployerStats retrieves aggregate discovery stats for a deployer
	GetDeployerStats(ctx context.Context, deployer string) (*entity.DeployerStats, error)

	// GetRecentTokens retrieves the most recently discovered tokens
	GetRecentTokens(ctx context.Context, limit int) ([]*entity.Token, error)
}
