package service

import (
	"context"

	"token-discovery-indexer/internal/domain/entity"
)

// TokenDiscoveryService defines the interface for per-block token discovery
type TokenDiscoveryService interface {
	// DiscoverTokens scans the execution traces of a block and returns the
	// token contracts that first appeared in it, in trace order
	DiscoverTokens(ctx context.Context, block *entity.Block) ([]*entity.TokenDiscovery, error)
}

// BlockProcessingService defines the interface for full block handling:
// discovery plus persistence and sink output
type BlockProcessingService interface {
	// ProcessBlock discovers tokens in a block and routes them to the
	// configured store, graph and sink
	ProcessBlock(ctx context.Context, block *entity.Block) error
}
