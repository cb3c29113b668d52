package service

import (
	"context"

	"token-discovery-indexer/internal/domain/entity"
)

// TokenSink defines the interface for downstream token output
type TokenSink interface {
	// WriteTokens emits the discoveries of one block as a unit, preserving
	// their order
	WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error

	// Close flushes and releases the sink
	Close() error
}
