package service

import (
	"context"
	"fmt"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	domainService "token-discovery-indexer/internal/domain/service"
	"token-discovery-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// DiscoveryApplicationService implements BlockProcessingService. It runs
// discovery on each block and routes the results to the KV store, the
// deployment graph and the output sink.
type DiscoveryApplicationService struct {
	discovery domainService.TokenDiscoveryService
	store     repository.TokenRepository
	graph     repository.GraphRepository
	sink      domainService.TokenSink
	logger    *logger.Logger
}

// NewDiscoveryApplicationService creates a new discovery application service.
// graph may be nil when the deployment graph is disabled.
func NewDiscoveryApplicationService(
	discovery domainService.TokenDiscoveryService,
	store repository.TokenRepository,
	graph repository.GraphRepository,
	sink domainService.TokenSink,
	logger *logger.Logger,
) domainService.BlockProcessingService {
	return &DiscoveryApplicationService{
		discovery: discovery,
		store:     store,
		graph:     graph,
		sink:      sink,
		logger:    logger.WithComponent("discovery-service"),
	}
}

// ProcessBlock discovers tokens in a block and routes them to the configured
// store, graph and sink
func (s *DiscoveryApplicationService) ProcessBlock(ctx context.Context, block *entity.Block) error {
	discoveries, err := s.discovery.DiscoverTokens(ctx, block)
	if err != nil {
		return fmt.Errorf("failed to discover tokens: %w", err)
	}

	if len(discoveries) == 0 {
		s.logger.Debug("No tokens discovered in block", zap.Uint64("block_number", block.Number))
		return nil
	}

	for _, discovery := range discoveries {
		if err := s.store.SaveToken(ctx, discovery.Token); err != nil {
			return fmt.Errorf("failed to store token %s: %w", discovery.Token.Address, err)
		}

		if s.graph != nil {
			if err := s.graph.RecordDiscovery(ctx, discovery); err != nil {
				s.logger.Error("Failed to record discovery in graph",
					zap.String("address", discovery.Token.Address),
					zap.Error(err))
				// Don't fail block processing for graph errors
			}
		}
	}

	if err := s.sink.WriteTokens(ctx, discoveries); err != nil {
		return fmt.Errorf("failed to write tokens to sink: %w", err)
	}

	s.logger.Info("Successfully processed block",
		zap.Uint64("block_number", block.Number),
		zap.Int("tokens", len(discoveries)))
	return nil
}
