package blockchain

import (
	"context"
	"errors"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/service"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetadataProfile selects how candidate metadata is probed and decoded.
type MetadataProfile string

const (
	// ProfileStandard probes decimals on its own and tolerates its failure,
	// then requires name while defaulting a broken symbol to "".
	ProfileStandard MetadataProfile = "standard"

	// ProfileLegacy probes all three getters in one batch and drops the
	// candidate unless every value decodes.
	ProfileLegacy MetadataProfile = "legacy"
)

// tokenMetadata is the resolved metadata of one candidate.
type tokenMetadata struct {
	name     string
	symbol   string
	decimals uint64
}

// pendingCandidate ties a filtered candidate to its transaction.
type pendingCandidate struct {
	candidate *service.Candidate
	txHash    string
}

// TokenDiscoveryService scans block execution traces for fresh token
// contracts and resolves their metadata over RPC.
type TokenDiscoveryService struct {
	executor    service.ReadCallExecutor
	filter      *service.CandidateFilterService
	profile     MetadataProfile
	concurrency int
	logger      *logger.Logger
}

// NewTokenDiscoveryService creates a new token discovery service
func NewTokenDiscoveryService(
	executor service.ReadCallExecutor,
	filter *service.CandidateFilterService,
	cfg *config.DetectionConfig,
	logger *logger.Logger,
) service.TokenDiscoveryService {
	profile := ProfileStandard
	if MetadataProfile(cfg.Profile) == ProfileLegacy {
		profile = ProfileLegacy
	}

	concurrency := cfg.ResolveConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &TokenDiscoveryService{
		executor:    executor,
		filter:      filter,
		profile:     profile,
		concurrency: concurrency,
		logger:      logger.WithComponent("token-discovery"),
	}
}

// DiscoverTokens scans the execution traces of a block and returns the token
// contracts that first appeared in it, in trace order. Candidates resolve
// their metadata in parallel; the output order still follows the traces.
func (s *TokenDiscoveryService) DiscoverTokens(ctx context.Context, block *entity.Block) ([]*entity.TokenDiscovery, error) {
	if block == nil {
		return nil, errors.New("block is nil")
	}

	var pending []pendingCandidate
	for _, trx := range block.Transactions {
		if trx == nil {
			continue
		}
		for _, call := range trx.Calls {
			if call == nil {
				continue
			}
			candidate, _ := s.filter.Evaluate(call)
			if candidate == nil {
				continue
			}
			pending = append(pending, pendingCandidate{candidate: candidate, txHash: trx.Hash})
		}
	}

	if len(pending) == 0 {
		return nil, nil
	}

	s.logger.Debug("Resolving candidate metadata",
		zap.Uint64("block_number", block.Number),
		zap.Int("candidates", len(pending)))

	resolved := make([]*tokenMetadata, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range pending {
		g.Go(func() error {
			md, err := s.resolveMetadata(gctx, block.Number, p.candidate.Address)
			if err != nil {
				return err
			}
			resolved[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var discoveries []*entity.TokenDiscovery
	for i, p := range pending {
		md := resolved[i]
		if md == nil {
			continue
		}

		token := entity.NewToken(p.candidate.Address, md.name, md.symbol, md.decimals)
		s.logger.Info("Discovered token contract",
			zap.String("address", token.Address),
			zap.String("name", token.Name),
			zap.String("symbol", token.Symbol),
			zap.Uint64("decimals", token.Decimals),
			zap.String("origin", string(p.candidate.Origin)),
			zap.Uint64("block_number", block.Number))

		discoveries = append(discoveries, &entity.TokenDiscovery{
			Token:       token,
			Deployer:    entity.AddressHex(p.candidate.Caller),
			BlockNumber: block.Number,
			TxHash:      p.txHash,
			Origin:      p.candidate.Origin,
		})
	}

	return discoveries, nil
}

// resolveMetadata probes one candidate. A nil metadata return means the
// candidate is not a token contract; the error return is reserved for
// context cancellation.
func (s *TokenDiscoveryService) resolveMetadata(ctx context.Context, blockNumber uint64, addr common.Address) (*tokenMetadata, error) {
	if s.profile == ProfileLegacy {
		return s.resolveLegacy(ctx, blockNumber, addr)
	}
	return s.resolveStandard(ctx, blockNumber, addr)
}

func (s *TokenDiscoveryService) resolveStandard(ctx context.Context, blockNumber uint64, addr common.Address) (*tokenMetadata, error) {
	addrHex := entity.AddressHex(addr)

	decimalsRes, err := s.executor.ExecuteReadCalls(ctx, blockNumber, decimalsCalls(addr))
	if err != nil {
		return nil, err
	}

	var decimals uint64
	if len(decimalsRes) != 1 || decimalsRes[0].Failed {
		s.logger.Debug("Candidate decimals call failed, defaulting to 0",
			zap.String("address", addrHex))
	} else if v, decErr := DecodeUint32(decimalsRes[0].Raw); decErr != nil {
		s.logger.Debug("Candidate decimals decode failed, defaulting to 0",
			zap.String("address", addrHex),
			zap.Error(decErr))
	} else {
		decimals = uint64(v)
	}

	res, err := s.executor.ExecuteReadCalls(ctx, blockNumber, nameSymbolCalls(addr))
	if err != nil {
		return nil, err
	}
	if len(res) != 2 || res[0].Failed || res[1].Failed {
		s.logger.Debug("Candidate is not a token contract, name/symbol calls failed",
			zap.String("address", addrHex))
		return nil, nil
	}

	name, err := DecodeString(res[0].Raw)
	if err != nil {
		s.logger.Debug("Candidate is not a token contract, name decode failed",
			zap.String("address", addrHex),
			zap.Error(err))
		return nil, nil
	}

	symbol := ""
	if v, decErr := DecodeString(res[1].Raw); decErr != nil {
		s.logger.Debug("Candidate symbol decode failed, defaulting to empty",
			zap.String("address", addrHex),
			zap.Error(decErr))
	} else {
		symbol = v
	}

	return &tokenMetadata{name: name, symbol: symbol, decimals: decimals}, nil
}

func (s *TokenDiscoveryService) resolveLegacy(ctx context.Context, blockNumber uint64, addr common.Address) (*tokenMetadata, error) {
	addrHex := entity.AddressHex(addr)

	res, err := s.executor.ExecuteReadCalls(ctx, blockNumber, combinedMetadataCalls(addr))
	if err != nil {
		return nil, err
	}
	if len(res) != 3 || res[0].Failed || res[1].Failed || res[2].Failed {
		s.logger.Debug("Candidate is not a token contract, metadata calls failed",
			zap.String("address", addrHex))
		return nil, nil
	}

	decimals, err := DecodeUint32Strict(res[0].Raw)
	if err != nil {
		s.logger.Debug("Candidate is not a token contract, decimals decode failed",
			zap.String("address", addrHex),
			zap.Error(err))
		return nil, nil
	}

	name, err := DecodeString(res[1].Raw)
	if err != nil {
		s.logger.Debug("Candidate is not a token contract, name decode failed",
			zap.String("address", addrHex),
			zap.Error(err))
		return nil, nil
	}

	symbol, err := DecodeString(res[2].Raw)
	if err != nil {
		s.logger.Debug("Candidate is not a token contract, symbol decode failed",
			zap.String("address", addrHex),
			zap.Error(err))
		return nil, nil
	}

	return &tokenMetadata{name: name, symbol: symbol, decimals: uint64(decimals)}, nil
}
