package service

import (
	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// InitializeSelector is the first 4 bytes of calldata for initialize(...)
// as emitted by OpenZeppelin-style proxy deployments. A plain call carrying
// it marks the target contract taking on token behavior.
var InitializeSelector = [4]byte{0x14, 0x59, 0x45, 0x7a}

// MinDeployedCodeSize is the exclusive lower bound on summed deployed
// bytecode for a creation to be worth probing. Anything at or below it
// cannot hold a token implementation.
const MinDeployedCodeSize = 150

// DefaultDeniedCallers are caller addresses whose deployments are known
// high-volume non-token factories.
var DefaultDeniedCallers = []common.Address{
	common.HexToAddress("0x0000000000004946c0e9f43f4dee607b0ef1fa1c"),
	common.HexToAddress("0x00000000687f5b66638856396bee28c1db0178d1"),
}

// LegacyDeniedCallers are the additional exchange factory addresses the
// legacy metadata profile excludes.
var LegacyDeniedCallers = []common.Address{
	common.HexToAddress("0xca143ce32fe78f1f7019d7d551a6402fc5350c73"),
	common.HexToAddress("0xbcfccbde45ce874adcb698cc183debcf17952812"),
}

// SkipReason explains why a trace call was rejected as a token candidate.
type SkipReason string

const (
	SkipStateReverted SkipReason = "state_reverted"
	SkipCallKind      SkipReason = "call_kind"
	SkipSelector      SkipReason = "selector_mismatch"
	SkipCodeSize      SkipReason = "code_too_small"
	SkipDeniedCaller  SkipReason = "denied_caller"
)

// Candidate is a trace call that passed all structural checks and is worth
// probing for token metadata.
type Candidate struct {
	Address common.Address
	Caller  common.Address
	Origin  entity.DiscoveryOrigin
}

// CandidateFilterService applies the structural candidate checks to trace
// calls. The deny list is fixed at construction.
type CandidateFilterService struct {
	deniedCallers map[common.Address]struct{}
	logger        *logger.Logger
}

// NewCandidateFilterService creates a new candidate filter service
func NewCandidateFilterService(deniedCallers []common.Address, logger *logger.Logger) *CandidateFilterService {
	denied := make(map[common.Address]struct{}, len(deniedCallers))
	for _, addr := range deniedCallers {
		denied[addr] = struct{}{}
	}

	return &CandidateFilterService{
		deniedCallers: denied,
		logger:        logger.WithComponent("candidate-filter"),
	}
}

// Evaluate checks a single trace call. It returns the candidate when the
// call passes, or a nil candidate with the reason it was skipped.
func (s *CandidateFilterService) Evaluate(call *entity.Call) (*Candidate, SkipReason) {
	if call.StateReverted {
		return nil, SkipStateReverted
	}

	var origin entity.DiscoveryOrigin
	switch {
	case call.Kind.IsCreate():
		origin = entity.OriginContractCreation
	case call.Kind.IsCall():
		origin = entity.OriginProxyInitialization
	default:
		return nil, SkipCallKind
	}

	if origin == entity.OriginProxyInitialization {
		if len(call.Input) < 4 || [4]byte(call.Input[:4]) != InitializeSelector {
			return nil, SkipSelector
		}
	}

	if origin == entity.OriginContractCreation {
		codeSize := call.DeployedCodeSize()
		s.logger.Debug("Found contract creation",
			zap.String("address", entity.AddressHex(call.Address)),
			zap.String("caller", entity.AddressHex(call.Caller)),
			zap.Int("code_size", codeSize),
			zap.Int("input_size", len(call.Input)))

		if codeSize <= MinDeployedCodeSize {
			s.logger.Debug("Skipping too small code to be a token contract",
				zap.String("address", entity.AddressHex(call.Address)))
			return nil, SkipCodeSize
		}
	} else {
		s.logger.Debug("Found proxy initialization",
			zap.String("address", entity.AddressHex(call.Address)),
			zap.String("caller", entity.AddressHex(call.Caller)))
	}

	if _, denied := s.deniedCallers[call.Caller]; denied {
		s.logger.Debug("Skipping known caller address",
			zap.String("caller", entity.AddressHex(call.Caller)))
		return nil, SkipDeniedCaller
	}

	return &Candidate{
		Address: call.Address,
		Caller:  call.Caller,
		Origin:  origin,
	}, ""
}
