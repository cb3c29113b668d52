package service

import (
	"context"

	"token-discovery-indexer/internal/domain/entity"
)

// ReadCallExecutor defines the interface for executing batched read-only
// contract calls against a node
type ReadCallExecutor interface {
	// ExecuteReadCalls runs the calls at the state of the given block and
	// returns one result per call, in the same order. Per-call failures are
	// reported through CallResult.Failed, not through the error return.
	ExecuteReadCalls(ctx context.Context, blockNumber uint64, calls []entity.ContractCall) ([]entity.CallResult, error)
}
