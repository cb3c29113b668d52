package blockchain

import (
	"context"
	"fmt"
	"time"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// callArgs is the eth_call parameter object.
type callArgs struct {
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// EthereumClient executes batched read calls over JSON-RPC
type EthereumClient struct {
	rpc     *rpc.Client
	timeout time.Duration
	logger  *logger.Logger
}

// NewEthereumClient dials the configured RPC endpoint
func NewEthereumClient(cfg *config.RPCConfig, logger *logger.Logger) (*EthereumClient, error) {
	client, err := rpc.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	return &EthereumClient{
		rpc:     client,
		timeout: cfg.Timeout,
		logger:  logger.WithComponent("ethereum-client"),
	}, nil
}

// ExecuteReadCalls runs the calls as a single JSON-RPC batch pinned to the
// state of the given block. A transport failure marks every call failed
// rather than surfacing an error; only cancellation of the caller's context
// aborts.
func (c *EthereumClient) ExecuteReadCalls(ctx context.Context, blockNumber uint64, calls []entity.ContractCall) ([]entity.CallResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	blockTag := hexutil.EncodeUint64(blockNumber)
	batch := make([]rpc.BatchElem, len(calls))
	raws := make([]hexutil.Bytes, len(calls))
	for i, call := range calls {
		to := call.To
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs{To: &to, Data: call.Data}, blockTag},
			Result: &raws[i],
		}
	}

	if err := c.rpc.BatchCallContext(callCtx, batch); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("Batch eth_call failed",
			zap.Uint64("block_number", blockNumber),
			zap.Int("call_count", len(calls)),
			zap.Error(err))

		results := make([]entity.CallResult, len(calls))
		for i := range results {
			results[i] = entity.CallResult{Failed: true}
		}
		return results, nil
	}

	results := make([]entity.CallResult, len(calls))
	for i := range batch {
		if batch[i].Error != nil {
			results[i] = entity.CallResult{Failed: true}
			continue
		}
		results[i] = entity.CallResult{Raw: raws[i]}
	}

	return results, nil
}

// Close releases the RPC connection
func (c *EthereumClient) Close() {
	c.rpc.Close()
}
