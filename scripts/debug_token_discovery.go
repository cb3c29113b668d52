package main

import (
	"bytes"
	"context"
	"time"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/service"
	"token-discovery-indexer/internal/infrastructure/blockchain"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

func main() {
	// Setup logger with debug level
	log, err := logger.NewLogger("debug", "development")
	if err != nil {
		panic(err)
	}
	log = log.WithComponent("discovery-debug")

	// Load config
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	// Evaluate the candidate filter against sample trace calls
	filter := service.NewCandidateFilterService(service.DefaultDeniedCallers, log)
	block := createTestBlock()

	log.Info("Evaluating sample trace calls",
		zap.Uint64("block_number", block.Number),
		zap.Int("tx_count", len(block.Transactions)))

	for _, tx := range block.Transactions {
		for i, call := range tx.Calls {
			candidate, skip := filter.Evaluate(call)
			if candidate == nil {
				log.Info("Call skipped",
					zap.Int("call_number", i+1),
					zap.String("tx_hash", tx.Hash),
					zap.String("reason", string(skip)))
				continue
			}

			log.Info("Call accepted as candidate",
				zap.Int("call_number", i+1),
				zap.String("tx_hash", tx.Hash),
				zap.String("address", entity.AddressHex(candidate.Address)),
				zap.String("origin", string(candidate.Origin)))
		}
	}

	// Decode canned metadata return data
	testReturnDataDecoding(log)

	// Test metadata resolution against the configured RPC endpoint
	log.Info("Testing live metadata resolution...")
	if err := testMetadataResolution(cfg, log); err != nil {
		log.Error("Metadata resolution test failed", zap.Error(err))
	} else {
		log.Info("Metadata resolution test completed successfully")
	}
}

func createTestBlock() *entity.Block {
	tokenCode := bytes.Repeat([]byte{0x60}, 200)
	smallCode := bytes.Repeat([]byte{0x60}, 60)
	initInput := append([]byte{0x14, 0x59, 0x45, 0x7a}, make([]byte, 64)...)
	transferInput := append([]byte{0xa9, 0x05, 0x9c, 0xbb}, make([]byte, 64)...)

	deployer := common.HexToAddress("0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d")

	return &entity.Block{
		Number: 18439123,
		Hash:   "0x9b83c12c69edb74f6c8dd5d052765c1adf940e320bd1291696e6fa07829eee71",
		Transactions: []*entity.Transaction{
			{
				Hash: "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef",
				Calls: []*entity.Call{
					// Plausible token deployment
					{
						Address:     common.HexToAddress("0xa0b86a33e6b06b1c3aae5e6a3e7b5c5d6fc8f4c0"),
						Caller:      deployer,
						Kind:        entity.CallKindCreate,
						CodeChanges: []entity.CodeChange{{NewCode: hexutil.Bytes(tokenCode)}},
					},
					// Deployment too small to be a token
					{
						Address:     common.HexToAddress("0xb1c97a44f7c17c2d4bbf6f7a4f8c6d7e8f9a0b1c"),
						Caller:      deployer,
						Kind:        entity.CallKindCreate,
						CodeChanges: []entity.CodeChange{{NewCode: hexutil.Bytes(smallCode)}, {NewCode: hexutil.Bytes(smallCode)}},
					},
					// Proxy initialization
					{
						Address: common.HexToAddress("0xc2d8ab55f8c28c3e5ccf7f8b5f9d7e8f0a1b2c3d"),
						Caller:  deployer,
						Kind:    entity.CallKindCall,
						Input:   hexutil.Bytes(initInput),
					},
					// Plain call with an unrelated selector
					{
						Address: common.HexToAddress("0xc2d8ab55f8c28c3e5ccf7f8b5f9d7e8f0a1b2c3d"),
						Caller:  deployer,
						Kind:    entity.CallKindCall,
						Input:   hexutil.Bytes(transferInput),
					},
					// Reverted deployment
					{
						Address:       common.HexToAddress("0xd3e9bc66a9d39d4f6dda8a9c6a0e8f9b1c2d3e4f"),
						Caller:        deployer,
						Kind:          entity.CallKindCreate,
						StateReverted: true,
						CodeChanges:   []entity.CodeChange{{NewCode: hexutil.Bytes(tokenCode)}},
					},
					// Deployment from a denied factory
					{
						Address:     common.HexToAddress("0xe4f0cd77b0e40e507eeb9b0d7b1f9a0c2d3e4f5a"),
						Caller:      service.DefaultDeniedCallers[0],
						Kind:        entity.CallKindCreate,
						CodeChanges: []entity.CodeChange{{NewCode: hexutil.Bytes(tokenCode)}},
					},
				},
			},
		},
	}
}

func testReturnDataDecoding(log *logger.Logger) {
	// ABI-encoded string "Wrapped Ether": offset word, length word, payload
	nameData := make([]byte, 96)
	nameData[31] = 0x20
	nameData[63] = 13
	copy(nameData[64:], "Wrapped Ether")

	name, err := blockchain.DecodeString(nameData)
	if err != nil {
		log.Error("Failed to decode name fixture", zap.Error(err))
	} else {
		log.Info("Decoded name fixture", zap.String("name", name))
	}

	decimalsData := make([]byte, 32)
	decimalsData[31] = 18

	decimals, err := blockchain.DecodeUint32(decimalsData)
	if err != nil {
		log.Error("Failed to decode decimals fixture", zap.Error(err))
	} else {
		log.Info("Decoded decimals fixture", zap.Uint32("decimals", decimals))
	}
}

func testMetadataResolution(cfg *config.Config, log *logger.Logger) error {
	client, err := blockchain.NewEthereumClient(&cfg.RPC, log)
	if err != nil {
		return err
	}
	defer client.Close()

	// WETH has well-known metadata, probe it at a fixed mainnet block
	weth := common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	calls := []entity.ContractCall{
		blockchain.NewReadCall(weth, blockchain.SelectorName),
		blockchain.NewReadCall(weth, blockchain.SelectorSymbol),
		blockchain.NewReadCall(weth, blockchain.SelectorDecimals),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	results, err := client.ExecuteReadCalls(ctx, 18000000, calls)
	if err != nil {
		return err
	}

	labels := []string{"name", "symbol", "decimals"}
	for i, result := range results {
		if result.Failed {
			log.Warn("Metadata call failed", zap.String("field", labels[i]))
			continue
		}

		switch labels[i] {
		case "decimals":
			value, err := blockchain.DecodeUint32(result.Raw)
			if err != nil {
				log.Error("Failed to decode decimals", zap.Error(err))
				continue
			}
			log.Info("Resolved metadata field",
				zap.String("field", labels[i]),
				zap.Uint32("value", value))
		default:
			value, err := blockchain.DecodeString(result.Raw)
			if err != nil {
				log.Error("Failed to decode string field",
					zap.String("field", labels[i]),
					zap.Error(err))
				continue
			}
			log.Info("Resolved metadata field",
				zap.String("field", labels[i]),
				zap.String("value", value))
		}
	}

	return nil
}
