package service

import (
	"context"
	"errors"
	"testing"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDiscovery struct {
	discoveries []*entity.TokenDiscovery
	err         error
}

func (s *stubDiscovery) DiscoverTokens(ctx context.Context, block *entity.Block) ([]*entity.TokenDiscovery, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.discoveries, nil
}

type recordingStore struct {
	saved   []*entity.Token
	failFor string
}

func (r *recordingStore) SaveToken(ctx context.Context, token *entity.Token) error {
	if r.failFor != "" && token.Address == r.failFor {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, token)
	return nil
}

func (r *recordingStore) GetToken(ctx context.Context, address string) (*entity.Token, error) {
	for _, token := range r.saved {
		if token.Address == address {
			return token, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (r *recordingStore) ListTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	if limit > 0 && limit < len(r.saved) {
		return r.saved[:limit], nil
	}
	return r.saved, nil
}

func (r *recordingStore) Close() error { return nil }

type recordingGraph struct {
	recorded []*entity.TokenDiscovery
	err      error
}

func (r *recordingGraph) RecordDiscovery(ctx context.Context, discovery *entity.TokenDiscovery) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, discovery)
	return nil
}

func (r *recordingGraph) GetTokensByDeployer(ctx context.Context, deployer string, limit int) ([]*entity.Token, error) {
	var tokens []*entity.Token
	for _, discovery := range r.recorded {
		if discovery.Deployer == deployer {
			tokens = append(tokens, discovery.Token)
		}
	}
	return tokens, nil
}

func (r *recordingGraph) GetDeployerStats(ctx context.Context, deployer string) (*entity.DeployerStats, error) {
	stats := &entity.DeployerStats{Address: deployer}
	for _, discovery := range r.recorded {
		if discovery.Deployer == deployer {
			stats.TokenCount++
		}
	}
	return stats, nil
}

func (r *recordingGraph) GetRecentTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	var tokens []*entity.Token
	for _, discovery := range r.recorded {
		tokens = append(tokens, discovery.Token)
	}
	return tokens, nil
}

type recordingSink struct {
	batches [][]*entity.TokenDiscovery
	err     error
	closed  bool
}

func (r *recordingSink) WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, discoveries)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func sampleDiscoveries() []*entity.TokenDiscovery {
	return []*entity.TokenDiscovery{
		{
			Token:       entity.NewToken(common.HexToAddress("0x0000000000000000000000000000000000000a01"), "First", "ONE", 18),
			Deployer:    "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d",
			BlockNumber: 42,
			TxHash:      "0xt1",
			Origin:      entity.OriginContractCreation,
		},
		{
			Token:       entity.NewToken(common.HexToAddress("0x0000000000000000000000000000000000000a02"), "Second", "TWO", 6),
			Deployer:    "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d",
			BlockNumber: 42,
			TxHash:      "0xt2",
			Origin:      entity.OriginProxyInitialization,
		},
	}
}

func TestProcessBlockRoutesDiscoveries(t *testing.T) {
	discoveries := sampleDiscoveries()
	store := &recordingStore{}
	graph := &recordingGraph{}
	out := &recordingSink{}

	processor := NewDiscoveryApplicationService(&stubDiscovery{discoveries: discoveries}, store, graph, out, logger.NewNopLogger())

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.Equal(t, discoveries[0].Token, store.saved[0])
	assert.Equal(t, discoveries[1].Token, store.saved[1])

	require.Len(t, graph.recorded, 2)

	require.Len(t, out.batches, 1)
	assert.Equal(t, discoveries, out.batches[0])
}

func TestProcessBlockNoDiscoveries(t *testing.T) {
	store := &recordingStore{}
	out := &recordingSink{}

	processor := NewDiscoveryApplicationService(&stubDiscovery{}, store, nil, out, logger.NewNopLogger())

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	require.NoError(t, err)
	assert.Empty(t, store.saved)
	assert.Empty(t, out.batches)
}

func TestProcessBlockDiscoveryFailure(t *testing.T) {
	processor := NewDiscoveryApplicationService(
		&stubDiscovery{err: errors.New("node unreachable")},
		&recordingStore{}, nil, &recordingSink{},
		logger.NewNopLogger(),
	)

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	assert.ErrorContains(t, err, "node unreachable")
}

func TestProcessBlockStoreFailureIsFatal(t *testing.T) {
	discoveries := sampleDiscoveries()
	store := &recordingStore{failFor: discoveries[0].Token.Address}
	out := &recordingSink{}

	processor := NewDiscoveryApplicationService(&stubDiscovery{discoveries: discoveries}, store, nil, out, logger.NewNopLogger())

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	assert.Error(t, err)
	assert.Empty(t, out.batches)
}

func TestProcessBlockGraphFailureIsNotFatal(t *testing.T) {
	discoveries := sampleDiscoveries()
	store := &recordingStore{}
	graph := &recordingGraph{err: errors.New("neo4j down")}
	out := &recordingSink{}

	processor := NewDiscoveryApplicationService(&stubDiscovery{discoveries: discoveries}, store, graph, out, logger.NewNopLogger())

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	require.NoError(t, err)

	assert.Len(t, store.saved, 2)
	require.Len(t, out.batches, 1)
	assert.Len(t, out.batches[0], 2)
}

func TestProcessBlockWithoutGraph(t *testing.T) {
	store := &recordingStore{}
	out := &recordingSink{}

	processor := NewDiscoveryApplicationService(&stubDiscovery{discoveries: sampleDiscoveries()}, store, nil, out, logger.NewNopLogger())

	require.NoError(t, processor.ProcessBlock(context.Background(), &entity.Block{Number: 42}))
	assert.Len(t, store.saved, 2)
}

func TestProcessBlockSinkFailureIsFatal(t *testing.T) {
	store := &recordingStore{}
	out := &recordingSink{err: errors.New("broker rejected batch")}

	processor := NewDiscoveryApplicationService(&stubDiscovery{discoveries: sampleDiscoveries()}, store, nil, out, logger.NewNopLogger())

	err := processor.ProcessBlock(context.Background(), &entity.Block{Number: 42})
	assert.ErrorContains(t, err, "broker rejected batch")
	assert.Len(t, store.saved, 2)
}
