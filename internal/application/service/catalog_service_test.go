package service

import (
	"context"
	"testing"

	"token-discovery-indexer/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogGetToken(t *testing.T) {
	store := &recordingStore{}
	for _, discovery := range sampleDiscoveries() {
		require.NoError(t, store.SaveToken(context.Background(), discovery.Token))
	}
	catalog := NewCatalogService(store, nil)

	token, err := catalog.GetToken(context.Background(), "0x0000000000000000000000000000000000000a01")
	require.NoError(t, err)
	assert.Equal(t, "First", token.Name)

	_, err = catalog.GetToken(context.Background(), "0x0000000000000000000000000000000000000bad")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestCatalogListTokens(t *testing.T) {
	store := &recordingStore{}
	for _, discovery := range sampleDiscoveries() {
		require.NoError(t, store.SaveToken(context.Background(), discovery.Token))
	}
	catalog := NewCatalogService(store, nil)

	tokens, err := catalog.ListTokens(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestCatalogDeployerQueriesNeedGraph(t *testing.T) {
	catalog := NewCatalogService(&recordingStore{}, nil)

	_, err := catalog.GetTokensByDeployer(context.Background(), "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d", 10)
	assert.ErrorIs(t, err, ErrGraphDisabled)

	_, err = catalog.GetDeployerStats(context.Background(), "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d")
	assert.ErrorIs(t, err, ErrGraphDisabled)
}

func TestCatalogDeployerQueries(t *testing.T) {
	graph := &recordingGraph{}
	for _, discovery := range sampleDiscoveries() {
		require.NoError(t, graph.RecordDiscovery(context.Background(), discovery))
	}
	catalog := NewCatalogService(&recordingStore{}, graph)

	tokens, err := catalog.GetTokensByDeployer(context.Background(), "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d", 10)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	stats, err := catalog.GetDeployerStats(context.Background(), "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TokenCount)
}
