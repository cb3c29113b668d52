package storage

import (
	"context"
	"path/filepath"
	"testing"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) (repository.TokenRepository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tokens.db")
	store, err := NewBoltTokenStore(&config.StoreConfig{Path: path}, logger.NewNopLogger())
	require.NoError(t, err)

	return store, path
}

func testToken(hexAddr, name, symbol string, decimals uint64) *entity.Token {
	return entity.NewToken(common.HexToAddress(hexAddr), name, symbol, decimals)
}

func TestSaveAndGetToken(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	token := testToken("0xA0b86a33E6b06B1C3aAe5E6A3E7b5c5d6fC8F4C0", "Test Token", "TEST", 18)
	require.NoError(t, store.SaveToken(context.Background(), token))

	got, err := store.GetToken(context.Background(), token.Address)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	// Lookups are case-insensitive on the address
	got, err = store.GetToken(context.Background(), "0xA0B86A33E6B06B1C3AAE5E6A3E7B5C5D6FC8F4C0")
	require.NoError(t, err)
	assert.Equal(t, token.Address, got.Address)
}

func TestGetTokenNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	_, err := store.GetToken(context.Background(), "0x0000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestSaveTokenLastWriteWins(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	addr := "0xa0b86a33e6b06b1c3aae5e6a3e7b5c5d6fc8f4c0"
	require.NoError(t, store.SaveToken(context.Background(), testToken(addr, "First Name", "ONE", 18)))
	require.NoError(t, store.SaveToken(context.Background(), testToken(addr, "Second Name", "TWO", 6)))

	got, err := store.GetToken(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "Second Name", got.Name)
	assert.Equal(t, "TWO", got.Symbol)
	assert.Equal(t, uint64(6), got.Decimals)

	tokens, err := store.ListTokens(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestListTokens(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	seed := []*entity.Token{
		testToken("0x0000000000000000000000000000000000000c03", "Gamma", "GMA", 18),
		testToken("0x0000000000000000000000000000000000000c01", "Alpha", "ALP", 18),
		testToken("0x0000000000000000000000000000000000000c02", "Beta", "BET", 18),
	}
	for _, token := range seed {
		require.NoError(t, store.SaveToken(context.Background(), token))
	}

	tokens, err := store.ListTokens(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	// Key order is address order
	assert.Equal(t, "Alpha", tokens[0].Name)
	assert.Equal(t, "Beta", tokens[1].Name)
	assert.Equal(t, "Gamma", tokens[2].Name)

	limited, err := store.ListTokens(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Alpha", limited[0].Name)
	assert.Equal(t, "Beta", limited[1].Name)
}

func TestStoreKeysOnDisk(t *testing.T) {
	store, path := newTestStore(t)

	token := testToken("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "Wrapped Ether", "WETH", 18)
	require.NoError(t, store.SaveToken(context.Background(), token))
	require.NoError(t, store.Close())

	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte("tokens"))
		require.NotNil(t, bucket)

		value := bucket.Get([]byte("token:0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"))
		require.NotNil(t, value)
		assert.Contains(t, string(value), `"symbol":"WETH"`)
		return nil
	})
	require.NoError(t, err)
}

func TestTokensSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	cfg := &config.StoreConfig{Path: path}

	store, err := NewBoltTokenStore(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	token := testToken("0xa0b86a33e6b06b1c3aae5e6a3e7b5c5d6fc8f4c0", "Durable", "DUR", 18)
	require.NoError(t, store.SaveToken(context.Background(), token))
	require.NoError(t, store.Close())

	reopened, err := NewBoltTokenStore(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetToken(context.Background(), token.Address)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}
