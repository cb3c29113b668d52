package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appservice "token-discovery-indexer/internal/application/service"
	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalogStore struct {
	tokens []*entity.Token
}

func (s *stubCatalogStore) SaveToken(ctx context.Context, token *entity.Token) error {
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *stubCatalogStore) GetToken(ctx context.Context, address string) (*entity.Token, error) {
	for _, token := range s.tokens {
		if token.Address == address {
			return token, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (s *stubCatalogStore) ListTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	if limit > 0 && limit < len(s.tokens) {
		return s.tokens[:limit], nil
	}
	return s.tokens, nil
}

func (s *stubCatalogStore) Close() error { return nil }

type stubCatalogGraph struct {
	tokensByDeployer map[string][]*entity.Token
	stats            map[string]*entity.DeployerStats
}

func (g *stubCatalogGraph) RecordDiscovery(ctx context.Context, discovery *entity.TokenDiscovery) error {
	return nil
}

func (g *stubCatalogGraph) GetTokensByDeployer(ctx context.Context, deployer string, limit int) ([]*entity.Token, error) {
	return g.tokensByDeployer[deployer], nil
}

func (g *stubCatalogGraph) GetDeployerStats(ctx context.Context, deployer string) (*entity.DeployerStats, error) {
	if stats, ok := g.stats[deployer]; ok {
		return stats, nil
	}
	return &entity.DeployerStats{Address: deployer}, nil
}

func (g *stubCatalogGraph) GetRecentTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	return nil, nil
}

func newTestRouter(store repository.TokenRepository, graph repository.GraphRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	server := NewServer(&config.APIConfig{Enabled: true, Port: 0}, appservice.NewCatalogService(store, graph), logger.NewNopLogger())
	server.setupRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func seededStore() *stubCatalogStore {
	return &stubCatalogStore{tokens: []*entity.Token{
		entity.NewToken(common.HexToAddress("0x0000000000000000000000000000000000000a01"), "First", "ONE", 18),
		entity.NewToken(common.HexToAddress("0x0000000000000000000000000000000000000a02"), "Second", "TWO", 6),
	}}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubCatalogStore{}, nil)

	rec, body := doRequest(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "token-discovery-indexer", body["service"])
}

func TestListTokensEndpoint(t *testing.T) {
	router := newTestRouter(seededStore(), nil)

	rec, body := doRequest(t, router, "/api/v1/tokens")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
	require.Len(t, body["tokens"], 2)

	rec, body = doRequest(t, router, "/api/v1/tokens?limit=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestGetTokenEndpoint(t *testing.T) {
	router := newTestRouter(seededStore(), nil)

	rec, body := doRequest(t, router, "/api/v1/tokens/0x0000000000000000000000000000000000000a01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First", body["name"])
	assert.Equal(t, "ONE", body["symbol"])
	assert.EqualValues(t, 18, body["decimals"])

	rec, body = doRequest(t, router, "/api/v1/tokens/0x0000000000000000000000000000000000000bad")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "token not found", body["error"])
}

func TestDeployerEndpointsWithoutGraph(t *testing.T) {
	router := newTestRouter(seededStore(), nil)

	rec, body := doRequest(t, router, "/api/v1/deployers/0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d/tokens")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "deployment graph is disabled", body["error"])

	rec, body = doRequest(t, router, "/api/v1/deployers/0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d/stats")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "deployment graph is disabled", body["error"])
}

func TestDeployerEndpoints(t *testing.T) {
	deployer := "0x742d35cc6634c0532925a3b8d0c5d76c9c9f2a2d"
	graph := &stubCatalogGraph{
		tokensByDeployer: map[string][]*entity.Token{
			deployer: {entity.NewToken(common.HexToAddress("0x0000000000000000000000000000000000000a01"), "First", "ONE", 18)},
		},
		stats: map[string]*entity.DeployerStats{
			deployer: {Address: deployer, TokenCount: 1, FirstBlock: 42, LastBlock: 42},
		},
	}
	router := newTestRouter(&stubCatalogStore{}, graph)

	rec, body := doRequest(t, router, "/api/v1/deployers/"+deployer+"/tokens")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deployer, body["deployer"])
	assert.EqualValues(t, 1, body["count"])

	rec, body = doRequest(t, router, "/api/v1/deployers/"+deployer+"/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deployer, body["address"])
	assert.EqualValues(t, 1, body["token_count"])
}
