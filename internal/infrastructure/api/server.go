package api

import (
	"context"
	"fmt"
	"net/http"

	appservice "token-discovery-indexer/internal/application/service"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the token catalog over HTTP
type Server struct {
	catalog *appservice.CatalogService
	logger  *logger.Logger
	server  *http.Server
	port    int
}

// NewServer creates a new catalog API server
func NewServer(cfg *config.APIConfig, catalog *appservice.CatalogService, logger *logger.Logger) *Server {
	return &Server{
		catalog: catalog,
		logger:  logger.WithComponent("catalog-api"),
		port:    cfg.Port,
	}
}

// Start starts serving in the background
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: router,
	}

	s.logger.Info("Starting catalog API server", zap.Int("port", s.port))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Catalog API server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping catalog API server")
	return s.server.Shutdown(ctx)
}

// setupRoutes sets up the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.healthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/tokens", s.listTokens)
		api.GET("/tokens/:address", s.getToken)
		api.GET("/deployers/:address/tokens", s.getTokensByDeployer)
		api.GET("/deployers/:address/stats", s.getDeployerStats)
	}
}
