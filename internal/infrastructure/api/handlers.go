package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	appservice "token-discovery-indexer/internal/application/service"
	"token-discovery-indexer/internal/domain/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// healthCheck reports service liveness
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "token-discovery-indexer",
	})
}

// listTokens lists stored tokens
func (s *Server) listTokens(c *gin.Context) {
	limit := parseLimit(c)

	tokens, err := s.catalog.ListTokens(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// getToken retrieves a single token by address
func (s *Server) getToken(c *gin.Context) {
	address := c.Param("address")

	token, err := s.catalog.GetToken(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
			return
		}
		s.logger.Error("Failed to get token",
			zap.String("address", address),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get token"})
		return
	}

	c.JSON(http.StatusOK, token)
}

// getTokensByDeployer lists tokens attributed to a deployer address
func (s *Server) getTokensByDeployer(c *gin.Context) {
	deployer := c.Param("address")
	limit := parseLimit(c)

	tokens, err := s.catalog.GetTokensByDeployer(c.Request.Context(), deployer, limit)
	if err != nil {
		if errors.Is(err, appservice.ErrGraphDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "deployment graph is disabled"})
			return
		}
		s.logger.Error("Failed to get tokens by deployer",
			zap.String("deployer", deployer),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tokens by deployer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deployer": deployer,
		"tokens":   tokens,
		"count":    len(tokens),
	})
}

// getDeployerStats reports aggregate discovery stats for a deployer
func (s *Server) getDeployerStats(c *gin.Context) {
	deployer := c.Param("address")

	stats, err := s.catalog.GetDeployerStats(c.Request.Context(), deployer)
	if err != nil {
		if errors.Is(err, appservice.ErrGraphDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "deployment graph is disabled"})
			return
		}
		s.logger.Error("Failed to get deployer stats",
			zap.String("deployer", deployer),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get deployer stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// parseLimit reads the limit query parameter
func parseLimit(c *gin.Context) int {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	return limit
}
