package database

import (
	"context"
	"fmt"
	"time"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4JGraphRepository implements GraphRepository using Neo4J
type Neo4JGraphRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JGraphRepository creates a new Neo4J graph repository
func NewNeo4JGraphRepository(client *Neo4JClient, logger *logger.Logger) repository.GraphRepository {
	return &Neo4JGraphRepository{
		client: client,
		logger: logger.WithComponent("neo4j-graph-repository"),
	}
}

// RecordDiscovery upserts the token node and its deployer relationship
func (r *Neo4JGraphRepository) RecordDiscovery(ctx context.Context, discovery *entity.TokenDiscovery) error {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MERGE (t:Token {address: $address})
		ON CREATE SET
			t.name = $name,
			t.symbol = $symbol,
			t.decimals = $decimals,
			t.block_number = $block_number,
			t.tx_hash = $tx_hash,
			t.origin = $origin,
			t.first_seen = $seen_at,
			t.last_seen = $seen_at
		ON MATCH SET
			t.name = $name,
			t.symbol = $symbol,
			t.decimals = $decimals,
			t.last_seen = $seen_at
		MERGE (d:Deployer {address: $deployer})
		MERGE (d)-[rel:DEPLOYED {tx_hash: $tx_hash}]->(t)
		ON CREATE SET
			rel.block_number = $block_number,
			rel.origin = $origin
	`

	parameters := map[string]interface{}{
		"address":      discovery.Token.Address,
		"name":         discovery.Token.Name,
		"symbol":       discovery.Token.Symbol,
		"decimals":     int64(discovery.Token.Decimals),
		"block_number": int64(discovery.BlockNumber),
		"tx_hash":      discovery.TxHash,
		"origin":       string(discovery.Origin),
		"deployer":     discovery.Deployer,
		"seen_at":      time.Now().Format("2006-01-02T15:04:05.000Z"),
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, parameters)
	})

	if err != nil {
		r.logger.Error("Failed to record token discovery",
			zap.String("address", discovery.Token.Address),
			zap.String("deployer", discovery.Deployer),
			zap.Error(err))
		return fmt.Errorf("failed to record token discovery: %w", err)
	}

	return nil
}

// GetTokensByDeployer retrieves tokens deployed or initialized by an address
func (r *Neo4JGraphRepository) GetTokensByDeployer(ctx context.Context, deployer string, limit int) ([]*entity.Token, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (d:Deployer {address: $deployer})-[rel:DEPLOYED]->(t:Token)
		RETURN t.address, t.name, t.symbol, t.decimals
		ORDER BY rel.block_number DESC
		LIMIT $limit
	`

	parameters := map[string]interface{}{
		"deployer": deployer,
		"limit":    limit,
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, parameters)
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by deployer: %w", err)
	}

	return collectTokens(ctx, result)
}

// GetRecentTokens retrieves the most recently discovered tokens
func (r *Neo4JGraphRepository) GetRecentTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (t:Token)
		RETURN t.address, t.name, t.symbol, t.decimals
		ORDER BY t.block_number DESC
		LIMIT $limit
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]interface{}{"limit": limit})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get recent tokens: %w", err)
	}

	return collectTokens(ctx, result)
}

// GetDeployerStats retrieves aggregate discovery stats for a deployer.
// An unknown deployer yields zero counts.
func (r *Neo4JGraphRepository) GetDeployerStats(ctx context.Context, deployer string) (*entity.DeployerStats, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (d:Deployer {address: $deployer})-[rel:DEPLOYED]->(t:Token)
		RETURN count(DISTINCT t), min(rel.block_number), max(rel.block_number)
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]interface{}{"deployer": deployer})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get deployer stats: %w", err)
	}

	stats := &entity.DeployerStats{Address: deployer}

	records := result.(neo4j.ResultWithContext)
	if !records.Next(ctx) {
		return stats, nil
	}

	values := records.Record().Values
	if count, ok := values[0].(int64); ok {
		stats.TokenCount = count
	}
	if first, ok := values[1].(int64); ok {
		stats.FirstBlock = uint64(first)
	}
	if last, ok := values[2].(int64); ok {
		stats.LastBlock = uint64(last)
	}

	return stats, nil
}

// collectTokens reads token rows from a query result
func collectTokens(ctx context.Context, result any) ([]*entity.Token, error) {
	var tokens []*entity.Token

	records := result.(neo4j.ResultWithContext)
	for records.Next(ctx) {
		values := records.Record().Values

		token := &entity.Token{
			Address: values[0].(string),
			Name:    values[1].(string),
			Symbol:  values[2].(string),
		}
		if decimals, ok := values[3].(int64); ok {
			token.Decimals = uint64(decimals)
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}
