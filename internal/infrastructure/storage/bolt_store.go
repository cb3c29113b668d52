package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/repository"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const tokensBucket = "tokens"

// BoltTokenStore implements TokenRepository on an embedded bbolt database.
// Tokens live under "token:<address>" keys; a later write for the same
// address replaces the earlier one.
type BoltTokenStore struct {
	db     *bolt.DB
	logger *logger.Logger
}

// NewBoltTokenStore opens (or creates) the store at the configured path
func NewBoltTokenStore(cfg *config.StoreConfig, logger *logger.Logger) (repository.TokenRepository, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(cfg.Path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(tokensBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tokens bucket: %w", err)
	}

	return &BoltTokenStore{
		db:     db,
		logger: logger.WithComponent("bolt-token-store"),
	}, nil
}

// SaveToken persists a token, overwriting any previous record for the
// same address
func (s *BoltTokenStore) SaveToken(ctx context.Context, token *entity.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token %s: %w", token.Address, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokensBucket))
		return bucket.Put([]byte(token.StoreKey()), data)
	})
	if err != nil {
		s.logger.Error("Failed to save token",
			zap.String("address", token.Address),
			zap.Error(err))
		return fmt.Errorf("failed to save token %s: %w", token.Address, err)
	}

	s.logger.Debug("Saved token",
		zap.String("key", token.StoreKey()),
		zap.String("symbol", token.Symbol))
	return nil
}

// GetToken retrieves a token by its lowercase hex address
func (s *BoltTokenStore) GetToken(ctx context.Context, address string) (*entity.Token, error) {
	key := "token:" + strings.ToLower(address)

	var token *entity.Token
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokensBucket))
		data := bucket.Get([]byte(key))
		if data == nil {
			return repository.ErrTokenNotFound
		}

		token = &entity.Token{}
		return json.Unmarshal(data, token)
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// ListTokens returns up to limit stored tokens in key order; limit <= 0
// returns all of them
func (s *BoltTokenStore) ListTokens(ctx context.Context, limit int) ([]*entity.Token, error) {
	var tokens []*entity.Token
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokensBucket))
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if limit > 0 && len(tokens) >= limit {
				return nil
			}

			token := &entity.Token{}
			if err := json.Unmarshal(v, token); err != nil {
				return fmt.Errorf("failed to unmarshal token at key %s: %w", k, err)
			}
			tokens = append(tokens, token)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// Close releases the underlying store
func (s *BoltTokenStore) Close() error {
	return s.db.Close()
}
