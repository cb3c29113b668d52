package repository

import (
	"context"
	"errors"

	"token-discovery-indexer/internal/domain/entity"
)

// ErrTokenNotFound is returned when a token is absent from the store.
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository defines the interface for the token KV store
type TokenRepository interface {
	// SaveToken persists a token, overwriting any previous record
	// for the same address
	SaveToken(ctx context.Context, token *entity.Token) error

	// GetToken retrieves a token by its lowercase hex address
	GetToken(ctx context.Context, address string) (*entity.Token, error)

	// ListTokens returns up to limit stored tokens in key order;
	// limit <= 0 returns all of them
	ListTokens(ctx context.Context, limit int) ([]*entity.Token, error)

	// Close releases the underlying store
	Close() error
}
