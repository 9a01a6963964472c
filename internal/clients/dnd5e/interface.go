package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e . Client

import (
	"context"
)

// Client fetches SRD monsters for the roster
type Client interface {
	GetMonster(ctx context.Context, key string) (*Monster, error)

	// GetMonsters fetches several monsters concurrently, keeping the order of keys
	GetMonsters(ctx context.Context, keys []string) ([]*Monster, error)
}
