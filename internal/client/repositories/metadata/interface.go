package metadata

import (
	"context"
)

// Well-known keys.
const (
	// KeyPluginsSyncedAt is the RFC 3339 time of the last successful list.
	KeyPluginsSyncedAt = "plugins.synced_at"
	// KeyPluginsOwner is the account the cached plugin list belongs to.
	KeyPluginsOwner = "plugins.owner"
)

// Repository is a small key/value store next to the cached data.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
