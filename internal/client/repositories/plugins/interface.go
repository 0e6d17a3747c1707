package plugins

import (
	"context"

	"github.com/hitbim/bimio/internal/client/models"
)

// Repository holds the last plugin list fetched from the server.
type Repository interface {
	// ReplaceAll swaps the cached list for plugins. Run it inside a
	// transaction to keep readers from seeing a half-written list.
	ReplaceAll(ctx context.Context, plugins []models.Plugin) error

	// List returns the cached plugins ordered by name.
	List(ctx context.Context) ([]models.Plugin, error)

	// Clear drops the cached list.
	Clear(ctx context.Context) error
}
