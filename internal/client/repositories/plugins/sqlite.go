// Package plugins caches the account's plugin list in the local SQLite
// database so that `bimio list` still answers when the server is down.
package plugins

import (
	"context"
	"fmt"

	"github.com/hitbim/bimio/internal/client/models"
	"github.com/hitbim/bimio/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, plugins []models.Plugin) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}
	for _, p := range plugins {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO plugins (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, p.ID, p.Name)
		if err != nil {
			return fmt.Errorf("failed to insert plugin %s: %w", p.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Plugin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM plugins ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select plugins: %w", err)
	}
	defer rows.Close()

	var result []models.Plugin
	for rows.Next() {
		var p models.Plugin
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan plugin row: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plugin rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plugins`); err != nil {
		return fmt.Errorf("failed to clear plugins: %w", err)
	}
	return nil
}
