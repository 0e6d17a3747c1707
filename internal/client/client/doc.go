// Package client bootstraps local persistence for the bimio CLI: it opens the
// SQLite cache database and applies the embedded goose migrations
// (InitDatabase, RunMigrations).
package client
