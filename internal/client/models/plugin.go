// Package models defines client-side data models used by the bimio CLI.
package models

import "time"

// Plugin is one entry of the account's plugin list.
type Plugin struct {
	ID   string
	Name string
}

// PluginList is what the list command shows. Cached is set when the server
// could not be reached and the list comes from the local cache, which was
// last refreshed at SyncedAt.
type PluginList struct {
	Plugins  []Plugin
	Cached   bool
	SyncedAt time.Time
}
