package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// pluginConfigFile is the per-plugin descriptor; the server-assigned id is
// kept under plugin.pluginid.
const pluginConfigFile = "config.json"

var errNoPluginConfig = errors.New("config.json does not exist")

// readPluginConfig returns the decoded config.json of the plugin at dir.
func readPluginConfig(dir string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(dir, pluginConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNoPluginConfig
	}
	if err != nil {
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pluginConfigFile, err)
	}
	return cfg, nil
}

// pluginID reads plugin.pluginid; a missing file or key yields "".
func pluginID(dir string) (string, error) {
	cfg, err := readPluginConfig(dir)
	if errors.Is(err, errNoPluginConfig) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	plugin, _ := cfg["plugin"].(map[string]any)
	switch id := plugin["pluginid"].(type) {
	case string:
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	default:
		return "", nil
	}
}

// setPluginID writes plugin.pluginid back, keeping every other key.
func setPluginID(dir, id string) error {
	cfg, err := readPluginConfig(dir)
	if err != nil {
		return err
	}
	plugin, ok := cfg["plugin"].(map[string]any)
	if !ok {
		plugin = map[string]any{}
		cfg["plugin"] = plugin
	}
	plugin["pluginid"] = id

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pluginConfigFile), data, 0o644)
}
