package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/filex"
)

// DefaultPluginName is used when the server does not name the plugin.
const DefaultPluginName = "DownloadedPlugin"

// PluginNameHeader carries the plugin name on download responses.
const PluginNameHeader = "plugin-name"

// DownloadResult describes where a downloaded plugin went.
type DownloadResult struct {
	Name        string
	Dir         string
	Overwritten bool
}

// Download fetches the plugin archive into downloads/<id>.zip, unpacks it
// under the plugins directory and removes the archive. If a plugin with the
// same name exists, confirm decides between overwriting it and unpacking
// next to it as <name>-N.
func (s *pluginService) Download(ctx context.Context, pluginID string, confirm ConfirmFunc) (*DownloadResult, error) {
	root := s.pluginsRoot()
	if !filex.IsDir(root) {
		return nil, fmt.Errorf("%w: %s", ErrPluginsDirNotFound, root)
	}
	downloads, err := filex.EnsureSubDir(s.projectDir, "downloads")
	if err != nil {
		return nil, err
	}
	zipPath := filepath.Join(downloads, filepath.Base(pluginID)+".zip")

	resp, err := s.requester.Send(ctx, true, s.endpoints.Download, api.Request{
		Data:   map[string]string{"pluginId": pluginID},
		Stream: true,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if resp.Stream == nil {
		return nil, fmt.Errorf("%w: empty download", ErrUnexpectedResponse)
	}

	s.log.Info(ctx, "downloading plugin", "plugin_id", pluginID, "to", zipPath)
	if err := saveTo(zipPath, resp.Stream); err != nil {
		_ = os.Remove(zipPath)
		return nil, err
	}
	defer os.Remove(zipPath)

	name := pluginName(resp.Header.Get(PluginNameHeader))
	res := &DownloadResult{Name: name, Dir: filepath.Join(root, name)}
	if filex.Exists(res.Dir) {
		if confirm != nil && confirm(name) {
			res.Overwritten = true
		} else {
			res.Dir = filex.FreePath(res.Dir)
		}
	}

	s.log.Debug(ctx, "extracting plugin", "dir", res.Dir)
	if err := filex.Unzip(zipPath, res.Dir); err != nil {
		return nil, err
	}
	return res, nil
}

func saveTo(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// pluginName keeps only the last path element of the header value.
func pluginName(header string) string {
	name := filepath.Base(filepath.Clean("/" + header))
	if name == "/" || name == "." || name == string(filepath.Separator) {
		return DefaultPluginName
	}
	return name
}
