package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/filex"
)

// UploadResult describes one uploaded plugin.
type UploadResult struct {
	Name string
	ID   string
	// Updated is set when an existing plugin was replaced rather than a new
	// one created.
	Updated bool
	// IDSaved is false when the id could not be written to config.json.
	IDSaved bool
}

type uploadResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    *struct {
		ID rawID `json:"id"`
	} `json:"data"`
}

// Build archives the whole plugins directory into build/plugins-build-N.zip
// and returns the archive path.
func (s *pluginService) Build(ctx context.Context) (string, error) {
	root := s.pluginsRoot()
	if !filex.IsDir(root) {
		return "", fmt.Errorf("%w: %s", ErrPluginsDirNotFound, root)
	}
	buildDir, err := filex.EnsureSubDir(s.projectDir, "build")
	if err != nil {
		return "", err
	}

	n := 0
	for filex.Exists(filepath.Join(buildDir, "plugins-build-"+strconv.Itoa(n)+".zip")) {
		n++
	}
	archive := filepath.Join(buildDir, "plugins-build-"+strconv.Itoa(n)+".zip")

	s.log.Debug(ctx, "building plugins", "src", root, "dst", archive)
	if err := filex.ZipDir(root, archive); err != nil {
		return "", err
	}
	return archive, nil
}

// Upload zips the plugin and sends it. Without asNew a plugin that already
// carries an id in its config.json is updated in place.
func (s *pluginService) Upload(ctx context.Context, name string, asNew bool) (*UploadResult, error) {
	dir := filepath.Join(s.pluginsRoot(), name)
	if name == "" || !filex.IsDir(dir) {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, dir)
	}

	buildDir, err := filex.EnsureSubDir(s.projectDir, "build")
	if err != nil {
		return nil, err
	}
	archive := filepath.Join(buildDir, name+".zip")

	s.log.Info(ctx, "archiving plugin", "plugin", name)
	if err := filex.ZipDir(dir, archive); err != nil {
		return nil, err
	}

	if asNew {
		if err := setPluginID(dir, ""); err != nil && !errors.Is(err, errNoPluginConfig) {
			s.log.Warn(ctx, "clearing plugin id failed", "plugin", name, "error", err)
		}
	}
	id := ""
	if !asNew {
		if id, err = pluginID(dir); err != nil {
			s.log.Warn(ctx, "reading plugin id failed", "plugin", name, "error", err)
		}
	}

	body, contentType, err := multipartBody(archive, name, id)
	if err != nil {
		return nil, err
	}

	d := s.endpoints.Upload
	if id != "" {
		d = s.endpoints.Update
	}

	s.log.Info(ctx, "uploading plugin", "plugin", name, "plugin_id", id)
	resp, err := s.requester.Send(ctx, true, d, api.Request{
		Raw:     body,
		Headers: map[string]string{"Content-Type": contentType},
	})
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if out.Error {
		return nil, rejected(out.Message)
	}
	if out.Data == nil || out.Data.ID == "" {
		return nil, fmt.Errorf("%w: no plugin id", ErrUnexpectedResponse)
	}

	res := &UploadResult{Name: name, ID: string(out.Data.ID), Updated: id != "", IDSaved: true}
	if err := setPluginID(dir, res.ID); err != nil {
		s.log.Warn(ctx, "setting up plugin id failed", "plugin", name, "error", err)
		res.IDSaved = false
	}
	return res, nil
}

// UploadAll uploads every plugin directory of the project. It keeps going
// after a failure and returns the failures joined.
func (s *pluginService) UploadAll(ctx context.Context, asNew bool) ([]*UploadResult, error) {
	root := s.pluginsRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPluginsDirNotFound, root)
	}

	var (
		results []*UploadResult
		errs    []error
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.Upload(ctx, e.Name(), asNew)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 && len(errs) == 0 {
		return nil, ErrNothingToUpload
	}
	return results, errors.Join(errs...)
}

// multipartBody builds the form with the archive, the plugin name and, when
// known, the plugin id.
func multipartBody(archive, name, id string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filepath.Base(archive))
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(archive)
	if err != nil {
		return nil, "", err
	}
	_, err = io.Copy(fw, f)
	f.Close()
	if err != nil {
		return nil, "", err
	}

	if err := mw.WriteField("pluginName", name); err != nil {
		return nil, "", err
	}
	if id != "" {
		if err := mw.WriteField("pluginId", id); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
