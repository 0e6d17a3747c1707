// Package services contains application services for the bimio client.
// This file defines the plugin service: packaging, upload, download and the
// account's plugin list with its local cache.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hitbim/bimio/internal/apierr"
	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/client/models"
	"github.com/hitbim/bimio/internal/client/repositories/metadata"
	"github.com/hitbim/bimio/internal/client/repositories/plugins"
	"github.com/hitbim/bimio/internal/dbx"
	"github.com/hitbim/bimio/internal/logging"
	"github.com/hitbim/bimio/internal/tokens"
)

var (
	ErrPluginNotFound     = errors.New("plugin does not exist")
	ErrPluginsDirNotFound = errors.New("plugins directory does not exist")
	ErrNothingToUpload    = errors.New("nothing to upload")
	ErrRejected           = errors.New("server rejected the request")
	ErrUnexpectedResponse = errors.New("unexpected response from server")
	ErrCacheNotAvailable  = errors.New("no cached plugin list")
)

// PluginsDir is where plugins live inside a project.
var PluginsDir = filepath.Join("public", "PLUGINS")

// Requester sends authenticated API calls; auth.Requester implements it.
type Requester interface {
	Send(ctx context.Context, recursive bool, d api.Descriptor, req api.Request) (*api.Response, error)
}

// SessionReader exposes the stored session; tokens.Store implements it.
type SessionReader interface {
	Get() (*tokens.Record, error)
}

// ConfirmFunc is asked whether an existing plugin may be overwritten.
type ConfirmFunc func(pluginName string) bool

// PluginService defines the plugin operations of the CLI.
//
// Contract:
//   - Build: archive every plugin of the project into one zip.
//   - Upload / UploadAll: zip plugins and send them to the plugin server.
//   - Download: fetch a plugin by id and unpack it into the project.
//   - List: the account's plugins, from the cache when the server is down.
//   - ClearCache: forget the cached list (on logout).
type PluginService interface {
	Build(ctx context.Context) (string, error)
	Upload(ctx context.Context, name string, asNew bool) (*UploadResult, error)
	UploadAll(ctx context.Context, asNew bool) ([]*UploadResult, error)
	Download(ctx context.Context, pluginID string, confirm ConfirmFunc) (*DownloadResult, error)
	List(ctx context.Context) (*models.PluginList, error)
	ClearCache(ctx context.Context) error
}

// pluginService is the concrete PluginService. db may be nil, in which case
// the list is never cached.
type pluginService struct {
	requester  Requester
	session    SessionReader
	endpoints  api.Endpoints
	projectDir string
	db         *sql.DB
	log        logging.Logger
	now        func() time.Time
}

// NewPluginService constructs a PluginService working on the project at
// projectDir.
func NewPluginService(requester Requester, session SessionReader, endpoints api.Endpoints, projectDir string, db *sql.DB, log logging.Logger) PluginService {
	return &pluginService{
		requester:  requester,
		session:    session,
		endpoints:  endpoints,
		projectDir: projectDir,
		db:         db,
		log:        log,
		now:        time.Now,
	}
}

func (s *pluginService) pluginsRoot() string {
	return filepath.Join(s.projectDir, PluginsDir)
}

type listResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Value   *[]struct {
		Name string `json:"_plugin_name"`
		ID   rawID  `json:"_plugin_id"`
	} `json:"value"`
}

// List fetches the account's plugins and refreshes the cache. When the
// server cannot be reached, the cached list of the same account is returned
// with Cached set.
func (s *pluginService) List(ctx context.Context) (*models.PluginList, error) {
	resp, err := s.requester.Send(ctx, true, s.endpoints.List, api.Request{})
	if errors.Is(err, apierr.NoResponse) {
		cached, cerr := s.cachedList(ctx)
		if cerr != nil {
			s.log.Debug(ctx, "no usable plugin cache", "error", cerr)
			return nil, err
		}
		return cached, nil
	}
	if err != nil {
		return nil, err
	}

	var body listResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if body.Error {
		return nil, rejected(body.Message)
	}
	if body.Value == nil {
		return nil, fmt.Errorf("%w: no plugin list data", ErrUnexpectedResponse)
	}

	list := &models.PluginList{Plugins: make([]models.Plugin, 0, len(*body.Value)), SyncedAt: s.now()}
	for _, v := range *body.Value {
		list.Plugins = append(list.Plugins, models.Plugin{ID: string(v.ID), Name: v.Name})
	}

	if err := s.storeList(ctx, list); err != nil {
		s.log.Warn(ctx, "caching plugin list failed", "error", err)
	}
	return list, nil
}

func (s *pluginService) account() string {
	rec, err := s.session.Get()
	if err != nil || rec == nil {
		return ""
	}
	return rec.Email
}

func (s *pluginService) storeList(ctx context.Context, list *models.PluginList) error {
	if s.db == nil {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := plugins.NewSQLiteRepository(tx).ReplaceAll(ctx, list.Plugins); err != nil {
			return err
		}
		meta := metadata.NewSQLiteRepository(tx)
		if err := meta.Set(ctx, metadata.KeyPluginsOwner, s.account()); err != nil {
			return err
		}
		return meta.Set(ctx, metadata.KeyPluginsSyncedAt, list.SyncedAt.UTC().Format(time.RFC3339))
	})
}

func (s *pluginService) cachedList(ctx context.Context) (*models.PluginList, error) {
	if s.db == nil {
		return nil, ErrCacheNotAvailable
	}
	meta := metadata.NewSQLiteRepository(s.db)

	syncedAt, ok, err := meta.Get(ctx, metadata.KeyPluginsSyncedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCacheNotAvailable
	}
	owner, _, err := meta.Get(ctx, metadata.KeyPluginsOwner)
	if err != nil {
		return nil, err
	}
	if owner != s.account() {
		return nil, fmt.Errorf("%w: cached for another account", ErrCacheNotAvailable)
	}

	items, err := plugins.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	list := &models.PluginList{Plugins: items, Cached: true}
	list.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)
	return list, nil
}

// ClearCache forgets the cached plugin list.
func (s *pluginService) ClearCache(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := plugins.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
}

func rejected(message string) error {
	if message == "" {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, message)
}

// rawID is an id the server may send as a JSON string or number.
type rawID string

func (r *rawID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = rawID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = rawID(n.String())
	return nil
}
