// Package auth sends requests on behalf of the logged-in user.
//
// Requester attaches the stored access token, and when the server answers
// 401 it refreshes the token once and repeats the request once. A 403 or a
// failed refresh destroys the local session, so a dead credential is never
// presented twice.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitbim/bimio/internal/apierr"
	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/logging"
	"github.com/hitbim/bimio/internal/tokens"
)

// TokenStore is the subset of tokens.Store the requester needs.
type TokenStore interface {
	Get() (*tokens.Record, error)
	Set(rec tokens.Record) error
	Remove() (bool, error)
}

// Requester is the authenticated request orchestrator.
type Requester struct {
	sender  api.Sender
	store   TokenStore
	refresh api.Descriptor
	log     logging.Logger
}

// NewRequester wires a Requester. refresh is the endpoint used to mint new
// access tokens.
func NewRequester(sender api.Sender, store TokenStore, refresh api.Descriptor, log logging.Logger) *Requester {
	return &Requester{sender: sender, store: store, refresh: refresh, log: log}
}

// Send performs an authenticated call. With recursive set, a 401 triggers one
// refresh followed by one more attempt; without it a 401 is returned as
// apierr.TokenExpired. On success the raw response is returned; every failure
// is an *apierr.Error.
func (r *Requester) Send(ctx context.Context, recursive bool, d api.Descriptor, req api.Request) (*api.Response, error) {
	rec, err := r.store.Get()
	if err != nil {
		r.log.Error(ctx, "reading session failed", "error", err)
		return nil, apierr.InternalError.WithDetails(err.Error())
	}
	if rec == nil || rec.AccessToken == "" {
		return nil, apierr.RequiredAuth
	}

	resp, err := r.attempt(ctx, rec.AccessToken, d, req)
	if !errors.Is(err, apierr.TokenExpired) {
		return resp, err
	}
	if !recursive {
		return nil, err
	}

	accessToken := r.Refresh(ctx)
	if accessToken == "" {
		return nil, apierr.RequiredAuth
	}

	// second and last attempt; another 401 comes back as TokenExpired
	r.log.Debug(ctx, "retrying with refreshed token", "url", d.URL())
	return r.attempt(ctx, accessToken, d, req)
}

// attempt makes one call with the given token and classifies the outcome.
func (r *Requester) attempt(ctx context.Context, accessToken string, d api.Descriptor, req api.Request) (*api.Response, error) {
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + accessToken
	req.Headers = headers

	resp, err := r.sender.Send(ctx, d, req)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.InternalError.WithDetails(err.Error())
	}

	ae := apierr.FromStatus(resp.Status, resp.StatusText, nil)
	if ae == nil {
		return resp, nil
	}

	// failed responses end here, streams included
	if resp.Stream != nil {
		_ = resp.Close()
	} else if ae.Kind == apierr.KindOther {
		ae = apierr.New(resp.Status, resp.StatusText, resp.Payload())
	}

	if errors.Is(ae, apierr.InvalidAuth) {
		r.log.Warn(ctx, "server rejected the session, removing local tokens")
		if _, err := r.store.Remove(); err != nil {
			r.log.Error(ctx, "removing tokens failed", "error", err)
		}
	}
	return nil, ae
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Refresh trades the stored refresh token for a new access token, stores it
// and returns it. It returns "" when there is nothing to refresh or the
// refresh failed; in the latter case the local session is removed.
func (r *Requester) Refresh(ctx context.Context) string {
	rec, err := r.store.Get()
	if err != nil {
		r.log.Error(ctx, "reading session failed", "error", err)
		return ""
	}
	if rec == nil || rec.RefreshToken == "" {
		return ""
	}

	r.log.Info(ctx, "refreshing access token")
	resp, err := r.sender.Send(ctx, r.refresh, api.Request{Data: refreshRequest{RefreshToken: rec.RefreshToken}})
	if err != nil {
		r.log.Error(ctx, "refreshing access token failed", "error", err)
		r.dropSession(ctx)
		return ""
	}

	switch resp.Status {
	case http.StatusOK:
		var body refreshResponse
		if err := resp.DecodeJSON(&body); err != nil || body.AccessToken == "" {
			r.log.Error(ctx, "refresh response carried no access token", "error", err)
			r.dropSession(ctx)
			return ""
		}

		next := *rec
		next.AccessToken = body.AccessToken
		if err := r.store.Set(next); err != nil {
			r.log.Error(ctx, "storing refreshed token failed", "error", err)
			return ""
		}
		return body.AccessToken

	case http.StatusUnauthorized:
		r.log.Warn(ctx, "session has expired, please log in again")
		r.dropSession(ctx)
		return ""

	default:
		r.log.Error(ctx, "refreshing access token failed", "status", resp.Status)
		r.dropSession(ctx)
		return ""
	}
}

func (r *Requester) dropSession(ctx context.Context) {
	if _, err := r.store.Remove(); err != nil {
		r.log.Error(ctx, "removing tokens failed", "error", err)
	}
}
