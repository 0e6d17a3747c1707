// Package session implements login, logout and session status on top of the
// token store and the raw API caller.
//
// Login and Logout report their outcome as a Result instead of an error: the
// CLI prints Msg either way and only uses Error to pick the exit code.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitbim/bimio/internal/apierr"
	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/common"
	"github.com/hitbim/bimio/internal/logging"
	"github.com/hitbim/bimio/internal/tokens"
)

// TokenStore is the subset of tokens.Store the session needs.
type TokenStore interface {
	Get() (*tokens.Record, error)
	Set(rec tokens.Record) error
	Remove() (bool, error)
}

// Result is the user-facing outcome of Login and Logout.
type Result struct {
	Error bool
	Msg   string
}

// Status describes the stored session.
type Status struct {
	IsLoggedIn bool
	Email      string
	Expires    string
	TimeLeft   string

	// AccessTokenExpiry is the exp claim of the access token when it is a
	// JWT; zero otherwise.
	AccessTokenExpiry time.Time
}

// Service is the session facade.
type Service struct {
	sender   api.Sender
	store    TokenStore
	login    api.Descriptor
	logout   api.Descriptor
	clientIP func() string
	now      func() time.Time
	log      logging.Logger

	pending sync.WaitGroup
}

// NewService wires a Service. clientIP supplies the address reported on
// login.
func NewService(sender api.Sender, store TokenStore, endpoints api.Endpoints, clientIP func() string, log logging.Logger) *Service {
	return &Service{
		sender:   sender,
		store:    store,
		login:    endpoints.Login,
		logout:   endpoints.Logout,
		clientIP: clientIP,
		now:      time.Now,
		log:      log,
	}
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	IP       string `json:"ip"`
}

type loginResponse struct {
	Error   bool   `json:"error"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Data    *struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		Expires      looseString `json:"expires"`
	} `json:"data"`
}

func (r *loginResponse) message(fallback string) string {
	switch {
	case r.Msg != "":
		return r.Msg
	case r.Message != "":
		return r.Message
	default:
		return fallback
	}
}

// Login authenticates with email and password and stores the issued tokens.
func (s *Service) Login(ctx context.Context, email, password string) Result {
	resp, err := s.sender.Send(ctx, s.login, api.Request{
		Data: loginRequest{ID: email, Password: password, IP: s.clientIP()},
	})
	if err != nil {
		s.log.Debug(ctx, "login request failed", "error", err)
		return Result{Error: true, Msg: describe(err)}
	}

	var body loginResponse
	decodeErr := resp.DecodeJSON(&body)
	s.log.Debug(ctx, "login response", "status", resp.Status, "decode_error", decodeErr)

	if resp.Status != http.StatusOK {
		fallback := "Something went wrong ..."
		if ae := apierr.FromStatus(resp.Status, resp.StatusText, nil); ae != nil && ae.Kind != apierr.KindOther {
			fallback = ae.Desc
		}
		return Result{Error: true, Msg: body.message(fallback)}
	}
	if decodeErr != nil {
		return Result{Error: true, Msg: "Unexpected response from server ..."}
	}
	if body.Error {
		return Result{Error: true, Msg: body.message("Something went wrong ...")}
	}
	if body.Data == nil || body.Data.AccessToken == "" || body.Data.RefreshToken == "" {
		return Result{Error: true, Msg: body.message("Tokens not found ...")}
	}

	rec := tokens.Record{
		AccessToken:  body.Data.AccessToken,
		RefreshToken: body.Data.RefreshToken,
		Email:        email,
		Expires:      string(body.Data.Expires),
	}
	if err := s.store.Set(rec); err != nil {
		s.log.Error(ctx, "storing tokens failed", "error", err)
		return Result{Error: true, Msg: "Error occurred while saving your session ..."}
	}
	return Result{Msg: "Successfully logged in!"}
}

// Logout removes the local session and tells the server, without waiting
// for (or caring about) its answer. Call Wait before exiting to give that
// notification a chance to leave.
func (s *Service) Logout(ctx context.Context) Result {
	rec, err := s.store.Get()
	if err != nil {
		// an unreadable session is as good as none, but it must go
		s.log.Warn(ctx, "session file unreadable, removing it", "error", err)
	}
	if rec != nil && rec.RefreshToken != "" {
		s.notifyLogout(rec.RefreshToken)
	}

	removed, rerr := s.store.Remove()
	if rerr != nil {
		s.log.Error(ctx, "removing tokens failed", "error", rerr)
		return Result{Error: true, Msg: "Could not remove your local session ..."}
	}
	if rec == nil && !removed {
		return Result{Msg: "Already logged out."}
	}
	return Result{Msg: "Successfully logged out."}
}

type logoutRequest struct {
	Token string `json:"token"`
}

func (s *Service) notifyLogout(refreshToken string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// detached from the caller: the command may already be done
		ctx := context.Background()
		resp, err := s.sender.Send(ctx, s.logout, api.Request{Data: logoutRequest{Token: refreshToken}})
		if err != nil {
			s.log.Debug(ctx, "logout notification failed", "error", err)
			return
		}
		s.log.Debug(ctx, "logout notification sent", "status", resp.Status)
	}()
}

// Wait blocks until pending logout notifications finish or ctx is done.
func (s *Service) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// CheckSession reports the stored session without validating it.
func (s *Service) CheckSession(ctx context.Context) (Status, error) {
	rec, err := s.store.Get()
	if err != nil {
		return Status{}, err
	}
	if rec == nil {
		return Status{}, nil
	}

	st := Status{
		IsLoggedIn:        true,
		Email:             rec.Email,
		Expires:           rec.Expires,
		AccessTokenExpiry: accessTokenExpiry(rec.AccessToken),
	}
	if until, err := common.ParseTimestamp(rec.Expires); err == nil {
		st.TimeLeft = common.TimeLeft(until, s.now())
	}
	return st, nil
}

// IsLoggedIn reports whether a session exists and its refresh token has not
// expired. An expired or unreadable expiry removes the session.
func (s *Service) IsLoggedIn(ctx context.Context) (bool, error) {
	rec, err := s.store.Get()
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	until, err := common.ParseTimestamp(rec.Expires)
	if err == nil && until.After(s.now()) {
		return true, nil
	}

	s.log.Info(ctx, "session expired, removing it", "expires", rec.Expires)
	if _, err := s.Expire(ctx); err != nil {
		return false, err
	}
	return false, nil
}

// Expire removes the local session without telling the server.
func (s *Service) Expire(ctx context.Context) (bool, error) {
	return s.store.Remove()
}

// accessTokenExpiry reads the exp claim without verifying the signature; the
// client has no key to verify with and only uses the value for display.
func accessTokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func describe(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Desc
	}
	return "Error occurred while logging in ..."
}

// looseString accepts a JSON string or number.
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = looseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*l = looseString(strconv.FormatInt(i, 10))
		return nil
	}
	*l = looseString(n.String())
	return nil
}
