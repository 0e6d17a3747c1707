// Package api issues single HTTP requests against the Hitbim REST API.
//
// The Caller never classifies responses: any status the server returns is
// handed back as a *Response. Only failures that never produced a response
// are turned into *apierr.Error values (NoResponse, InternalError, or NotFound
// for an unconfigured endpoint).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitbim/bimio/internal/apierr"
	"github.com/hitbim/bimio/internal/logging"
)

// RequestIDHeader carries a per-request id, handy when matching client logs
// against server logs.
const RequestIDHeader = "X-Request-Id"

// Request is the payload part of a call.
//
// For GET and HEAD a map[string]string Data is sent as the query string. For
// other methods Raw is sent verbatim when set, otherwise Data is JSON-encoded.
// With Stream set the response body is left open in Response.Stream and the
// caller must close it.
type Request struct {
	Data    any
	Raw     []byte
	Headers map[string]string
	Stream  bool
}

// Response is a server reply of any status.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	Stream     io.ReadCloser

	// Partial is set when the connection failed while reading the body;
	// Body then holds whatever arrived.
	Partial bool
}

// Close releases a streamed body. It is safe on any Response.
func (r *Response) Close() error {
	if r == nil || r.Stream == nil {
		return nil
	}
	return r.Stream.Close()
}

// Sender is implemented by Caller and by anything that decorates it.
type Sender interface {
	Send(ctx context.Context, d Descriptor, req Request) (*Response, error)
}

// Caller sends requests with an http.Client.
type Caller struct {
	client *http.Client
	log    logging.Logger
}

// NewCaller returns a Caller whose requests time out after timeout.
// A zero timeout keeps the http.Client default.
func NewCaller(timeout time.Duration, log logging.Logger) *Caller {
	return &Caller{client: &http.Client{Timeout: timeout}, log: log}
}

// NewCallerWithClient is used when the transport needs customizing (tests).
func NewCallerWithClient(c *http.Client, log logging.Logger) *Caller {
	return &Caller{client: c, log: log}
}

// Send issues one request. The returned error, when non-nil, is always an
// *apierr.Error.
func (c *Caller) Send(ctx context.Context, d Descriptor, req Request) (*Response, error) {
	if !d.Valid() {
		return nil, apierr.NotFound.WithDetails("endpoint not configured, check your .env file")
	}

	httpReq, err := c.buildRequest(ctx, d, req)
	if err != nil {
		c.log.Debug(ctx, "request setup failed", "url", d.URL(), "error", err)
		return nil, apierr.InternalError.WithDetails(err.Error())
	}

	reqID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, reqID)
	log := c.log.With("request_id", reqID)
	log.Debug(ctx, "calling api", "method", httpReq.Method, "url", httpReq.URL.String())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		log.Debug(ctx, "no response", "error", err)
		return nil, apierr.NoResponse.WithDetails(err.Error())
	}

	out := &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
	}

	if req.Stream {
		out.Stream = resp.Body
		log.Debug(ctx, "api responded", "status", out.Status, "stream", true)
		return out, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	out.Body = body
	if err != nil {
		out.Partial = true
		log.Debug(ctx, "body read failed", "status", out.Status, "read", len(body), "error", err)
		return out, nil
	}

	log.Debug(ctx, "api responded", "status", out.Status, "bytes", len(body))
	return out, nil
}

func (c *Caller) buildRequest(ctx context.Context, d Descriptor, req Request) (*http.Request, error) {
	method := strings.ToUpper(d.Method)
	u, err := url.Parse(d.URL())
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute url", d.URL())
	}

	var body io.Reader
	contentType := ""

	switch method {
	case http.MethodGet, http.MethodHead:
		if q, ok := req.Data.(map[string]string); ok && len(q) > 0 {
			values := u.Query()
			for k, v := range q {
				values.Set(k, v)
			}
			u.RawQuery = values.Encode()
		}
	default:
		switch {
		case req.Raw != nil:
			body = bytes.NewReader(req.Raw)
		case req.Data != nil:
			b, err := json.Marshal(req.Data)
			if err != nil {
				return nil, fmt.Errorf("encode request body: %w", err)
			}
			body = bytes.NewReader(b)
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// DecodeJSON unmarshals a non-streamed body into v.
func (r *Response) DecodeJSON(v any) error {
	if r.Stream != nil {
		return errors.New("cannot decode a streamed body")
	}
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Payload returns the body as decoded JSON, falling back to the raw text.
// It is what gets attached to apierr values as Data.
func (r *Response) Payload() any {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err == nil {
		return v
	}
	return string(r.Body)
}
