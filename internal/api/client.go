// Package api is the HTTP client for the exam-portal API. Every response is
// a JSON envelope {status, message, data, pagination}; the client decodes the
// envelope, separates transport failures from server rejections, and injects
// the bearer token supplied by the session coordinator.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/model"
)

// TokenProvider supplies the current access token. An empty string means the
// request goes out unauthenticated.
type TokenProvider interface {
	AccessToken() string
}

// Envelope is the API response wrapper.
type Envelope struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

// Client issues JSON requests against the portal API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	log     zerolog.Logger
}

// NewClient creates a client for the given base URL ("http://host/api").
// tokens may be nil for an unauthenticated client.
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// SetTokenProvider attaches the token source after construction. The session
// coordinator needs the client to exist before it can provide tokens.
func (c *Client) SetTokenProvider(tokens TokenProvider) {
	c.tokens = tokens
}

// Get issues a GET and decodes the envelope data into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) (*Envelope, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*Envelope, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &NetworkError{Op: method, URL: fullURL, Err: fmt.Errorf("decode envelope: %w", err)}
	}

	if env.Status != "success" {
		c.log.Debug().
			Str("method", method).
			Str("url", fullURL).
			Int("status", resp.StatusCode).
			Str("message", env.Message).
			Msg("API rejection")
		return nil, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return &env, nil
}
