// Package apiclient is the authenticated HTTP boundary between the web front
// end and the resource API. Calls report transport failures as errors; a
// non-2xx status is a normal response the caller must inspect.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// TokenSource yields the bearer token to attach to a request. An empty token
// means anonymous: the request goes out without an Authorization header and
// the API answers 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Anonymous is a TokenSource with no token.
var Anonymous TokenSource = anonymous{}

type anonymous struct{}

func (anonymous) Token(context.Context) (string, error) { return "", nil }

// Response is a raw HTTP result. Status is never turned into an error.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode/100 == 2 }

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error { return json.Unmarshal(r.Body, v) }

type Client struct {
	baseURL string
	tokens  TokenSource
	hc      *http.Client
}

// New builds a client for the given API base URL. The token source is fixed at
// construction; the token value is read fresh on every call.
func New(baseURL string, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = Anonymous
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		hc:      &http.Client{},
	}
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: b}, nil
}
