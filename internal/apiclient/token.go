package apiclient

import (
	"context"
)

// Credentials are the password-grant client credentials. They come from
// process configuration, never from user input.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// TokenClient exchanges a username/password for an access token at the token
// endpoint.
type TokenClient struct {
	api   *Client
	creds Credentials
}

func NewTokenClient(baseURL string, creds Credentials) *TokenClient {
	return &TokenClient{api: New(baseURL, Anonymous), creds: creds}
}

type tokenGrant struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Scope        string `json:"scope"`
}

// Acquire posts the password grant and returns the raw provider response.
// Non-2xx payloads come back untransformed; the caller decides what to surface.
func (t *TokenClient) Acquire(ctx context.Context, username, password string) (*Response, error) {
	return t.api.Post(ctx, "/oauth/token", tokenGrant{
		GrantType:    "password",
		ClientID:     t.creds.ClientID,
		ClientSecret: t.creds.ClientSecret,
		Username:     username,
		Password:     password,
		Scope:        "",
	})
}
