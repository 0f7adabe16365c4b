// Package oauth is the in-process password-grant provider. The HTTP token
// endpoint and the internal loopback endpoint both call Issue directly; there
// is no simulated round trip through the router.
package oauth

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmehdipour/customer-portal/internal/auth"
	"github.com/jmehdipour/customer-portal/internal/repository"
)

// TokenRequest is the password-grant request body.
type TokenRequest struct {
	GrantType    string `json:"grant_type" form:"grant_type"`
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	Scope        string `json:"scope" form:"scope"`
}

// TokenResponse mirrors the provider token payload. No refresh token is ever
// issued.
type TokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// Error is the standard OAuth error payload plus the transport status to
// return it with.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Status      int    `json:"-"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Description }

type ClientCredentials struct {
	ID     string
	Secret string
}

// Issuer exchanges verified user credentials for a signed bearer token.
type Issuer struct {
	users  repository.UsersRepository
	tokens *auth.TokenManager
	client ClientCredentials
}

func NewIssuer(users repository.UsersRepository, tokens *auth.TokenManager, client ClientCredentials) *Issuer {
	return &Issuer{users: users, tokens: tokens, client: client}
}

// Issue validates the grant and signs a token. The username is the user's
// email address.
func (i *Issuer) Issue(ctx context.Context, req TokenRequest) (*TokenResponse, *Error) {
	if req.GrantType != "password" {
		return nil, &Error{
			Code:        "unsupported_grant_type",
			Description: "The authorization grant type is not supported by the authorization server.",
			Status:      http.StatusBadRequest,
		}
	}

	if req.ClientID != i.client.ID || req.ClientSecret != i.client.Secret {
		return nil, &Error{
			Code:        "invalid_client",
			Description: "Client authentication failed.",
			Status:      http.StatusUnauthorized,
		}
	}

	user, err := i.users.FindByEmail(ctx, req.Username)
	if err != nil {
		return nil, &Error{
			Code:        "server_error",
			Description: "The authorization server encountered an unexpected error.",
			Status:      http.StatusInternalServerError,
		}
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, &Error{
			Code:        "invalid_grant",
			Description: "The user credentials were incorrect.",
			Status:      http.StatusBadRequest,
		}
	}

	token, err := i.tokens.Generate(*user)
	if err != nil {
		return nil, &Error{
			Code:        "server_error",
			Description: "The authorization server encountered an unexpected error.",
			Status:      http.StatusInternalServerError,
		}
	}

	return &TokenResponse{
		TokenType:   "Bearer",
		ExpiresIn:   int(i.tokens.TTL().Seconds()),
		AccessToken: token,
	}, nil
}
