package oauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmehdipour/customer-portal/internal/auth"
	"github.com/jmehdipour/customer-portal/internal/model"
)

type fakeUsers struct {
	byEmail map[string]*model.User
}

func (f fakeUsers) Create(context.Context, string, string, string) (*model.User, error) {
	panic("not used")
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func testIssuer(t *testing.T) *Issuer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)

	users := fakeUsers{byEmail: map[string]*model.User{
		"jane@x.com": {ID: 7, Email: "jane@x.com", PasswordHash: string(hash)},
	}}
	tokens := auth.NewTokenManager("signing-secret", "customer-portal", time.Hour)
	return NewIssuer(users, tokens, ClientCredentials{ID: "portal-web", Secret: "client-secret"})
}

func grant() TokenRequest {
	return TokenRequest{
		GrantType:    "password",
		ClientID:     "portal-web",
		ClientSecret: "client-secret",
		Username:     "jane@x.com",
		Password:     "secret-password",
	}
}

func TestIssueSuccess(t *testing.T) {
	resp, oerr := testIssuer(t).Issue(context.Background(), grant())
	require.Nil(t, oerr)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)

	// the token must verify against the same manager configuration
	claims, err := auth.NewTokenManager("signing-secret", "customer-portal", time.Hour).Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
}

func TestIssueRejectsUnsupportedGrantType(t *testing.T) {
	req := grant()
	req.GrantType = "client_credentials"

	resp, oerr := testIssuer(t).Issue(context.Background(), req)
	assert.Nil(t, resp)
	require.NotNil(t, oerr)
	assert.Equal(t, "unsupported_grant_type", oerr.Code)
	assert.Equal(t, http.StatusBadRequest, oerr.Status)
}

func TestIssueRejectsBadClientCredentials(t *testing.T) {
	req := grant()
	req.ClientSecret = "wrong"

	resp, oerr := testIssuer(t).Issue(context.Background(), req)
	assert.Nil(t, resp)
	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_client", oerr.Code)
	assert.Equal(t, http.StatusUnauthorized, oerr.Status)
}

func TestIssueRejectsUnknownUser(t *testing.T) {
	req := grant()
	req.Username = "nobody@x.com"

	_, oerr := testIssuer(t).Issue(context.Background(), req)
	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_grant", oerr.Code)
	assert.Equal(t, http.StatusBadRequest, oerr.Status)
}

func TestIssueRejectsWrongPassword(t *testing.T) {
	req := grant()
	req.Password = "wrong"

	_, oerr := testIssuer(t).Issue(context.Background(), req)
	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_grant", oerr.Code)
}
