package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/customer-portal/internal/auth"
	"github.com/jmehdipour/customer-portal/internal/model"
)

func newProtectedEcho(tokens *auth.TokenManager) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		uid, _ := UserIDFromCtx(c)
		return c.String(http.StatusOK, uid)
	}, BearerMiddleware(tokens))
	return e
}

func TestBearerMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "customer-portal", time.Hour)
	e := newProtectedEcho(tokens)

	token, err := tokens.Generate(model.User{ID: 42, Email: "demo@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())
}

func TestBearerMiddlewareRejects(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "customer-portal", time.Hour)
	e := newProtectedEcho(tokens)

	foreign, err := auth.NewTokenManager("other-secret", "customer-portal", time.Hour).
		Generate(model.User{ID: 42})
	require.NoError(t, err)

	cases := map[string]string{
		"no header":       "",
		"not bearer":      "Basic abc123",
		"empty token":     "Bearer ",
		"garbage token":   "Bearer not-a-jwt",
		"wrong signature": "Bearer " + foreign,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var env struct {
				Status bool `json:"status"`
				Error  *struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Status)
			require.NotNil(t, env.Error)
			assert.Equal(t, "Unauthenticated.", env.Error.Message)
		})
	}
}
