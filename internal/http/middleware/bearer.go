package middleware

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/jmehdipour/customer-portal/internal/auth"
	"github.com/jmehdipour/customer-portal/internal/respond"
)

// UserIDFromCtx extracts the authenticated user id set by BearerMiddleware.
func UserIDFromCtx(c echo.Context) (string, bool) {
	v, ok := c.Get("user_id").(string)
	return v, ok
}

// BearerMiddleware authenticates requests by the Authorization bearer token.
// Missing, malformed and expired tokens all yield the same 401 envelope.
func BearerMiddleware(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return respond.Error(c, "Unauthenticated.", http.StatusUnauthorized, 0)
			}

			claims, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				return respond.Error(c, "Unauthenticated.", http.StatusUnauthorized, 0)
			}

			c.Set("user_id", claims.Subject)
			return next(c)
		}
	}
}
