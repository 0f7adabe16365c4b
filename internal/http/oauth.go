package http

import (
	"net/http"

	echo "github.com/labstack/echo/v4"

	"github.com/jmehdipour/customer-portal/internal/metrics"
	"github.com/jmehdipour/customer-portal/internal/oauth"
)

// tokenHandler is the externally-facing password-grant endpoint: the full
// grant, client credentials included, arrives in the request body.
func tokenHandler(issuer *oauth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req oauth.TokenRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, oauth.Error{
				Code:        "invalid_request",
				Description: "The request is missing a required parameter or is otherwise malformed.",
			})
		}

		resp, oerr := issuer.Issue(c.Request().Context(), req)
		if oerr != nil {
			return c.JSON(oerr.Status, oerr)
		}

		metrics.TokensIssued.Inc()

		return c.JSON(http.StatusOK, resp)
	}
}

// issueTokenHandler is the loopback variant used by first-party callers: it
// merges the server-held client credentials into the incoming username and
// password, then calls the issuer in-process. The payload is identical to
// what the external endpoint returns.
func issueTokenHandler(issuer *oauth.Issuer, creds oauth.ClientCredentials) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req oauth.TokenRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, oauth.Error{
				Code:        "invalid_request",
				Description: "The request is missing a required parameter or is otherwise malformed.",
			})
		}

		req.GrantType = "password"
		req.ClientID = creds.ID
		req.ClientSecret = creds.Secret
		req.Scope = ""

		resp, oerr := issuer.Issue(c.Request().Context(), req)
		if oerr != nil {
			return c.JSON(oerr.Status, oerr)
		}

		metrics.TokensIssued.Inc()

		return c.JSON(http.StatusOK, resp)
	}
}
