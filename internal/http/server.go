package http

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmehdipour/customer-portal/internal/apiclient"
	"github.com/jmehdipour/customer-portal/internal/auth"
	"github.com/jmehdipour/customer-portal/internal/config"
	"github.com/jmehdipour/customer-portal/internal/http/middleware"
	"github.com/jmehdipour/customer-portal/internal/http/web"
	"github.com/jmehdipour/customer-portal/internal/metrics"
	"github.com/jmehdipour/customer-portal/internal/oauth"
	"github.com/jmehdipour/customer-portal/internal/repository"
	"github.com/jmehdipour/customer-portal/internal/session"
	"github.com/jmehdipour/customer-portal/internal/validate"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, db *sqlx.DB, rds *redis.Client) *Server {
	// repos
	customersRepo := repository.NewCustomersRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	// token plumbing
	tokenMgr := auth.NewTokenManager(cfg.OAuth.SigningSecret, cfg.OAuth.Issuer, cfg.OAuth.TokenTTL)
	clientCreds := oauth.ClientCredentials{ID: cfg.OAuth.ClientID, Secret: cfg.OAuth.ClientSecret}
	issuer := oauth.NewIssuer(usersRepo, tokenMgr, clientCreds)

	// front-end plumbing
	sessions := session.NewRedisStore(rds, cfg.Session.TTL)
	tokenClient := apiclient.NewTokenClient(cfg.API.BaseURL, apiclient.Credentials{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
	})

	customerValidator := validate.NewCustomers(customersRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// token endpoints: the external grant and the first-party loopback variant
	e.POST("/oauth/token", tokenHandler(issuer))
	e.POST("/api/oauth/token", issueTokenHandler(issuer, clientCreds))

	// resource API
	authMW := middleware.BearerMiddleware(tokenMgr)
	api := e.Group("/api/customers", authMW)
	api.GET("", listCustomersHandler(customersRepo))
	api.POST("", createCustomerHandler(customersRepo, customerValidator))
	api.GET("/:id", showCustomerHandler(customersRepo))
	api.PUT("/:id", updateCustomerHandler(customersRepo, customerValidator))
	api.DELETE("/:id", destroyCustomerHandler(customersRepo))

	// server-rendered front end
	e.Renderer = web.NewRenderer()
	web.NewHandler(cfg, sessions, tokenClient, usersRepo).Register(e)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
