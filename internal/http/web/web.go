// Package web is the server-rendered front end. It holds no customer logic of
// its own: every action round-trips through the authenticated API client and
// whatever error message the API returns is surfaced verbatim on the page.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmehdipour/customer-portal/internal/apiclient"
	"github.com/jmehdipour/customer-portal/internal/config"
	"github.com/jmehdipour/customer-portal/internal/model"
	"github.com/jmehdipour/customer-portal/internal/oauth"
	"github.com/jmehdipour/customer-portal/internal/repository"
	"github.com/jmehdipour/customer-portal/internal/respond"
	"github.com/jmehdipour/customer-portal/internal/service/customers"
	"github.com/jmehdipour/customer-portal/internal/session"
	"github.com/jmehdipour/customer-portal/internal/util"
)

// apiEnvelope is the decoded wire envelope of the resource API.
type apiEnvelope struct {
	Status  bool                 `json:"status"`
	Message string               `json:"message"`
	Data    json.RawMessage      `json:"data"`
	Error   *respond.ErrorObject `json:"error"`
}

type Handler struct {
	cfg      config.Config
	sessions session.Store
	tokens   *apiclient.TokenClient
	users    repository.UsersRepository
}

func NewHandler(cfg config.Config, sessions session.Store, tokens *apiclient.TokenClient, users repository.UsersRepository) *Handler {
	return &Handler{cfg: cfg, sessions: sessions, tokens: tokens, users: users}
}

// Register attaches the web routes. The customer pages sit behind the session
// check; the API behind them still enforces the bearer token on every call.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/customers")
	})

	e.GET("/login", h.showLogin)
	e.POST("/login", h.login)
	e.GET("/register", h.showRegister)
	e.POST("/register", h.register)
	e.POST("/logout", h.logout)

	g := e.Group("/customers", h.requireSession)
	g.GET("", h.index)
	g.GET("/new", h.create)
	g.POST("", h.store)
	g.GET("/:id/edit", h.edit)
	g.POST("/:id", h.update)
	g.POST("/:id/delete", h.destroy)
}

// requireSession redirects anonymous browsers to the login page and stashes
// the session id for the request. It does not check the token itself; an
// expired token surfaces as a 401 from the API.
func (h *Handler) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(h.cfg.Session.CookieName)
		if err != nil || cookie.Value == "" {
			return c.Redirect(http.StatusFound, "/login")
		}
		c.Set("sid", cookie.Value)
		return next(c)
	}
}

// api builds the per-request customer service with the session's token bound
// into the client, so no token state is ever ambient.
func (h *Handler) api(c echo.Context) *customers.Service {
	sid, _ := c.Get("sid").(string)
	return customers.NewService(apiclient.New(h.cfg.API.BaseURL, session.TokenSource(h.sessions, sid)))
}

// ---- customer pages ----

func (h *Handler) index(c echo.Context) error {
	return h.renderIndex(c, "")
}

func (h *Handler) renderIndex(c echo.Context, pageError string) error {
	data := pageData{Title: "Customer List", LoggedIn: true, Error: pageError, Values: map[string]string{}}

	resp, err := h.api(c).List(c.Request().Context())
	if err != nil {
		log.Errorf("list customers via api failed: %v", err)
		data.Error = err.Error()
		return c.Render(http.StatusOK, "customers_index", data)
	}

	var env apiEnvelope
	if err := resp.Decode(&env); err != nil {
		log.Errorf("decode customers list failed: %v", err)
		data.Error = err.Error()
		return c.Render(http.StatusOK, "customers_index", data)
	}
	if env.Error != nil {
		if data.Error == "" {
			data.Error = env.Error.Message
		}
		return c.Render(http.StatusOK, "customers_index", data)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data.Customers); err != nil {
			log.Errorf("decode customers list failed: %v", err)
		}
	}
	return c.Render(http.StatusOK, "customers_index", data)
}

func (h *Handler) create(c echo.Context) error {
	return c.Render(http.StatusOK, "customers_new", pageData{
		Title:    "Create Customer",
		LoggedIn: true,
		Values:   map[string]string{},
	})
}

func (h *Handler) store(c echo.Context) error {
	values := customerFormValues(c)

	resp, err := h.api(c).Create(c.Request().Context(), values)
	if err != nil {
		return c.Render(http.StatusOK, "customers_new", pageData{
			Title: "Create Customer", LoggedIn: true, Error: err.Error(), Values: values,
		})
	}

	var env apiEnvelope
	if err := resp.Decode(&env); err == nil && env.Error != nil {
		// re-render the form with the submitted input preserved
		return c.Render(http.StatusOK, "customers_new", pageData{
			Title: "Create Customer", LoggedIn: true, Error: env.Error.Message, Values: values,
		})
	}

	return c.Redirect(http.StatusFound, "/customers")
}

func (h *Handler) edit(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.Redirect(http.StatusFound, "/customers")
	}

	resp, err := h.api(c).Find(c.Request().Context(), id)
	if err != nil {
		return h.renderIndex(c, err.Error())
	}

	var env apiEnvelope
	if err := resp.Decode(&env); err != nil || env.Error != nil {
		message := "Customer not found."
		if env.Error != nil {
			message = env.Error.Message
		}
		return h.renderIndex(c, message)
	}

	var customer model.Customer
	if err := json.Unmarshal(env.Data, &customer); err != nil {
		return h.renderIndex(c, err.Error())
	}

	return c.Render(http.StatusOK, "customers_edit", pageData{
		Title:    "Edit Customer",
		LoggedIn: true,
		Customer: &customer,
		Values: map[string]string{
			"first_name": customer.FirstName,
			"last_name":  customer.LastName,
			"age":        strconv.Itoa(customer.Age),
			"dob":        customer.DOB,
			"email":      customer.Email,
		},
	})
}

func (h *Handler) update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.Redirect(http.StatusFound, "/customers")
	}
	values := customerFormValues(c)

	renderBack := func(message string) error {
		return c.Render(http.StatusOK, "customers_edit", pageData{
			Title: "Edit Customer", LoggedIn: true, Error: message,
			Customer: &model.Customer{ID: id}, Values: values,
		})
	}

	resp, err := h.api(c).Update(c.Request().Context(), id, values)
	if err != nil {
		return renderBack(err.Error())
	}

	var env apiEnvelope
	if err := resp.Decode(&env); err != nil {
		return renderBack(err.Error())
	}
	if env.Error != nil {
		return renderBack(env.Error.Message)
	}
	return c.Redirect(http.StatusFound, "/customers")
}

func (h *Handler) destroy(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.Redirect(http.StatusFound, "/customers")
	}

	resp, err := h.api(c).Delete(c.Request().Context(), id)
	if err != nil {
		return h.renderIndex(c, err.Error())
	}

	var env apiEnvelope
	if err := resp.Decode(&env); err == nil && env.Error != nil {
		return h.renderIndex(c, env.Error.Message)
	}

	return c.Redirect(http.StatusFound, "/customers")
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// customerFormValues collects the form fields as-is; the API does all the
// validation, including of empty strings.
func customerFormValues(c echo.Context) map[string]string {
	return map[string]string{
		"first_name": c.FormValue("first_name"),
		"last_name":  c.FormValue("last_name"),
		"age":        c.FormValue("age"),
		"dob":        c.FormValue("dob"),
		"email":      c.FormValue("email"),
	}
}

// ---- auth pages ----

func (h *Handler) showLogin(c echo.Context) error {
	return c.Render(http.StatusOK, "login", pageData{Title: "Login", Values: map[string]string{}})
}

func (h *Handler) login(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	values := map[string]string{"email": email}

	if email == "" || password == "" {
		return c.Render(http.StatusOK, "login", pageData{
			Title: "Login", Error: "Email and password are required.", Values: values,
		})
	}

	resp, err := h.tokens.Acquire(c.Request().Context(), email, password)
	if err != nil {
		log.Errorf("token acquisition failed: %v", err)
		return c.Render(http.StatusOK, "login", pageData{
			Title: "Login", Error: err.Error(), Values: values,
		})
	}
	if !resp.OK() {
		return c.Render(http.StatusOK, "login", pageData{
			Title: "Login", Error: "The provided credentials do not match our records.", Values: values,
		})
	}

	if err := h.openSession(c, resp); err != nil {
		log.Errorf("open session failed: %v", err)
		return c.Render(http.StatusOK, "login", pageData{
			Title: "Login", Error: "Could not start a session.", Values: values,
		})
	}
	return c.Redirect(http.StatusFound, "/customers")
}

func (h *Handler) showRegister(c echo.Context) error {
	return c.Render(http.StatusOK, "register", pageData{Title: "Register", Values: map[string]string{}})
}

func (h *Handler) register(c echo.Context) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	password := c.FormValue("password")
	confirmation := c.FormValue("password_confirmation")
	values := map[string]string{"name": name, "email": email}

	render := func(message string) error {
		return c.Render(http.StatusOK, "register", pageData{
			Title: "Register", Error: message, Values: values,
		})
	}

	switch {
	case name == "" || email == "" || password == "":
		return render("All fields are required.")
	case len(password) < 8:
		return render("The password field must be at least 8 characters.")
	case password != confirmation:
		return render("The password field confirmation does not match.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return render("Registration failed.")
	}

	if _, err := h.users.Create(c.Request().Context(), name, email, string(hash)); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return render("The email has already been taken.")
		}
		log.Errorf("create user failed: %v", err)
		return render("Registration failed.")
	}

	resp, err := h.tokens.Acquire(c.Request().Context(), email, password)
	if err != nil || !resp.OK() {
		// account exists; the user can still log in manually
		return c.Redirect(http.StatusFound, "/login")
	}
	if err := h.openSession(c, resp); err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.Redirect(http.StatusFound, "/customers")
}

func (h *Handler) logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(c.Request().Context(), cookie.Value); err != nil {
			log.Errorf("delete session failed: %v", err)
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusFound, "/login")
}

// openSession stores the acquired token under a fresh session id. A 200
// response without an access_token still opens the session: the token stays
// empty and the API answers 401 until the user logs in again.
func (h *Handler) openSession(c echo.Context, resp *apiclient.Response) error {
	var token oauth.TokenResponse
	if err := resp.Decode(&token); err != nil {
		return err
	}

	sid := util.New()
	if err := h.sessions.Save(c.Request().Context(), sid, token.AccessToken); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.cfg.Session.TTL / time.Second),
		HttpOnly: true,
	})
	return nil
}
