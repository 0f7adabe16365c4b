package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/customer-portal/internal/model"
	"github.com/jmehdipour/customer-portal/internal/repository"
	"github.com/jmehdipour/customer-portal/internal/validate"
)

// fakeCustomersRepo is an in-memory CustomersRepository for handler tests.
type fakeCustomersRepo struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]model.Customer
}

func newFakeCustomersRepo() *fakeCustomersRepo {
	return &fakeCustomersRepo{customers: map[int64]model.Customer{}}
}

var _ repository.CustomersRepository = (*fakeCustomersRepo)(nil)

func (f *fakeCustomersRepo) All(context.Context) ([]model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCustomersRepo) Create(_ context.Context, fields model.NewCustomer) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Email == fields.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	c := model.Customer{
		ID:           f.nextID,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Age:          fields.Age,
		DOB:          fields.DOB,
		Email:        fields.Email,
		CreationDate: time.Now().Format("2006-01-02 15:04:05"),
	}
	f.customers[c.ID] = c
	return &c, nil
}

func (f *fakeCustomersRepo) Find(_ context.Context, id int64) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCustomersRepo) Update(_ context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, nil
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	if patch.Age != nil {
		c.Age = *patch.Age
	}
	if patch.DOB != nil {
		c.DOB = *patch.DOB
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	f.customers[id] = c
	return &c, nil
}

func (f *fakeCustomersRepo) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[id]; !ok {
		return false, nil
	}
	delete(f.customers, id)
	return true, nil
}

func (f *fakeCustomersRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Email == email && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func newTestAPI(t *testing.T) (*echo.Echo, *fakeCustomersRepo) {
	t.Helper()

	repo := newFakeCustomersRepo()
	v := validate.NewCustomers(repo)

	e := echo.New()
	e.GET("/api/customers", listCustomersHandler(repo))
	e.POST("/api/customers", createCustomerHandler(repo, v))
	e.GET("/api/customers/:id", showCustomerHandler(repo))
	e.PUT("/api/customers/:id", updateCustomerHandler(repo, v))
	e.DELETE("/api/customers/:id", destroyCustomerHandler(repo))
	return e, repo
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env, rec.Body.Bytes()
}

// checkEnvelope asserts the wire invariant: false status always has an error
// message, true status never has an error key.
func checkEnvelope(t *testing.T, raw []byte) {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	status, ok := body["status"].(bool)
	require.True(t, ok)

	errVal, hasError := body["error"]
	if status {
		assert.False(t, hasError)
		return
	}
	require.True(t, hasError)
	errObj, ok := errVal.(map[string]any)
	require.True(t, ok)
	msg, ok := errObj["message"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, msg)
}

const johnPayload = `{"first_name":"John","last_name":"Doe","age":30,"dob":"1992-05-15","email":"john@x.com"}`

func TestCreateCustomer(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Status)
	assert.Equal(t, "Customer created successfully.", env.Message)

	var c model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.NotZero(t, c.ID)
	assert.Equal(t, "John", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	assert.Equal(t, 30, c.Age)
	assert.Equal(t, "1992-05-15", c.DOB)
	assert.Equal(t, "john@x.com", c.Email)
	assert.NotEmpty(t, c.CreationDate)
}

func TestCreateThenFetchRoundTrip(t *testing.T) {
	e, _ := newTestAPI(t)

	_, created, _ := doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)
	var c model.Customer
	require.NoError(t, json.Unmarshal(created.Data, &c))

	code, env, raw := doJSON(t, e, http.MethodGet, "/api/customers/1", "")
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusOK, code)

	var fetched model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, c, fetched)
}

func TestListCustomers(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)
	doJSON(t, e, http.MethodPost, "/api/customers",
		`{"first_name":"Jane","last_name":"Smith","age":25,"dob":"1997-02-28","email":"jane@x.com"}`)

	code, env, raw := doJSON(t, e, http.MethodGet, "/api/customers", "")
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusOK, code)

	var customers []model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	require.Len(t, customers, 2)
	assert.Equal(t, "john@x.com", customers[0].Email)
	assert.Equal(t, "jane@x.com", customers[1].Email)
}

func TestListOnEmptyStoreOmitsData(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodGet, "/api/customers", "")
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)

	// an empty table yields no data key, not "data": []
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestCreateValidationReportsFirstErrorOnly(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodPost, "/api/customers", `{}`)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusUnprocessableEntity, env.Error.Code)
	assert.Equal(t, "The first name field is required.", env.Error.Message)
}

func TestCreateDuplicateEmail(t *testing.T) {
	e, repo := newTestAPI(t)

	code, _, _ := doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)
	require.Equal(t, http.StatusCreated, code)

	second := `{"first_name":"Johnny","last_name":"Dole","age":31,"dob":"1991-05-15","email":"john@x.com"}`
	code, env, raw := doJSON(t, e, http.MethodPost, "/api/customers", second)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "email has already been taken")

	// the first customer stays persisted, untouched
	c, err := repo.Find(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "John", c.FirstName)
}

func TestShowUnknownCustomer(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodGet, "/api/customers/999999", "")
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusNotFound, env.Error.Code)
	assert.Equal(t, "Customer not found.", env.Error.Message)
}

func TestUpdateUnknownCustomer(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodPut, "/api/customers/12345", `{"age":40}`)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Customer not found.", env.Error.Message)
}

func TestPartialUpdateLeavesOtherFieldsAlone(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)

	code, env, raw := doJSON(t, e, http.MethodPut, "/api/customers/1", `{"age":31}`)
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Customer updated successfully.", env.Message)

	_, fetched, _ := doJSON(t, e, http.MethodGet, "/api/customers/1", "")
	var c model.Customer
	require.NoError(t, json.Unmarshal(fetched.Data, &c))
	assert.Equal(t, 31, c.Age)
	assert.Equal(t, "John", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	assert.Equal(t, "1992-05-15", c.DOB)
	assert.Equal(t, "john@x.com", c.Email)
}

func TestUpdateValidatesSuppliedFields(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)

	code, env, raw := doJSON(t, e, http.MethodPut, "/api/customers/1", `{"dob":"05/15/1992"}`)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "The dob field must match the format Y-m-d.", env.Error.Message)
}

func TestUpdateKeepingOwnEmailIsAllowed(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)

	code, _, raw := doJSON(t, e, http.MethodPut, "/api/customers/1",
		`{"first_name":"Johnny","email":"john@x.com"}`)
	checkEnvelope(t, raw)
	assert.Equal(t, http.StatusOK, code)
}

func TestUpdateTakingAnotherEmailIsRejected(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)
	doJSON(t, e, http.MethodPost, "/api/customers",
		`{"first_name":"Jane","last_name":"Smith","age":25,"dob":"1997-02-28","email":"jane@x.com"}`)

	code, env, raw := doJSON(t, e, http.MethodPut, "/api/customers/2", `{"email":"john@x.com"}`)
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Message, "email has already been taken")
}

func TestDeleteCustomer(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)

	code, env, raw := doJSON(t, e, http.MethodDelete, "/api/customers/1", "")
	checkEnvelope(t, raw)

	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)
	assert.Equal(t, "Customer deleted successfully.", env.Message)
	assert.Empty(t, env.Data)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/customers", johnPayload)

	code, _, _ := doJSON(t, e, http.MethodDelete, "/api/customers/1", "")
	require.Equal(t, http.StatusOK, code)

	// deleting again reports not found, never success
	code, env, raw := doJSON(t, e, http.MethodDelete, "/api/customers/1", "")
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Customer not found.", env.Error.Message)
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	e, _ := newTestAPI(t)

	code, env, raw := doJSON(t, e, http.MethodGet, "/api/customers/abc", "")
	checkEnvelope(t, raw)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Customer not found.", env.Error.Message)
}
