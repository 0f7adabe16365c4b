package http

import (
	"errors"
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/jmehdipour/customer-portal/internal/metrics"
	"github.com/jmehdipour/customer-portal/internal/repository"
	"github.com/jmehdipour/customer-portal/internal/respond"
	"github.com/jmehdipour/customer-portal/internal/validate"
)

func listCustomersHandler(repo repository.CustomersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		customers, err := repo.All(c.Request().Context())
		if err != nil {
			log.Errorf("list customers failed: %v", err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		return respond.Success(c, customers, "", http.StatusOK)
	}
}

func createCustomerHandler(repo repository.CustomersRepository, v *validate.Customers) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in validate.CustomerInput
		if err := c.Bind(&in); err != nil {
			return respond.Error(c, "Invalid request payload.", http.StatusBadRequest, 0)
		}

		fields, ferrs, err := v.Create(c.Request().Context(), in)
		if err != nil {
			log.Errorf("create customer validation lookup failed: %v", err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if len(ferrs) > 0 {
			// only the first failure is reported, by policy
			return respond.Error(c, ferrs[0].Message, http.StatusUnprocessableEntity, 0)
		}

		customer, err := repo.Create(c.Request().Context(), fields)
		if err != nil {
			// uniqueness race between validation and insert
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return respond.Error(c, "The email has already been taken.", http.StatusUnprocessableEntity, 0)
			}
			log.Errorf("create customer failed: %v", err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}

		metrics.CustomerOps.WithLabelValues("created").Inc()

		return respond.Success(c, customer, "Customer created successfully.", http.StatusCreated)
	}
}

func showCustomerHandler(repo repository.CustomersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := customerID(c)
		if !ok {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}

		customer, err := repo.Find(c.Request().Context(), id)
		if err != nil {
			log.Errorf("find customer %d failed: %v", id, err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if customer == nil {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}
		return respond.Success(c, customer, "", http.StatusOK)
	}
}

func updateCustomerHandler(repo repository.CustomersRepository, v *validate.Customers) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := customerID(c)
		if !ok {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}

		var in validate.CustomerInput
		if err := c.Bind(&in); err != nil {
			return respond.Error(c, "Invalid request payload.", http.StatusBadRequest, 0)
		}

		patch, ferrs, err := v.Patch(c.Request().Context(), in, id)
		if err != nil {
			log.Errorf("update customer validation lookup failed: %v", err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if len(ferrs) > 0 {
			return respond.Error(c, ferrs[0].Message, http.StatusUnprocessableEntity, 0)
		}

		existing, err := repo.Find(c.Request().Context(), id)
		if err != nil {
			log.Errorf("find customer %d failed: %v", id, err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if existing == nil {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}

		customer, err := repo.Update(c.Request().Context(), id, patch)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return respond.Error(c, "The email has already been taken.", http.StatusUnprocessableEntity, 0)
			}
			log.Errorf("update customer %d failed: %v", id, err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if customer == nil {
			// row vanished between find and update
			return respond.Error(c, "Customer update failed.", http.StatusNotFound, 0)
		}

		metrics.CustomerOps.WithLabelValues("updated").Inc()

		return respond.Success(c, customer, "Customer updated successfully.", http.StatusOK)
	}
}

func destroyCustomerHandler(repo repository.CustomersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := customerID(c)
		if !ok {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}

		customer, err := repo.Find(c.Request().Context(), id)
		if err != nil {
			log.Errorf("find customer %d failed: %v", id, err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if customer == nil {
			return respond.Error(c, "Customer not found.", http.StatusNotFound, 0)
		}

		deleted, err := repo.Delete(c.Request().Context(), id)
		if err != nil {
			log.Errorf("delete customer %d failed: %v", id, err)
			return respond.Error(c, "Internal server error.", http.StatusInternalServerError, 0)
		}
		if !deleted {
			// row vanished between find and delete
			return respond.Error(c, "Customer delete failed.", http.StatusNotFound, 0)
		}

		metrics.CustomerOps.WithLabelValues("deleted").Inc()

		return respond.Success(c, nil, "Customer deleted successfully.", http.StatusOK)
	}
}

func customerID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
