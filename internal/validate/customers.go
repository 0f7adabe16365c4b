// Package validate holds the typed per-entity validators. Errors come back as
// an ordered list; the API reports only the first one, which is a policy, so
// rules run in a fixed field order (first_name, last_name, age, dob, email).
package validate

import (
	"context"
	"encoding/json"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmehdipour/customer-portal/internal/model"
)

const maxFieldLen = 50

type FieldError struct {
	Field   string
	Message string
}

// CustomerInput is the raw request body for create and update. Pointers
// distinguish "absent" from "present but empty"; age stays raw because HTML
// forms submit it as a string while JSON clients send a number.
type CustomerInput struct {
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Age       *json.RawMessage `json:"age"`
	DOB       *string          `json:"dob"`
	Email     *string          `json:"email"`
}

// EmailChecker answers whether an email is already taken by a customer other
// than excludeID (0 for create).
type EmailChecker interface {
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
}

type Customers struct {
	emails EmailChecker
}

func NewCustomers(emails EmailChecker) *Customers {
	return &Customers{emails: emails}
}

// Create validates a full creation payload. The returned error is for
// infrastructure failures (the email lookup) only, never validation.
func (v *Customers) Create(ctx context.Context, in CustomerInput) (model.NewCustomer, []FieldError, error) {
	var (
		out  model.NewCustomer
		errs []FieldError
	)

	if s, ferr := checkName("first_name", in.FirstName, true); ferr != nil {
		errs = append(errs, *ferr)
	} else if in.FirstName != nil {
		out.FirstName = s
	}

	if s, ferr := checkName("last_name", in.LastName, true); ferr != nil {
		errs = append(errs, *ferr)
	} else if in.LastName != nil {
		out.LastName = s
	}

	if n, ferr := checkAge(in.Age, true); ferr != nil {
		errs = append(errs, *ferr)
	} else if in.Age != nil {
		out.Age = n
	}

	if s, ferr := checkDOB(in.DOB); ferr != nil {
		errs = append(errs, *ferr)
	} else if in.DOB != nil {
		out.DOB = s
	}

	email, ferr, err := v.checkEmail(ctx, in.Email, 0)
	if err != nil {
		return model.NewCustomer{}, nil, err
	}
	if ferr != nil {
		errs = append(errs, *ferr)
	} else {
		out.Email = email
	}

	return out, errs, nil
}

// Patch validates only the supplied fields of a partial update. excludeID is
// the customer being updated, so its own email does not count as taken.
func (v *Customers) Patch(ctx context.Context, in CustomerInput, excludeID int64) (model.CustomerPatch, []FieldError, error) {
	var (
		out  model.CustomerPatch
		errs []FieldError
	)

	if in.FirstName != nil {
		if s, ferr := checkName("first_name", in.FirstName, false); ferr != nil {
			errs = append(errs, *ferr)
		} else {
			out.FirstName = &s
		}
	}

	if in.LastName != nil {
		if s, ferr := checkName("last_name", in.LastName, false); ferr != nil {
			errs = append(errs, *ferr)
		} else {
			out.LastName = &s
		}
	}

	if in.Age != nil {
		if n, ferr := checkAge(in.Age, false); ferr != nil {
			errs = append(errs, *ferr)
		} else {
			out.Age = &n
		}
	}

	if in.DOB != nil {
		if s, ferr := checkDOB(in.DOB); ferr != nil {
			errs = append(errs, *ferr)
		} else {
			out.DOB = &s
		}
	}

	if in.Email != nil {
		email, ferr, err := v.checkEmail(ctx, in.Email, excludeID)
		if err != nil {
			return model.CustomerPatch{}, nil, err
		}
		if ferr != nil {
			errs = append(errs, *ferr)
		} else {
			out.Email = &email
		}
	}

	return out, errs, nil
}

func checkName(field string, val *string, required bool) (string, *FieldError) {
	label := strings.ReplaceAll(field, "_", " ")
	if val == nil || strings.TrimSpace(*val) == "" {
		if required || val != nil {
			return "", &FieldError{Field: field, Message: "The " + label + " field is required."}
		}
		return "", nil
	}
	s := strings.TrimSpace(*val)
	if utf8.RuneCountInString(s) > maxFieldLen {
		return "", &FieldError{Field: field, Message: "The " + label + " field must not be greater than 50 characters."}
	}
	return s, nil
}

func checkAge(raw *json.RawMessage, required bool) (int, *FieldError) {
	if raw == nil {
		if required {
			return 0, &FieldError{Field: "age", Message: "The age field is required."}
		}
		return 0, nil
	}

	// JSON number first, then a numeric string (HTML forms).
	var n int
	if err := json.Unmarshal(*raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(*raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, &FieldError{Field: "age", Message: "The age field is required."}
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
	}
	return 0, &FieldError{Field: "age", Message: "The age field must be an integer."}
}

// checkDOB runs only when the field is present on update, so an absent or
// blank value is always "required" here.
func checkDOB(val *string) (string, *FieldError) {
	if val == nil || strings.TrimSpace(*val) == "" {
		return "", &FieldError{Field: "dob", Message: "The dob field is required."}
	}
	s := strings.TrimSpace(*val)
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", &FieldError{Field: "dob", Message: "The dob field must match the format Y-m-d."}
	}
	return s, nil
}

func (v *Customers) checkEmail(ctx context.Context, val *string, excludeID int64) (string, *FieldError, error) {
	if val == nil || strings.TrimSpace(*val) == "" {
		return "", &FieldError{Field: "email", Message: "The email field is required."}, nil
	}
	s := strings.TrimSpace(*val)

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", &FieldError{Field: "email", Message: "The email field must be a valid email address."}, nil
	}
	if utf8.RuneCountInString(s) > maxFieldLen {
		return "", &FieldError{Field: "email", Message: "The email field must not be greater than 50 characters."}, nil
	}

	taken, err := v.emails.EmailTaken(ctx, s, excludeID)
	if err != nil {
		return "", nil, err
	}
	if taken {
		return "", &FieldError{Field: "email", Message: "The email has already been taken."}, nil
	}
	return s, nil, nil
}
