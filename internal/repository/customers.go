package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/customer-portal/internal/model"
)

// ErrDuplicateEmail maps the UNIQUE(email) violation on the customer table.
var ErrDuplicateEmail = errors.New("email already taken")

type CustomersRepository interface {
	All(ctx context.Context) ([]model.Customer, error)
	Create(ctx context.Context, fields model.NewCustomer) (*model.Customer, error)
	Find(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error)
	Delete(ctx context.Context, id int64) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

// Date columns are formatted in SQL so rows scan straight into wire-ready strings.
const customerColumns = `
	id, first_name, last_name, age,
	DATE_FORMAT(dob, '%Y-%m-%d')                    AS dob,
	email,
	DATE_FORMAT(creation_date, '%Y-%m-%d %H:%i:%s') AS creation_date
`

func (r *CustomersRepositoryImpl) All(ctx context.Context) ([]model.Customer, error) {
	customers := []model.Customer{}
	err := r.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customer ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomersRepositoryImpl) Create(ctx context.Context, fields model.NewCustomer) (*model.Customer, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO customer (first_name, last_name, age, dob, email, creation_date)
		VALUES (?, ?, ?, ?, ?, NOW())
	`, fields.FirstName, fields.LastName, fields.Age, fields.DOB, fields.Email)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, id)
}

// Find returns (nil, nil) when the id does not exist.
func (r *CustomersRepositoryImpl) Find(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customer WHERE id = ? LIMIT 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update overwrites only the fields set in patch; the rest keep their stored
// values. It returns (nil, nil) when the row does not exist.
func (r *CustomersRepositoryImpl) Update(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error) {
	if patch.Empty() {
		return r.Find(ctx, id)
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.FirstName != nil {
		sets, args = append(sets, "first_name = ?"), append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets, args = append(sets, "last_name = ?"), append(args, *patch.LastName)
	}
	if patch.Age != nil {
		sets, args = append(sets, "age = ?"), append(args, *patch.Age)
	}
	if patch.DOB != nil {
		sets, args = append(sets, "dob = ?"), append(args, *patch.DOB)
	}
	if patch.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, *patch.Email)
	}
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, `UPDATE customer SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return r.Find(ctx, id)
}

// Delete reports whether a row was actually removed.
func (r *CustomersRepositoryImpl) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CustomersRepositoryImpl) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken, `
		SELECT EXISTS(SELECT 1 FROM customer WHERE email = ? AND id <> ?)
	`, email, excludeID)
	if err != nil {
		return false, err
	}
	return taken, nil
}

func isDuplicateKey(err error) bool {
	var merr *mysql.MySQLError
	return errors.As(err, &merr) && merr.Number == 1062
}
