package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmehdipour/customer-portal/internal/config"
	"github.com/jmehdipour/customer-portal/internal/db"
	"github.com/jmehdipour/customer-portal/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a demo user and demo customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo user and customers...")

		if err := seedUser(sqlDB); err != nil {
			return err
		}
		if err := seedCustomers(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedUser inserts the demo login (demo@example.com / password), idempotent
// on the email unique key.
func seedUser(dbx *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	const q = `
INSERT INTO users (name, email, password_hash, created_at)
VALUES (?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE
    name          = VALUES(name),
    password_hash = VALUES(password_hash)
`
	if _, err := dbx.Exec(q, "Demo User", "demo@example.com", string(hash)); err != nil {
		return fmt.Errorf("insert demo user: %w", err)
	}
	return nil
}

// seedCustomers inserts deterministic demo customers (idempotent on email).
func seedCustomers(dbx *sqlx.DB) error {
	customers := []model.NewCustomer{
		{FirstName: "John", LastName: "Doe", Age: 30, DOB: "1992-05-15", Email: "john.doe@example.com"},
		{FirstName: "Jane", LastName: "Smith", Age: 25, DOB: "1997-02-28", Email: "jane.smith@example.com"},
		{FirstName: "Alice", LastName: "Brown", Age: 41, DOB: "1983-11-02", Email: "alice.brown@example.com"},
		{FirstName: "Bob", LastName: "Taylor", Age: 36, DOB: "1988-07-09", Email: "bob.taylor@example.com"},
		{FirstName: "Carol", LastName: "Jones", Age: 29, DOB: "1995-01-21", Email: "carol.jones@example.com"},
	}

	const q = `
INSERT INTO customer (first_name, last_name, age, dob, email, creation_date)
VALUES (?, ?, ?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE
    first_name = VALUES(first_name),
    last_name  = VALUES(last_name),
    age        = VALUES(age),
    dob        = VALUES(dob)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range customers {
		if _, err := tx.Exec(q, c.FirstName, c.LastName, c.Age, c.DOB, c.Email); err != nil {
			return fmt.Errorf("insert customer %q: %w", c.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit customers: %w", err)
	}
	return nil
}
