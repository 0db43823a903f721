package cityhall

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/brgy-santafe/registry/internal/shared/config"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// MSSQLDirectory reads the resident roster from the city hall SQL
// Server instance.
type MSSQLDirectory struct {
	db    *sql.DB
	table string
}

// NewMSSQLDirectory opens a connection to the city hall registry and
// verifies it.
func NewMSSQLDirectory(ctx context.Context, cfg config.CityHallConfig) (*MSSQLDirectory, error) {
	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s;encrypt=true;TrustServerCertificate=true",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open city hall database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping city hall database: %w", err)
	}

	return &MSSQLDirectory{db: db, table: "dbo.Residents"}, nil
}

var _ Directory = (*MSSQLDirectory)(nil)

// FindResidentEmail matches residents by name, case-insensitively. The
// registry stores one row per resident; homonyms resolve to the first
// match the same way the clerks' manual lookup does.
func (d *MSSQLDirectory) FindResidentEmail(ctx context.Context, name types.PersonName) (string, error) {
	query := fmt.Sprintf(`SELECT TOP 1 Email FROM %s
		WHERE LOWER(Firstname) = LOWER(@p1) AND LOWER(Lastname) = LOWER(@p2)
		  AND (@p3 = '' OR LOWER(Middlename) = LOWER(@p3))`, d.table)

	var email sql.NullString
	err := d.db.QueryRowContext(ctx, query, name.FirstName, name.LastName, name.MiddleName).Scan(&email)
	if err == sql.ErrNoRows {
		return "", errors.NotFound("resident", name.Full())
	}
	if err != nil {
		return "", fmt.Errorf("query city hall registry: %w", err)
	}
	if !email.Valid || email.String == "" {
		return "", errors.NotFound("resident email", name.Full())
	}
	return email.String, nil
}

func (d *MSSQLDirectory) Health(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *MSSQLDirectory) Close() error {
	return d.db.Close()
}
