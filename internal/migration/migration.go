package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/scanverify/pkg/db"
)

// RunMigrations applies the embedded schema for dialect. SQLite is not
// handled here; it is migrated from the gorm model instead.
func RunMigrations(sqlDB *sql.DB, dialect string) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	src, err := sourceFor(dialect)
	if err != nil {
		return err
	}

	driver, err := driverFor(sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func sourceFor(dialect string) (source.Driver, error) {
	switch dialect {
	case db.TypeMySQL, db.TypePostgres:
	default:
		return nil, fmt.Errorf("no embedded migrations for dialect %q", dialect)
	}

	sub, err := fs.Sub(embeddedMigrations, path.Join(migrationsDir, dialect))
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}

	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return src, nil
}

func driverFor(sqlDB *sql.DB, dialect string) (database.Driver, error) {
	switch dialect {
	case db.TypeMySQL:
		return mysql.WithInstance(sqlDB, &mysql.Config{})
	case db.TypePostgres:
		return postgres.WithInstance(sqlDB, &postgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
