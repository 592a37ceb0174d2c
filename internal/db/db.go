// internal/db/db.go
package db

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-migrate/migrate/v4"
    "github.com/golang-migrate/migrate/v4/database/postgres"
    _ "github.com/golang-migrate/migrate/v4/source/file"
    "github.com/jmoiron/sqlx"
    _ "github.com/lib/pq"
    "github.com/sirupsen/logrus"
)

// Init opens the pool and checks the connection.
func Init(dsn string, maxOpen int) (*sqlx.DB, error) {
    DB, err := sqlx.Connect("postgres", dsn)
    if err != nil {
        return nil, fmt.Errorf("connect to DB: %w", err)
    }

    DB.SetMaxOpenConns(maxOpen)
    DB.SetMaxIdleConns(maxOpen / 5)
    DB.SetConnMaxLifetime(5 * time.Minute)

    logrus.Info("✅ Connected to database")
    return DB, nil
}

// Migrate applies every pending migration found at source (e.g. file://migrations).
func Migrate(DB *sqlx.DB, source string) error {
    driver, err := postgres.WithInstance(DB.DB, &postgres.Config{})
    if err != nil {
        return fmt.Errorf("create migrate driver: %w", err)
    }

    m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
    if err != nil {
        return fmt.Errorf("init migrator: %w", err)
    }

    if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
        return fmt.Errorf("apply migrations: %w", err)
    }
    logrus.Info("MIGRATIONS: database is up to date")
    return nil
}
