// Package database opens the MySQL pool and applies schema migrations
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationsTable is the golang-migrate bookkeeping table
const MigrationsTable = "factify_schema_migrations"

// Connect connects to the database
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunMigrations runs database migrations
func RunMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(MigrationPath(), "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationPath returns the migrations source URL.
// MIGRATIONS_DIR wins, otherwise ./migrations is tried before ../migrations.
func MigrationPath() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return "file://" + dir
	}
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Running from cmd/<name>
		if _, err := os.Stat("../migrations"); err == nil {
			return "file://../migrations"
		}
	}
	return "file://migrations"
}
