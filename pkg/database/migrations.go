package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultMigrationsPath is where the schema lives relative to the working directory.
	DefaultMigrationsPath = "migrations"

	// MigrationStatementTimeout bounds each migration statement, so a migration
	// blocked on a lock fails instead of hanging startup.
	MigrationStatementTimeout = time.Minute
)

// Migrate opens a database/sql handle to connString for golang-migrate and
// applies the migrations under path. A positive timeout sets statement_timeout
// on the migration session.
func Migrate(connString, path string, timeout time.Duration, logger *zap.Logger) error {
	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}
	connConfig.RuntimeParams["application_name"] = ApplicationName + "-migrate"
	if timeout > 0 {
		connConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	}

	db := stdlib.OpenDB(*connConfig)
	defer db.Close()
	return RunMigrations(db, path, logger)
}

// RunMigrations applies pending migrations from path. It refuses to run on a
// schema left dirty by an earlier failed migration.
func RunMigrations(db *sql.DB, path string, logger *zap.Logger) error {
	if path == "" {
		path = DefaultMigrationsPath
	}
	logger = logger.Named("migrations")

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to open migration driver: %w", ClassifyError(err))
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations from %s: %w", path, err)
	}
	m.Log = migrationLogger{logger: logger}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	from, err := schemaVersion(m)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate from version %d: %w", from, err)
	}

	to, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if to == from {
		logger.Info("Schema up to date", zap.Uint("version", to))
		return nil
	}
	logger.Info("Applied migrations", zap.Uint("from", from), zap.Uint("to", to))
	return nil
}

// schemaVersion returns the applied version, 0 for an empty database.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema is dirty at version %d: a migration failed part way and needs a manual fix", version)
	}
	return version, nil
}

// migrationLogger routes golang-migrate output to zap at debug level.
type migrationLogger struct {
	logger *zap.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrationLogger) Verbose() bool {
	return l.logger.Core().Enabled(zapcore.DebugLevel)
}
