package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mkorolev/gatekeeper/internal/server/migrations"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/refreshrecords"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/users"
)

// PostgresRepositoryManager is the PostgreSQL-backed RepositoryManager.
type PostgresRepositoryManager struct {
	db             *sql.DB
	users          users.Repository
	refreshRecords refreshrecords.Repository
}

// NewPostgresRepositoryManager opens a pgx-driven connection pool for dsn and
// constructs the repositories over it.
func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	return &PostgresRepositoryManager{
		db:             db,
		users:          users.NewPostgresRepository(db),
		refreshRecords: refreshrecords.NewPostgresRepository(db),
	}, nil
}

func (m *PostgresRepositoryManager) Conn() *sql.DB { return m.db }

func (m *PostgresRepositoryManager) Users() users.Repository { return m.users }

func (m *PostgresRepositoryManager) RefreshRecords() refreshrecords.Repository {
	return m.refreshRecords
}

// gooseUpContext is a seam for testing RunMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
