// Package repomanager wires repository constructors and database migrations
// behind one seam, so services and tests can swap storage backends.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mkorolev/gatekeeper/internal/server/repositories/refreshrecords"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/users"
)

// RepositoryManager hands out the stores backing the authentication core.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	RefreshRecords() refreshrecords.Repository
	Conn() *sql.DB
}
