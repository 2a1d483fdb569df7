package refreshrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/dbx"
	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// PostgresRepository implements Repository on PostgreSQL. It holds *sql.DB
// (not just a DBTX) because Rotate opens its own transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.RefreshRecord) error {
	return createIn(ctx, r.db, rec)
}

func createIn(ctx context.Context, db dbx.DBTX, rec *models.RefreshRecord) error {
	query := `
		INSERT INTO refresh_records (token_id, user_id, issued_at, expires_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := db.ExecContext(ctx, query,
		rec.TokenID, rec.UserID, rec.IssuedAt, rec.ExpiresAt, string(rec.Status)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenID string) (*models.RefreshRecord, error) {
	query := `
		SELECT token_id, user_id, issued_at, expires_at, status
		FROM refresh_records
		WHERE token_id = $1
	`

	rec := &models.RefreshRecord{}
	var status string
	err := r.db.QueryRowContext(ctx, query, tokenID).
		Scan(&rec.TokenID, &rec.UserID, &rec.IssuedAt, &rec.ExpiresAt, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Status = models.RefreshStatus(status)
	return rec, nil
}

// Rotate runs the Active->Rotated transition and the insert of the successor
// record in a single transaction. The conditional UPDATE is the
// compare-and-swap: zero rows affected means the record was already rotated,
// revoked, or never existed, and the whole transaction rolls back with
// common.ErrTokenRevoked.
func (r *PostgresRepository) Rotate(ctx context.Context, oldTokenID string, next *models.RefreshRecord) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE refresh_records SET status = $2
			WHERE token_id = $1 AND status = $3
		`, oldTokenID, string(models.RefreshStatusRotated), string(models.RefreshStatusActive))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return common.ErrTokenRevoked
		}

		return createIn(ctx, tx, next)
	})
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE refresh_records SET status = $2
		WHERE token_id = $1 AND status = $3
	`
	// No rows affected means the record is already terminal or unknown;
	// revocation is idempotent, so that is success.
	if _, err := r.db.ExecContext(ctx, query,
		tokenID, string(models.RefreshStatusRevoked), string(models.RefreshStatusActive)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_records SET status = $2
		WHERE user_id = $1 AND status = $3
	`
	if _, err := r.db.ExecContext(ctx, query,
		userID, string(models.RefreshStatusRevoked), string(models.RefreshStatusActive)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
