package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
)

// LoginCodeRepository stores single-use login codes.
type LoginCodeRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLoginCodeRepository creates a new SQLite login code repository
func NewLoginCodeRepository(pool *ConnectionPool) *LoginCodeRepository {
	return &LoginCodeRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateLoginCode stores a freshly issued code.
func (r *LoginCodeRepository) CreateLoginCode(ctx context.Context, code persistence.LoginCode) error {
	if code.ID == "" || code.UserID == "" || code.SecretHash == "" {
		return persistence.ErrConstraintViolation
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO login_codes (id, user_id, secret_hash, expires_at, created_at, used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, code.ID, code.UserID, code.SecretHash, formatTime(code.ExpiresAt), formatTime(code.CreatedAt), formatNullableTime(code.UsedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetLoginCode retrieves a code by ID.
func (r *LoginCodeRepository) GetLoginCode(ctx context.Context, id string) (persistence.LoginCode, error) {
	var code persistence.LoginCode
	var expiresAt, createdAt string
	var usedAt sql.NullString
	err := r.helper.QueryRow(ctx, `
		SELECT id, user_id, secret_hash, expires_at, created_at, used_at
		FROM login_codes
		WHERE id = ?
	`, id).Scan(&code.ID, &code.UserID, &code.SecretHash, &expiresAt, &createdAt, &usedAt)
	if err != nil {
		return persistence.LoginCode{}, r.mapper.MapError(err)
	}

	if code.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.LoginCode{}, err
	}
	if code.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.LoginCode{}, err
	}
	if code.UsedAt, err = parseNullableTime(usedAt); err != nil {
		return persistence.LoginCode{}, err
	}
	return code, nil
}

// MarkLoginCodeUsed consumes a code. Only the first caller succeeds.
func (r *LoginCodeRepository) MarkLoginCodeUsed(ctx context.Context, id string, usedAt time.Time) error {
	result, err := r.helper.Exec(ctx, `UPDATE login_codes SET used_at = ? WHERE id = ? AND used_at IS NULL`, formatTime(usedAt), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists int
	if err := r.helper.QueryRow(ctx, `SELECT 1 FROM login_codes WHERE id = ?`, id).Scan(&exists); err != nil {
		return r.mapper.MapError(err)
	}
	return persistence.ErrConflict
}
