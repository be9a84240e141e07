package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ResetRepo struct {
	db *pgxpool.Pool
}

func NewResetRepo(db *pgxpool.Pool) *ResetRepo {
	return &ResetRepo{db: db}
}

func (r *ResetRepo) Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_resets (user_id, token_hash, expires_at)
		VALUES ($1,$2,$3)
	`, userID, tokenHash, expiresAt)
	return err
}

// Consume marks the token used and returns its user; a token can only be
// consumed once and only before it expires.
func (r *ResetRepo) Consume(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		UPDATE password_resets
		SET used_at=now()
		WHERE user_id=$1 AND token_hash=$2
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id
	`, userID, tokenHash).Scan(&id)
	if err != nil {
		// no rows: invalid, expired, or already used
		return false, nil
	}
	return true, nil
}
