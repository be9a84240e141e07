package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/user"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, email, passwordHash, firstName, lastName string) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1,$2,$3,$4)
		RETURNING id, email, password_hash, first_name, last_name, COALESCE(phone,''), is_active, created_at, updated_at
	`, email, passwordHash, firstName, lastName).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, COALESCE(phone,''), is_active, created_at, updated_at
		FROM users WHERE email=$1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, COALESCE(phone,''), is_active, created_at, updated_at
		FROM users WHERE id=$1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone *string) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    last_name  = COALESCE($3, last_name),
		    phone      = COALESCE($4, phone),
		    updated_at = now()
		WHERE id=$1
		RETURNING id, email, password_hash, first_name, last_name, COALESCE(phone,''), is_active, created_at, updated_at
	`, id, firstName, lastName, phone).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, newHash string) error {
	ct, err := r.db.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=now() WHERE id=$2`, newHash, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("user not found")
	}
	return nil
}
