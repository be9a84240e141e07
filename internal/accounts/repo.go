package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/user"
)

var ErrNotFound = errors.New("address not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const addressCols = `id, user_id, full_name, phone, line1, COALESCE(line2,''), city, postal_code, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (user.Address, error) {
	var a user.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repo) ListAddresses(ctx context.Context, userID int64) ([]user.Address, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+addressCols+`
		FROM addresses
		WHERE user_id=$1
		ORDER BY is_default DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type AddressInput struct {
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	PostalCode string
	IsDefault  bool
}

func (r *Repo) CreateAddress(ctx context.Context, userID int64, in AddressInput) (user.Address, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return user.Address{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if in.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return user.Address{}, err
		}
	}

	a, err := scanAddress(tx.QueryRow(ctx, `
		INSERT INTO addresses (user_id, full_name, phone, line1, line2, city, postal_code, is_default)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8)
		RETURNING `+addressCols+`
	`, userID, in.FullName, in.Phone, in.Line1, in.Line2, in.City, in.PostalCode, in.IsDefault))
	if err != nil {
		return user.Address{}, err
	}
	return a, tx.Commit(ctx)
}

func (r *Repo) UpdateAddress(ctx context.Context, userID, id int64, in AddressInput) (user.Address, error) {
	a, err := scanAddress(r.db.QueryRow(ctx, `
		UPDATE addresses
		SET full_name=$3, phone=$4, line1=$5, line2=NULLIF($6,''), city=$7, postal_code=$8, updated_at=now()
		WHERE id=$1 AND user_id=$2
		RETURNING `+addressCols+`
	`, id, userID, in.FullName, in.Phone, in.Line1, in.Line2, in.City, in.PostalCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return user.Address{}, ErrNotFound
	}
	return a, err
}

func (r *Repo) DeleteAddress(ctx context.Context, userID, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetDefaultAddress(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `UPDATE addresses SET is_default=true, updated_at=now() WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
