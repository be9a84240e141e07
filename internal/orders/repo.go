package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/order"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type ShippingInput struct {
	Address    string
	City       string
	PostalCode string
	Phone      string
}

// CreateFromCart snapshots the user's cart into an order: unit prices are
// copied into order items so later price changes don't rewrite history,
// and the cart is emptied in the same transaction.
func (r *Repo) CreateFromCart(ctx context.Context, userID int64, in ShippingInput) (order.Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return order.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type line struct {
		productID int64
		variantID *int64
		qty       int
		price     float64
	}

	rows, err := tx.Query(ctx, `
		SELECT ci.product_id, ci.variant_id, ci.quantity,
		       ROUND(COALESCE(p.slashed_price, p.price)::numeric, 2)
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
	`, userID)
	if err != nil {
		return order.Order{}, err
	}

	var lines []line
	var total float64
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.variantID, &l.qty, &l.price); err != nil {
			rows.Close()
			return order.Order{}, err
		}
		total += float64(l.qty) * l.price
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return order.Order{}, err
	}
	if len(lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	var o order.Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, status, total_amount, shipping_address, city, postal_code, phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, order_number, user_id, status, total_amount, shipping_address, city, postal_code, phone, created_at
	`, uuid.NewString(), userID, order.StatusPending, total, in.Address, in.City, in.PostalCode, in.Phone).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Total,
		&o.ShippingAddress, &o.City, &o.PostalCode, &o.Phone, &o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, variant_id, quantity, price_at_purchase)
			VALUES ($1,$2,$3,$4,$5)
		`, o.ID, l.productID, l.variantID, l.qty, l.price)
		if err != nil {
			return order.Order{}, err
		}
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`, userID); err != nil {
		return order.Order{}, err
	}

	o.ItemsCount = len(lines)
	return o, tx.Commit(ctx)
}

func (r *Repo) ListMine(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.id, o.order_number, o.user_id, o.status, o.total_amount, o.created_at,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.ItemsCount); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) GetDetail(ctx context.Context, userID, orderID int64) (order.Order, error) {
	var o order.Order
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, user_id, status, total_amount,
		       shipping_address, city, postal_code, phone, created_at
		FROM orders
		WHERE id=$1 AND user_id=$2
	`, orderID, userID).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Total,
		&o.ShippingAddress, &o.City, &o.PostalCode, &o.Phone, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.product_id, p.title, COALESCE(p.image,''), oi.variant_id, oi.quantity, oi.price_at_purchase
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC
	`, o.ID)
	if err != nil {
		return order.Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var it order.OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductTitle, &it.ProductImage, &it.VariantID, &it.Quantity, &it.Price); err != nil {
			return order.Order{}, err
		}
		it.Total = float64(it.Quantity) * it.Price
		o.Items = append(o.Items, it)
	}
	o.ItemsCount = len(o.Items)
	return o, rows.Err()
}
