package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("out of stock")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) getOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	var cartID int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, userID).Scan(&cartID)
	return cartID, err
}

// availableStock resolves the stock that applies to a line: the variant's
// own stock when a variant is chosen, else the product counter.
func (r *Repo) availableStock(ctx context.Context, productID int64, variantID *int64) (int, error) {
	if variantID != nil {
		var stock int
		err := r.db.QueryRow(ctx, `
			SELECT v.stock
			FROM product_variants v
			JOIN products p ON p.id = v.product_id
			WHERE v.id=$1 AND v.product_id=$2 AND p.is_active = true
		`, *variantID, productID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return stock, err
	}

	var stock int
	var stockType string
	err := r.db.QueryRow(ctx, `
		SELECT stock, stock_type FROM products WHERE id=$1 AND is_active = true
	`, productID).Scan(&stock, &stockType)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	if stockType == product.StockTypeVariants {
		// variant-tracked product added without a variant: no stock to sell
		return 0, nil
	}
	return stock, nil
}

// AddItem upserts a line keyed by (cart, product, variant) and caps the
// resulting quantity at available stock. Returns the stored quantity and
// whether the request was capped.
func (r *Repo) AddItem(ctx context.Context, userID, productID int64, variantID *int64, qty int) (int64, int, bool, error) {
	stock, err := r.availableStock(ctx, productID, variantID)
	if err != nil {
		return 0, 0, false, err
	}
	if stock <= 0 {
		return 0, 0, false, ErrOutOfStock
	}

	cartID, err := r.getOrCreateCartID(ctx, userID)
	if err != nil {
		return 0, 0, false, err
	}

	var prev int
	err = r.db.QueryRow(ctx, `
		SELECT quantity FROM cart_items
		WHERE cart_id=$1 AND product_id=$2 AND COALESCE(variant_id,0)=COALESCE($3,0)
	`, cartID, productID, variantID).Scan(&prev)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, err
	}

	want := prev + qty
	stored := want
	if stored > stock {
		stored = stock
	}

	var itemID int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, variant_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cart_id, product_id, COALESCE(variant_id, 0))
		DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id
	`, cartID, productID, variantID, stored).Scan(&itemID)
	if err != nil {
		return 0, 0, false, err
	}
	return itemID, stored, want > stock, nil
}

// clampQty bounds an absolute quantity to [1, stock]. Stock that has run
// out entirely is an error, not a floor of 1.
func clampQty(qty, stock int) (int, error) {
	if stock <= 0 {
		return 0, ErrOutOfStock
	}
	if qty > stock {
		qty = stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty, nil
}

// UpdateQty sets an absolute quantity (>=1), capped at available stock.
func (r *Repo) UpdateQty(ctx context.Context, userID, itemID int64, qty int) (int, error) {
	var productID int64
	var variantID *int64
	err := r.db.QueryRow(ctx, `
		SELECT ci.product_id, ci.variant_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id=$1 AND c.user_id=$2
	`, itemID, userID).Scan(&productID, &variantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}

	stock, err := r.availableStock(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	capped, err := clampQty(qty, stock)
	if err != nil {
		return 0, err
	}

	var stored int
	err = r.db.QueryRow(ctx, `
		UPDATE cart_items SET quantity=$2 WHERE id=$1 RETURNING quantity
	`, itemID, capped).Scan(&stored)
	return stored, err
}

func (r *Repo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	ct, err := r.db.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id=$1 AND ci.cart_id = c.id AND c.user_id=$2
	`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1
	`, userID)
	return err
}

func (r *Repo) GetCart(ctx context.Context, userID int64) (cart.Cart, error) {
	cartID, err := r.getOrCreateCartID(ctx, userID)
	if err != nil {
		return cart.Cart{}, err
	}

	out := cart.Cart{ID: cartID, UserID: userID, Items: []cart.CartItem{}}

	rows, err := r.db.Query(ctx, `
		SELECT
		  ci.id, ci.quantity,
		  p.id, p.title,
		  ROUND(COALESCE(p.slashed_price, p.price)::numeric, 2),
		  COALESCE(p.image,''),
		  COALESCE(c2.name,''), COALESCE(c2.slug,''),
		  p.stock, p.stock_type,
		  v.id, v.size_name, v.color_name, v.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN categories c2 ON c2.id = p.category_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at DESC, ci.id DESC
	`, cartID)
	if err != nil {
		return cart.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.CartItem
		var variantID *int64
		var sizeName, colorName *string
		var variantStock *int
		if err := rows.Scan(
			&it.ID, &it.Quantity,
			&it.Product.ID, &it.Product.Title, &it.Product.Price, &it.Product.Image,
			&it.Product.Category, &it.Product.CategorySlug,
			&it.Product.Stock, &it.Product.StockType,
			&variantID, &sizeName, &colorName, &variantStock,
		); err != nil {
			return cart.Cart{}, err
		}
		if variantID != nil {
			v := &cart.ItemVariant{ID: *variantID, Stock: *variantStock}
			if sizeName != nil {
				v.SizeName = *sizeName
			}
			if colorName != nil {
				v.ColorName = *colorName
			}
			it.Variant = v
		}
		out.Total += float64(it.Quantity) * it.Product.Price
		out.Items = append(out.Items, it)
	}
	out.Count = len(out.Items)
	return out, rows.Err()
}
