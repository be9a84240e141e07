package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/product"
)

var ErrNotFound = errors.New("product not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const productCols = `
	p.id, p.title, p.slug, COALESCE(p.description,''),
	p.price, p.slashed_price, p.discount_percent,
	p.stock, p.stock_type,
	p.category_id, COALESCE(c.name,''), COALESCE(c.slug,''),
	p.sub_category_id, COALESCE(p.image,''),
	p.is_active, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description,
		&p.Price, &p.SlashedPrice, &p.DiscountPercent,
		&p.Stock, &p.StockType,
		&p.CategoryID, &p.Category, &p.CategorySlug,
		&p.SubCategoryID, &p.Image,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type ListFilter struct {
	CategorySlug  string
	SubCategoryID int64
	Search        string
	Limit         int
}

func (r *Repo) ListPublic(ctx context.Context, f ListFilter) ([]product.Product, error) {
	q := `
		SELECT ` + productCols + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active = true
	`
	args := []any{}
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		q += ` AND c.slug = $` + strconv.Itoa(len(args))
	}
	if f.SubCategoryID != 0 {
		args = append(args, f.SubCategoryID)
		q += ` AND p.sub_category_id = $` + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		ph := `$` + strconv.Itoa(len(args))
		q += ` AND (p.title ILIKE '%'||` + ph + `||'%' OR p.description ILIKE '%'||` + ph + `||'%')`
	}
	q += ` ORDER BY p.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachDetails(ctx, out)
}

func (r *Repo) GetPublic(ctx context.Context, id int64) (product.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.is_active = true
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	if err != nil {
		return product.Product{}, err
	}

	out := []product.Product{p}
	if err := r.attachDetails(ctx, out); err != nil {
		return product.Product{}, err
	}
	return out[0], nil
}

// ByIDs loads products preserving the order of ids (used by trending).
func (r *Repo) ByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1) AND p.is_active = true
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]product.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, r.attachDetails(ctx, out)
}

// attachDetails batch-loads variants and gallery images for the given
// products in place.
func (r *Repo) attachDetails(ctx context.Context, ps []product.Product) error {
	if len(ps) == 0 {
		return nil
	}
	ids := make([]int64, len(ps))
	idx := make(map[int64]int, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
		idx[p.ID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, COALESCE(size_name,''), COALESCE(color_name,''), price, stock, COALESCE(sku,'')
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v product.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SizeName, &v.ColorName, &v.Price, &v.Stock, &v.SKU); err != nil {
			return err
		}
		i := idx[v.ProductID]
		ps[i].Variants = append(ps[i].Variants, v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	imgRows, err := r.db.Query(ctx, `
		SELECT id, product_id, image
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var id, productID int64
		var img string
		if err := imgRows.Scan(&id, &productID, &img); err != nil {
			return err
		}
		i := idx[productID]
		ps[i].Images = append(ps[i].Images, product.Image{ID: id, Image: img})
	}
	return imgRows.Err()
}
