package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain/category"
)

var ErrNotFound = errors.New("category not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ListActive(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, COALESCE(image,''), is_active, sort_order, created_at, updated_at
		FROM categories
		WHERE is_active = true
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) BySlug(ctx context.Context, slug string) (category.Category, error) {
	var c category.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, COALESCE(image,''), is_active, sort_order, created_at, updated_at
		FROM categories
		WHERE slug=$1 AND is_active = true
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return category.Category{}, ErrNotFound
	}
	return c, err
}

// SubCategoriesWithProducts lists subcategories of a category that have at
// least one active product. Empty subcategories are hidden from the tiles.
func (r *Repo) SubCategoriesWithProducts(ctx context.Context, categoryID int64) ([]category.SubCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.category_id, s.name, s.slug, COALESCE(s.image,''), COUNT(p.id) AS product_count
		FROM sub_categories s
		JOIN products p ON p.sub_category_id = s.id AND p.is_active = true
		WHERE s.category_id = $1
		GROUP BY s.id
		ORDER BY s.name ASC
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []category.SubCategory
	for rows.Next() {
		var s category.SubCategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.Image, &s.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) SubCategoryBySlug(ctx context.Context, categorySlug, subSlug string) (category.SubCategory, category.Category, error) {
	var s category.SubCategory
	var c category.Category
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.category_id, s.name, s.slug, COALESCE(s.image,''),
		       c.id, c.name, c.slug
		FROM sub_categories s
		JOIN categories c ON c.id = s.category_id
		WHERE s.slug=$1 AND c.slug=$2 AND c.is_active = true
	`, subSlug, categorySlug).Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.Image, &c.ID, &c.Name, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return category.SubCategory{}, category.Category{}, ErrNotFound
	}
	return s, c, err
}
