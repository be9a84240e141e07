package categories

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain/category"
	"storefront/internal/domain/product"
	"storefront/internal/products"
)

type Handler struct {
	repo     *Repo
	products *products.Repo
}

func NewHandler(repo *Repo, prods *products.Repo) *Handler {
	return &Handler{repo: repo, products: prods}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	if items == nil {
		items = make([]category.Category, 0)
	}
	c.JSON(http.StatusOK, items)
}

// Get implements the subcategory-first browse flow: a category with
// populated subcategories returns the subcategory tiles and no products;
// otherwise its products are returned directly.
func (h *Handler) Get(c *gin.Context) {
	slug := c.Param("slug")

	cat, err := h.repo.BySlug(c.Request.Context(), slug)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load category"})
		return
	}

	subs, err := h.repo.SubCategoriesWithProducts(c.Request.Context(), cat.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load category"})
		return
	}

	if len(subs) > 0 {
		c.JSON(http.StatusOK, gin.H{
			"category":          cat.Name,
			"has_subcategories": true,
			"subcategories":     subs,
			"products":          []product.Product{},
		})
		return
	}

	items, err := h.products.ListPublic(c.Request.Context(), products.ListFilter{CategorySlug: cat.Slug})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load category products"})
		return
	}
	if items == nil {
		items = make([]product.Product, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"category":          cat.Name,
		"has_subcategories": false,
		"subcategories":     []category.SubCategory{},
		"products":          items,
	})
}

func (h *Handler) GetSubCategory(c *gin.Context) {
	sub, cat, err := h.repo.SubCategoryBySlug(c.Request.Context(), c.Param("slug"), c.Param("sub"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subcategory not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subcategory"})
		return
	}

	items, err := h.products.ListPublic(c.Request.Context(), products.ListFilter{SubCategoryID: sub.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subcategory products"})
		return
	}
	if items == nil {
		items = make([]product.Product, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"category":    cat.Name,
		"subcategory": sub.Name,
		"products":    items,
	})
}
