package products

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain/product"
)

const trendingLimit = 12

type Handler struct {
	repo     *Repo
	activity *Activity
}

func NewHandler(repo *Repo, activity *Activity) *Handler {
	return &Handler{repo: repo, activity: activity}
}

// Public: list products (optional category_slug filter)
func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.ListPublic(c.Request.Context(), ListFilter{
		CategorySlug: c.Query("category_slug"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	if items == nil {
		items = make([]product.Product, 0)
	}
	c.JSON(http.StatusOK, items)
}

// Public: product details with variants and gallery
func (h *Handler) Get(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	p, err := h.repo.GetPublic(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}

	if err := h.activity.RecordView(c.Request.Context(), p.ID); err != nil {
		log.Printf("record view failed: %v", err)
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	items, err := h.repo.ListPublic(c.Request.Context(), ListFilter{Search: q})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if items == nil {
		items = make([]product.Product, 0)
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "count": len(items)})
}

// Trending ranks by redis view counts; without redis (or view history) it
// falls back to the newest products.
func (h *Handler) Trending(c *gin.Context) {
	ids, err := h.activity.TopViewed(c.Request.Context(), trendingLimit)
	if err != nil {
		log.Printf("trending rank failed: %v", err)
	}

	var items []product.Product
	if len(ids) > 0 {
		items, err = h.repo.ByIDs(c.Request.Context(), ids)
	}
	if err == nil && len(items) == 0 {
		items, err = h.repo.ListPublic(c.Request.Context(), ListFilter{Limit: trendingLimit})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trending products"})
		return
	}
	if items == nil {
		items = make([]product.Product, 0)
	}
	c.JSON(http.StatusOK, items)
}
