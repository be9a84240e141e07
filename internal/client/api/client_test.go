package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/category"
	"storefront/internal/domain/product"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, srv.URL, nil, nil), srv
}

func TestGetProductsNormalizesImages(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]product.Product{
			{ID: 1, Title: "Aviator", Image: "/media/p/aviator.jpg"},
			{ID: 2, Title: "Hosted", Image: "https://cdn.example.com/h.jpg"},
		})
	}))
	defer srv.Close()

	items, err := c.GetProducts(context.Background(), ProductFilters{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, srv.URL+"/media/p/aviator.jpg", items[0].Image)
	assert.Equal(t, "https://cdn.example.com/h.jpg", items[1].Image)
}

func TestGetProductPromotesGalleryImage(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(product.Product{
			ID: 5,
			Images: []product.Image{
				{ID: 1, Image: "media/gallery/front.jpg"},
				{ID: 2, Image: "media/gallery/side.jpg"},
			},
		})
	}))
	defer srv.Close()

	p, err := c.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/gallery/front.jpg", p.Image)
}

func TestGetProductsCategoryFilter(t *testing.T) {
	var gotSlug string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.URL.Query().Get("category_slug")
		_ = json.NewEncoder(w).Encode([]product.Product{})
	}))
	defer srv.Close()

	_, err := c.GetProducts(context.Background(), ProductFilters{CategorySlug: "sunglasses"})
	require.NoError(t, err)
	assert.Equal(t, "sunglasses", gotSlug)
}

func TestSearchUnwrapsResults(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "aviator", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []product.Product{{ID: 1, Title: "Aviator"}},
			"count":   1,
		})
	}))
	defer srv.Close()

	items, err := c.Search(context.Background(), "aviator")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Aviator", items[0].Title)
}

func TestGetCategoriesFallsBackWhenUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "http://127.0.0.1:1", nil, nil)

	cats, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "sunglasses", cats[0].Slug)
}

func TestGetCategoriesFromBackend(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]category.Category{
			{ID: 10, Name: "Frames", Slug: "frames", Image: "/media/c/frames.jpg"},
		})
	}))
	defer srv.Close()

	cats, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, srv.URL+"/media/c/frames.jpg", cats[0].Image)
}

func TestErrorCarriesBackendMessage(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "product not found"})
	}))
	defer srv.Close()

	_, err := c.GetProduct(context.Background(), 404)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "product not found", apiErr.Message)
}

func TestLoginDecodesPairAndUser(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.c", body["email"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access":  "acc",
			"refresh": "ref",
			"user":    map[string]any{"id": 9, "email": "a@b.c"},
		})
	}))
	defer srv.Close()

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc", res.Access)
	assert.Equal(t, "ref", res.Refresh)
	assert.Equal(t, int64(9), res.User.ID)
}

func TestAuthedCallWithoutSession(t *testing.T) {
	c := New("http://unused", "http://unused", nil, nil)
	_, err := c.Profile(context.Background())
	assert.Error(t, err)
}
