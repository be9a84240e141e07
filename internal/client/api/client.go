// Package api is the storefront's REST client for the backend. It is a
// thin request/response mapper: JSON in and out, relative image paths
// normalized to absolute URLs, and a small hardcoded category fallback so
// the UI stays browsable when the backend is unreachable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/category"
	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	"storefront/internal/domain/user"
)

// Doer issues authenticated requests; *session.Session implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	// mediaURL prefixes relative image paths (the backend host).
	mediaURL string
	http     *http.Client
	// authed carries the bearer header and the 401-refresh-retry logic.
	authed Doer
	log    *zap.Logger
}

func New(baseURL, mediaURL string, authed Doer, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		mediaURL: strings.TrimRight(mediaURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		authed:   authed,
		log:      log,
	}
}

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// authedJSON sends an authenticated JSON request through the session.
func (c *Client) authedJSON(ctx context.Context, method, path string, in, out any) error {
	if c.authed == nil {
		return errors.New("api: not logged in")
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.authed.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// absoluteImage resolves a backend-relative image path against the media
// base URL. Absolute URLs and empty paths pass through untouched.
func (c *Client) absoluteImage(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.mediaURL + path
}

func (c *Client) normalizeProduct(p *product.Product) {
	p.Image = c.absoluteImage(p.Image)
	for i := range p.Images {
		p.Images[i].Image = c.absoluteImage(p.Images[i].Image)
	}
	if p.Image == "" && len(p.Images) > 0 {
		// no main image: promote the first gallery shot to the card
		p.Image = p.Images[0].Image
	}
}

// ---- catalog ----

type ProductFilters struct {
	CategorySlug string
}

func (c *Client) GetProducts(ctx context.Context, f ProductFilters) ([]product.Product, error) {
	q := url.Values{}
	if f.CategorySlug != "" {
		q.Set("category_slug", f.CategorySlug)
	}
	var out []product.Product
	if err := c.get(ctx, "/api/products", q, &out); err != nil {
		return nil, err
	}
	for i := range out {
		c.normalizeProduct(&out[i])
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	var out product.Product
	if err := c.get(ctx, "/api/products/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return product.Product{}, err
	}
	c.normalizeProduct(&out)
	return out, nil
}

func (c *Client) Trending(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	if err := c.get(ctx, "/api/products/trending", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		c.normalizeProduct(&out[i])
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]product.Product, error) {
	q := url.Values{}
	q.Set("q", query)
	var out struct {
		Results []product.Product `json:"results"`
	}
	if err := c.get(ctx, "/api/search", q, &out); err != nil {
		return nil, err
	}
	for i := range out.Results {
		c.normalizeProduct(&out.Results[i])
	}
	return out.Results, nil
}

// GetCategories degrades to a fixed fallback list when the backend is
// unreachable so category navigation never renders empty.
func (c *Client) GetCategories(ctx context.Context) ([]category.Category, error) {
	var out []category.Category
	if err := c.get(ctx, "/api/categories", nil, &out); err != nil {
		c.log.Warn("categories unavailable, using fallback", zap.Error(err))
		return fallbackCategories(), nil
	}
	for i := range out {
		out[i].Image = c.absoluteImage(out[i].Image)
	}
	return out, nil
}

func fallbackCategories() []category.Category {
	return []category.Category{
		{ID: 1, Name: "Sunglasses", Slug: "sunglasses"},
		{ID: 2, Name: "Reading Glasses", Slug: "reading-glasses"},
		{ID: 3, Name: "Prescription", Slug: "prescription"},
	}
}

// CategoryPage is the subcategory-first browse response.
type CategoryPage struct {
	Category         string                 `json:"category"`
	SubCategory      string                 `json:"subcategory,omitempty"`
	HasSubCategories bool                   `json:"has_subcategories"`
	SubCategories    []category.SubCategory `json:"subcategories"`
	Products         []product.Product      `json:"products"`
}

func (c *Client) GetCategory(ctx context.Context, slug string) (CategoryPage, error) {
	var out CategoryPage
	if err := c.get(ctx, "/api/categories/"+url.PathEscape(slug), nil, &out); err != nil {
		return CategoryPage{}, err
	}
	for i := range out.Products {
		c.normalizeProduct(&out.Products[i])
	}
	for i := range out.SubCategories {
		out.SubCategories[i].Image = c.absoluteImage(out.SubCategories[i].Image)
	}
	return out, nil
}

func (c *Client) GetSubCategory(ctx context.Context, slug, sub string) (CategoryPage, error) {
	var out CategoryPage
	path := "/api/categories/" + url.PathEscape(slug) + "/" + url.PathEscape(sub)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return CategoryPage{}, err
	}
	for i := range out.Products {
		c.normalizeProduct(&out.Products[i])
	}
	return out, nil
}

// ---- auth ----

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (c *Client) Signup(ctx context.Context, in SignupInput) error {
	return c.send(ctx, http.MethodPost, "/api/auth/signup", in, nil)
}

type LoginResult struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    user.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.send(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, uid, token, newPassword string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"uid":          uid,
		"token":        token,
		"new_password": newPassword,
	}, nil)
}

// ---- account (authenticated) ----

func (c *Client) Profile(ctx context.Context) (user.User, error) {
	var out user.User
	err := c.authedJSON(ctx, http.MethodGet, "/api/accounts/profile", nil, &out)
	return out, err
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (user.User, error) {
	var out user.User
	err := c.authedJSON(ctx, http.MethodPatch, "/api/accounts/profile", in, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.authedJSON(ctx, http.MethodPost, "/api/accounts/change-password", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, nil)
}

func (c *Client) Addresses(ctx context.Context) ([]user.Address, error) {
	var out struct {
		Addresses []user.Address `json:"addresses"`
	}
	err := c.authedJSON(ctx, http.MethodGet, "/api/accounts/addresses", nil, &out)
	return out.Addresses, err
}

type AddressInput struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

func (c *Client) CreateAddress(ctx context.Context, in AddressInput) (user.Address, error) {
	var out user.Address
	err := c.authedJSON(ctx, http.MethodPost, "/api/accounts/addresses", in, &out)
	return out, err
}

func (c *Client) UpdateAddress(ctx context.Context, id int64, in AddressInput) (user.Address, error) {
	var out user.Address
	err := c.authedJSON(ctx, http.MethodPatch, "/api/accounts/addresses/"+strconv.FormatInt(id, 10), in, &out)
	return out, err
}

func (c *Client) DeleteAddress(ctx context.Context, id int64) error {
	return c.authedJSON(ctx, http.MethodDelete, "/api/accounts/addresses/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SetDefaultAddress(ctx context.Context, id int64) error {
	return c.authedJSON(ctx, http.MethodPost, "/api/accounts/addresses/"+strconv.FormatInt(id, 10)+"/default", nil, nil)
}

// ---- cart (authenticated) ----

func (c *Client) GetCart(ctx context.Context) (cart.Cart, error) {
	var out cart.Cart
	if err := c.authedJSON(ctx, http.MethodGet, "/api/orders/cart", nil, &out); err != nil {
		return cart.Cart{}, err
	}
	for i := range out.Items {
		out.Items[i].Product.Image = c.absoluteImage(out.Items[i].Product.Image)
	}
	return out, nil
}

type AddToCartInput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (c *Client) AddToCart(ctx context.Context, in AddToCartInput) error {
	return c.authedJSON(ctx, http.MethodPost, "/api/orders/cart/add", in, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	return c.authedJSON(ctx, http.MethodPost, "/api/orders/cart/update/"+strconv.FormatInt(itemID, 10),
		map[string]int{"quantity": quantity}, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, itemID int64) error {
	return c.authedJSON(ctx, http.MethodDelete, "/api/orders/cart/remove/"+strconv.FormatInt(itemID, 10), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.authedJSON(ctx, http.MethodDelete, "/api/orders/cart/clear", nil, nil)
}

// ---- orders (authenticated) ----

type CreateOrderInput struct {
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
	PostalCode      string `json:"postal_code"`
	Phone           string `json:"phone"`
}

func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (order.Order, error) {
	var out struct {
		Order order.Order `json:"order"`
	}
	err := c.authedJSON(ctx, http.MethodPost, "/api/orders/create", in, &out)
	return out.Order, err
}

func (c *Client) MyOrders(ctx context.Context) ([]order.Order, error) {
	var out struct {
		Orders []order.Order `json:"orders"`
	}
	err := c.authedJSON(ctx, http.MethodGet, "/api/orders/my-orders", nil, &out)
	return out.Orders, err
}

func (c *Client) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	var out struct {
		Order order.Order `json:"order"`
	}
	err := c.authedJSON(ctx, http.MethodGet, "/api/orders/"+strconv.FormatInt(id, 10), nil, &out)
	for i := range out.Order.Items {
		out.Order.Items[i].ProductImage = c.absoluteImage(out.Order.Items[i].ProductImage)
	}
	return out.Order, err
}
