// Package store is the single source of truth for the shopping cart. It
// reconciles local (guest) state with the server cart: while logged in the
// server cart is authoritative, so every mutation goes to the backend first
// and the store reloads the result instead of trusting its own arithmetic.
// Guests mutate local state directly, persisted through localstore.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/client/api"
	"storefront/internal/client/localstore"
	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
)

// ErrMutationPending rejects a second mutation on a cart line while a
// remote call for that line is still in flight (double-click protection).
var ErrMutationPending = errors.New("cart: mutation already in flight for this item")

// Remote is the slice of the backend API the store needs. *api.Client
// satisfies it.
type Remote interface {
	GetCart(ctx context.Context) (cart.Cart, error)
	AddToCart(ctx context.Context, in api.AddToCartInput) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveFromCart(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
}

// NoticeFunc receives non-fatal user-facing messages such as the stock cap
// notice. Notices are not errors: the mutation still applied, capped.
type NoticeFunc func(msg string)

// VariantRef identifies the chosen size/color SKU of a line.
type VariantRef struct {
	ID        int64  `json:"id"`
	SizeName  string `json:"size_name,omitempty"`
	ColorName string `json:"color_name,omitempty"`
	Stock     int    `json:"stock"`
}

// Line is one cart entry. ID is the server cart-line id and is zero for
// guest lines that have never been pushed.
type Line struct {
	ID        int64       `json:"id,omitempty"`
	ProductID int64       `json:"product_id"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Image     string      `json:"image,omitempty"`
	Category  string      `json:"category,omitempty"`
	Stock     int         `json:"stock"`
	StockType string      `json:"stock_type"`
	Qty       int         `json:"qty"`
	Variant   *VariantRef `json:"variant,omitempty"`
}

// lineKey uniquely identifies a line: product plus chosen variant (zero
// when none).
type lineKey struct {
	productID int64
	variantID int64
}

func (l Line) key() lineKey {
	k := lineKey{productID: l.ProductID}
	if l.Variant != nil {
		k.variantID = l.Variant.ID
	}
	return k
}

// availableStock resolves the cap that applies to the line: the variant's
// stock when the product tracks stock per variant and one is chosen,
// otherwise the product counter.
func (l Line) availableStock() int {
	if l.StockType == product.StockTypeVariants && l.Variant != nil {
		return l.Variant.Stock
	}
	return l.Stock
}

type Store struct {
	local  *localstore.Store
	remote Remote
	// authed reports whether a user is logged in; the session provides it.
	authed func() bool
	notice NoticeFunc
	log    *zap.Logger

	mu      sync.Mutex
	lines   []Line
	pending map[lineKey]bool
}

func New(local *localstore.Store, remote Remote, authed func() bool, notice NoticeFunc, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if notice == nil {
		notice = func(string) {}
	}
	if authed == nil {
		authed = func() bool { return false }
	}

	s := &Store{
		local:   local,
		remote:  remote,
		authed:  authed,
		notice:  notice,
		log:     log,
		pending: make(map[lineKey]bool),
	}

	// rehydrate the guest cart
	var saved []Line
	if err := local.Get(localstore.KeyCart, &saved); err == nil {
		s.lines = saved
	} else if !errors.Is(err, localstore.ErrNotFound) {
		log.Warn("saved cart unreadable, starting empty", zap.Error(err))
	}
	return s
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total is the sum of qty times unit price over all lines.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, l := range s.lines {
		total += float64(l.Qty) * l.Price
	}
	return total
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// acquire marks a line mutation in flight. The second caller loses.
func (s *Store) acquire(k lineKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[k] {
		return ErrMutationPending
	}
	s.pending[k] = true
	return nil
}

func (s *Store) release(k lineKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, k)
}

// Add puts an item in the cart, or bumps its quantity when the same
// product+variant is already there. The resulting quantity is capped at
// available stock; hitting the cap emits a notice, not an error. Logged in,
// the add goes to the backend and the server cart is reloaded afterwards.
func (s *Store) Add(ctx context.Context, item Line) error {
	if item.Qty <= 0 {
		item.Qty = 1
	}
	k := item.key()
	if err := s.acquire(k); err != nil {
		return err
	}
	defer s.release(k)

	stock := item.availableStock()

	s.mu.Lock()
	existing, found := s.findLocked(k)
	prev := 0
	if found {
		prev = existing.Qty
	}
	s.mu.Unlock()

	want := prev + item.Qty
	final := want
	if final > stock {
		final = stock
		s.notice(fmt.Sprintf("Maximum %d allowed", stock))
	}
	if final <= 0 {
		// nothing sellable; notice already surfaced for stock 0
		return nil
	}

	if s.authed() {
		in := api.AddToCartInput{ProductID: item.ProductID, Quantity: item.Qty}
		if item.Variant != nil {
			id := item.Variant.ID
			in.VariantID = &id
		}
		if err := s.remote.AddToCart(ctx, in); err != nil {
			s.log.Error("remote add failed", zap.Int64("product_id", item.ProductID), zap.Error(err))
			return err
		}
		// the server applied its own cap; trust its cart, not ours
		return s.syncFromServer(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if found {
		for i := range s.lines {
			if s.lines[i].key() == k {
				s.lines[i].Qty = final
				break
			}
		}
	} else {
		item.Qty = final
		s.lines = append(s.lines, item)
	}
	return s.persistLocked()
}

// Remove deletes the line matching the item's product+variant key. A key
// that is not in the cart is a no-op. Logged in, the backend removal must
// succeed before the local line goes away.
func (s *Store) Remove(ctx context.Context, item Line) error {
	k := item.key()
	if err := s.acquire(k); err != nil {
		return err
	}
	defer s.release(k)

	s.mu.Lock()
	line, found := s.findLocked(k)
	s.mu.Unlock()
	if !found {
		return nil
	}

	if s.authed() && line.ID != 0 {
		if err := s.remote.RemoveFromCart(ctx, line.ID); err != nil {
			s.log.Error("remote remove failed", zap.Int64("item_id", line.ID), zap.Error(err))
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(k)
	return s.persistLocked()
}

// DecreaseQty drops the line's quantity by one; reaching zero removes the
// line entirely.
func (s *Store) DecreaseQty(ctx context.Context, item Line) error {
	k := item.key()
	if err := s.acquire(k); err != nil {
		return err
	}
	defer s.release(k)

	s.mu.Lock()
	line, found := s.findLocked(k)
	s.mu.Unlock()
	if !found {
		return nil
	}

	newQty := line.Qty - 1

	if s.authed() && line.ID != 0 {
		var err error
		if newQty <= 0 {
			err = s.remote.RemoveFromCart(ctx, line.ID)
		} else {
			err = s.remote.UpdateCartItem(ctx, line.ID, newQty)
		}
		if err != nil {
			s.log.Error("remote decrease failed", zap.Int64("item_id", line.ID), zap.Error(err))
			return err
		}
		return s.syncFromServer(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if newQty <= 0 {
		s.removeLocked(k)
	} else {
		for i := range s.lines {
			if s.lines[i].key() == k {
				s.lines[i].Qty = newQty
				break
			}
		}
	}
	return s.persistLocked()
}

// Clear empties the cart. Logged in, the server cart is cleared first so
// the next reload doesn't resurrect it.
func (s *Store) Clear(ctx context.Context) error {
	if s.authed() {
		if err := s.remote.ClearCart(ctx); err != nil {
			s.log.Error("remote clear failed", zap.Error(err))
			return err
		}
	}
	s.ResetLocal()
	return nil
}

// ResetLocal wipes local state only, without touching the backend. The
// session calls this through its logout observer.
func (s *Store) ResetLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	_ = s.local.Delete(localstore.KeyCart)
}

// Replace bulk-sets the cart, used after server reconciliation.
func (s *Store) Replace(items []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = items
	_ = s.persistLocked()
}

// SyncFromServer fetches the authoritative cart and replaces local state.
func (s *Store) SyncFromServer(ctx context.Context) error {
	return s.syncFromServer(ctx)
}

func (s *Store) syncFromServer(ctx context.Context) error {
	srv, err := s.remote.GetCart(ctx)
	if err != nil {
		s.log.Error("server cart load failed", zap.Error(err))
		return err
	}
	s.Replace(linesFromCart(srv))
	return nil
}

// MergeOnLogin pushes the guest lines to the server and then adopts the
// server cart wholesale. Guest quantities are capped server-side; a line
// that fails to push is logged and dropped rather than blocking login.
func (s *Store) MergeOnLogin(ctx context.Context) error {
	s.mu.Lock()
	guest := make([]Line, len(s.lines))
	copy(guest, s.lines)
	s.mu.Unlock()

	for _, l := range guest {
		in := api.AddToCartInput{ProductID: l.ProductID, Quantity: l.Qty}
		if l.Variant != nil {
			id := l.Variant.ID
			in.VariantID = &id
		}
		if err := s.remote.AddToCart(ctx, in); err != nil {
			s.log.Warn("guest line not merged",
				zap.Int64("product_id", l.ProductID), zap.Error(err))
		}
	}
	return s.syncFromServer(ctx)
}

// findLocked and friends assume s.mu is held.
func (s *Store) findLocked(k lineKey) (Line, bool) {
	for _, l := range s.lines {
		if l.key() == k {
			return l, true
		}
	}
	return Line{}, false
}

func (s *Store) removeLocked(k lineKey) {
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.key() != k {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

func (s *Store) persistLocked() error {
	if err := s.local.Set(localstore.KeyCart, s.lines); err != nil {
		s.log.Warn("cart persist failed", zap.Error(err))
		return err
	}
	return nil
}

// linesFromCart maps the server cart shape onto store lines.
func linesFromCart(c cart.Cart) []Line {
	out := make([]Line, 0, len(c.Items))
	for _, it := range c.Items {
		l := Line{
			ID:        it.ID,
			ProductID: it.Product.ID,
			Title:     it.Product.Title,
			Price:     it.Product.Price,
			Image:     it.Product.Image,
			Category:  it.Product.Category,
			Stock:     it.Product.Stock,
			StockType: it.Product.StockType,
			Qty:       it.Quantity,
		}
		if it.Variant != nil {
			l.Variant = &VariantRef{
				ID:        it.Variant.ID,
				SizeName:  it.Variant.SizeName,
				ColorName: it.Variant.ColorName,
				Stock:     it.Variant.Stock,
			}
		}
		out = append(out, l)
	}
	return out
}

// LineFromProduct builds a cart line from a catalog product and an optional
// chosen variant.
func LineFromProduct(p product.Product, v *product.Variant, qty int) Line {
	l := Line{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.EffectivePrice(),
		Image:     p.Image,
		Category:  p.Category,
		Stock:     p.Stock,
		StockType: p.StockType,
		Qty:       qty,
	}
	if v != nil {
		price := p.EffectivePrice()
		if v.Price != nil {
			price = *v.Price
		}
		l.Price = price
		l.Variant = &VariantRef{
			ID:        v.ID,
			SizeName:  v.SizeName,
			ColorName: v.ColorName,
			Stock:     v.Stock,
		}
	}
	return l
}
