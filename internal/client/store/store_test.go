package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/client/api"
	"storefront/internal/client/localstore"
	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
)

type fakeRemote struct {
	mu       sync.Mutex
	cart     cart.Cart
	adds     []api.AddToCartInput
	updates  map[int64]int
	removals []int64
	cleared  bool
	// when set, AddToCart blocks until the channel closes
	addGate   chan struct{}
	addErr    error
	updateErr error
	removeErr error
}

func (f *fakeRemote) GetCart(ctx context.Context) (cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart, nil
}

func (f *fakeRemote) AddToCart(ctx context.Context, in api.AddToCartInput) error {
	f.mu.Lock()
	gate := f.addGate
	f.adds = append(f.adds, in)
	err := f.addErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeRemote) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = map[int64]int{}
	}
	f.updates[itemID] = quantity
	return nil
}

func (f *fakeRemote) RemoveFromCart(ctx context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removals = append(f.removals, itemID)
	return nil
}

func (f *fakeRemote) ClearCart(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	return nil
}

func newTestStore(t *testing.T, remote Remote, authed bool, notices *[]string) *Store {
	t.Helper()
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	notice := func(string) {}
	if notices != nil {
		notice = func(msg string) { *notices = append(*notices, msg) }
	}
	return New(local, remote, func() bool { return authed }, notice, nil)
}

func simpleLine(productID int64, qty, stock int) Line {
	return Line{
		ProductID: productID,
		Title:     "Aviator Classic",
		Price:     49.99,
		Stock:     stock,
		StockType: product.StockTypeMain,
		Qty:       qty,
	}
}

func TestAddNewLine(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, false, nil)

	require.NoError(t, s.Add(context.Background(), simpleLine(1, 2, 10)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.InDelta(t, 99.98, s.Total(), 0.001)
}

func TestAddAccumulatesSameKey(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, false, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 10)))
	require.NoError(t, s.Add(ctx, simpleLine(1, 3, 10)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Qty)
}

func TestAddCapsAtStock(t *testing.T) {
	var notices []string
	s := newTestStore(t, &fakeRemote{}, false, &notices)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 2)))
	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 2)))
	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 2)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	require.Len(t, notices, 1)
	assert.Equal(t, "Maximum 2 allowed", notices[0])
}

func TestAddOversizedQuantityCapsImmediately(t *testing.T) {
	var notices []string
	s := newTestStore(t, &fakeRemote{}, false, &notices)

	require.NoError(t, s.Add(context.Background(), simpleLine(1, 5, 3)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Qty)
	assert.Len(t, notices, 1)
}

func TestAddVariantUsesVariantStock(t *testing.T) {
	var notices []string
	s := newTestStore(t, &fakeRemote{}, false, &notices)

	line := Line{
		ProductID: 7,
		Title:     "Wayfarer",
		Price:     30,
		Stock:     50,
		StockType: product.StockTypeVariants,
		Qty:       3,
		Variant:   &VariantRef{ID: 70, SizeName: "M", Stock: 1},
	}
	require.NoError(t, s.Add(context.Background(), line))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty)
	assert.Equal(t, "Maximum 1 allowed", notices[0])
}

func TestVariantsAreSeparateLines(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, false, nil)
	ctx := context.Background()

	base := Line{ProductID: 7, Price: 30, Stock: 50, StockType: product.StockTypeVariants, Qty: 1}
	a, b := base, base
	a.Variant = &VariantRef{ID: 70, Stock: 5}
	b.Variant = &VariantRef{ID: 71, Stock: 5}

	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.Add(ctx, b))

	assert.Equal(t, 2, s.Count())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, false, nil)

	require.NoError(t, s.Remove(context.Background(), simpleLine(99, 1, 5)))
	assert.Equal(t, 0, s.Count())
}

func TestDecreaseToZeroRemovesLine(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, false, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 2, 10)))
	require.NoError(t, s.DecreaseQty(ctx, simpleLine(1, 0, 10)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty)

	require.NoError(t, s.DecreaseQty(ctx, simpleLine(1, 0, 10)))
	assert.Equal(t, 0, s.Count())
}

func TestPersistenceSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	local, err := localstore.New(dir)
	require.NoError(t, err)

	s := New(local, &fakeRemote{}, nil, nil, nil)
	require.NoError(t, s.Add(context.Background(), simpleLine(1, 2, 10)))

	reopened := New(local, &fakeRemote{}, nil, nil, nil)
	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.InDelta(t, 99.98, reopened.Total(), 0.001)
}

func TestResetLocalPurgesPersistence(t *testing.T) {
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)

	s := New(local, &fakeRemote{}, nil, nil, nil)
	require.NoError(t, s.Add(context.Background(), simpleLine(1, 1, 10)))
	s.ResetLocal()

	assert.Equal(t, 0, s.Count())
	var saved []Line
	assert.ErrorIs(t, local.Get(localstore.KeyCart, &saved), localstore.ErrNotFound)
}

func serverCartWith(itemID, productID int64, qty int) cart.Cart {
	return cart.Cart{
		Items: []cart.CartItem{{
			ID:       itemID,
			Quantity: qty,
			Product: cart.ItemProduct{
				ID:        productID,
				Title:     "Aviator Classic",
				Price:     49.99,
				Stock:     10,
				StockType: product.StockTypeMain,
			},
		}},
	}
}

func TestAddAuthedAdoptsServerCart(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(501, 1, 3)}
	s := newTestStore(t, remote, true, nil)

	require.NoError(t, s.Add(context.Background(), simpleLine(1, 1, 10)))

	require.Len(t, remote.adds, 1)
	assert.Equal(t, int64(1), remote.adds[0].ProductID)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(501), items[0].ID)
	assert.Equal(t, 3, items[0].Qty)
}

func TestRemoveAuthedCallsBackendFirst(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(501, 1, 2)}
	s := newTestStore(t, remote, true, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 10)))
	require.NoError(t, s.Remove(ctx, simpleLine(1, 0, 10)))

	require.Len(t, remote.removals, 1)
	assert.Equal(t, int64(501), remote.removals[0])
	assert.Equal(t, 0, s.Count())
}

func TestDecreaseAuthedUpdatesBackend(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(501, 1, 2)}
	s := newTestStore(t, remote, true, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 10)))
	require.NoError(t, s.DecreaseQty(ctx, simpleLine(1, 0, 10)))

	assert.Equal(t, 1, remote.updates[501])
}

func TestAddAuthedRemoteFailureLeavesCartUntouched(t *testing.T) {
	remote := &fakeRemote{addErr: errors.New("backend down")}
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	s := New(local, remote, func() bool { return true }, nil, nil)

	err = s.Add(context.Background(), simpleLine(1, 1, 10))
	require.Error(t, err)

	assert.Equal(t, 0, s.Count())
	var saved []Line
	assert.ErrorIs(t, local.Get(localstore.KeyCart, &saved), localstore.ErrNotFound)
}

func TestRemoveAuthedRemoteFailureKeepsLine(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(501, 1, 2)}
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	s := New(local, remote, func() bool { return true }, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 10)))

	remote.removeErr = errors.New("backend down")
	err = s.Remove(ctx, simpleLine(1, 0, 10))
	require.Error(t, err)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)

	var saved []Line
	require.NoError(t, local.Get(localstore.KeyCart, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].Qty)
}

func TestDecreaseAuthedRemoteFailureKeepsQty(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(501, 1, 2)}
	s := newTestStore(t, remote, true, nil)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, simpleLine(1, 1, 10)))

	remote.updateErr = errors.New("backend down")
	err := s.DecreaseQty(ctx, simpleLine(1, 0, 10))
	require.Error(t, err)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
}

func TestClearAuthedClearsBackend(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, true, nil)

	require.NoError(t, s.Clear(context.Background()))
	assert.True(t, remote.cleared)
}

func TestMergeOnLoginPushesGuestLines(t *testing.T) {
	remote := &fakeRemote{cart: serverCartWith(900, 1, 5)}
	local, err := localstore.New(t.TempDir())
	require.NoError(t, err)

	// guest phase: two lines accumulate offline
	s := New(local, remote, func() bool { return false }, nil, nil)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, simpleLine(1, 2, 10)))
	require.NoError(t, s.Add(ctx, simpleLine(2, 1, 10)))

	require.NoError(t, s.MergeOnLogin(ctx))

	require.Len(t, remote.adds, 2)
	assert.Equal(t, 2, remote.adds[0].Quantity)

	// server cart wins wholesale
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(900), items[0].ID)
	assert.Equal(t, 5, items[0].Qty)
}

func TestConcurrentMutationOnSameLineRejected(t *testing.T) {
	gate := make(chan struct{})
	remote := &fakeRemote{cart: serverCartWith(501, 1, 1), addGate: gate}
	s := newTestStore(t, remote, true, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Add(ctx, simpleLine(1, 1, 10)) }()

	// wait until the first mutation is inside the remote call
	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return len(remote.adds) == 1
	}, time.Second, 5*time.Millisecond)

	err := s.Add(ctx, simpleLine(1, 1, 10))
	assert.ErrorIs(t, err, ErrMutationPending)

	close(gate)
	require.NoError(t, <-done)

	// the lock is per line and released once the call finishes
	assert.NoError(t, s.Add(ctx, simpleLine(2, 1, 10)))
}
