package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
	"github.com/Dema10/beerproject/store/memstore"
)

var (
	alice = models.Identity{UserID: "alice", Role: models.RoleUser}
	bob   = models.Identity{UserID: "bob", Role: models.RoleUser}
	admin = models.Identity{UserID: "admin-1", Role: models.RoleAdmin}
)

var nobody models.Identity

type fixture struct {
	st       *memstore.Store
	pub      *recorder
	claims   *fakeClaimer
	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
	catalog  *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &recorder{}
	claims := newFakeClaimer()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		st:       st,
		pub:      pub,
		claims:   claims,
		cart:     NewCartService(st),
		checkout: NewCheckoutService(st, pub, claims, log),
		orders:   NewOrderService(st, pub, log),
		catalog:  NewCatalogService(st),
	}

	// Strictly increasing clock so newest-first listings are deterministic.
	var mu sync.Mutex
	clock := time.Date(2025, 9, 8, 13, 5, 0, 0, time.UTC)
	f.checkout.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return f
}

func (f *fixture) seedBeer(t *testing.T, id, name, price string, qty int) {
	t.Helper()
	err := f.st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.SaveBeer(ctx, &models.Beer{
			ID:           id,
			Name:         name,
			Price:        decimal.RequireFromString(price),
			Quantity:     qty,
			InProduction: true,
		})
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	beer, err := f.catalog.Get(context.Background(), id)
	require.NoError(t, err)
	return beer.Quantity
}

func (f *fixture) history(t *testing.T, userID string) []string {
	t.Helper()
	var ids []string
	err := f.st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		ids, err = tx.UserOrders(ctx, userID)
		return err
	})
	require.NoError(t, err)
	return ids
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	page, err := f.orders.ListAll(context.Background(), admin, store.Page{Page: 1, Limit: store.MaxPageLimit})
	require.NoError(t, err)
	return page.TotalOrders
}

// placeOrder fills the caller's cart with lines (beer id -> qty) and checks out.
func (f *fixture) placeOrder(t *testing.T, caller models.Identity, lines map[string]int) *models.Order {
	t.Helper()
	ctx := context.Background()
	for beerID, qty := range lines {
		_, err := f.cart.AddItem(ctx, caller, beerID, qty)
		require.NoError(t, err)
	}
	order, err := f.checkout.Checkout(ctx, caller, "")
	require.NoError(t, err)
	return order
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeClaimer struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
}

func newFakeClaimer() *fakeClaimer {
	return &fakeClaimer{claimed: make(map[string]bool)}
}

func (c *fakeClaimer) Claim(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimed[key] {
		return false, nil
	}
	c.claimed[key] = true
	return true, nil
}

func (c *fakeClaimer) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, key)
	c.released = append(c.released, key)
	return nil
}
